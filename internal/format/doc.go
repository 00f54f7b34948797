// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format converts raw chat text into display markup.
//
// Every formatter is re-run on the full accumulated text each time a new
// chunk of a streamed reply arrives; none of them keep state between calls.
//
// # Key Types
//
//   - Formatter: the single-method interface used by the chat session
//   - HTML: escape-first Markdown subset to HTML (headings, fenced and inline
//     code, bold, italic, links, paragraphs)
//   - Terminal: glamour-rendered Markdown for ANSI terminals
//   - Plain: identity, for pipes and files
//
// # Usage
//
//	html := format.HTML{}.Format("**a** and *b*")
//	// <p><strong>a</strong> and <em>b</em></p>
//
//	term := format.NewTerminal(format.StyleDark, 80)
//	fmt.Println(term.Format(reply))
package format
