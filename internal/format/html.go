// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Formatter turns raw message text into display markup. Implementations are
// called with the whole accumulated text on every streamed chunk, so they
// must accept any prefix of a message.
type Formatter interface {
	Format(text string) string
}

// =============================================================================
// HTML FORMATTER
// =============================================================================

// Rules run in this order, each on the previous rule's output.
var (
	headingRe    = regexp.MustCompile(`(?m)^(#{1,6}) (.*)$`)
	fenceRe      = regexp.MustCompile("(?s)```(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	linkRe       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
)

// safeSchemes are the only link targets rendered as anchors.
var safeSchemes = []string{"http://", "https://", "mailto:"}

// HTML renders the small Markdown subset used in chat messages as HTML.
// The input is escaped before any rule runs, so message text can never
// inject markup of its own.
type HTML struct{}

// Format implements Formatter.
func (HTML) Format(text string) string {
	out := html.EscapeString(strings.ReplaceAll(text, "\r\n", "\n"))

	out = headingRe.ReplaceAllStringFunc(out, func(line string) string {
		m := headingRe.FindStringSubmatch(line)
		level := strconv.Itoa(len(m[1]))
		return "<h" + level + ">" + m[2] + "</h" + level + ">"
	})
	out = fenceRe.ReplaceAllString(out, "<pre>$1</pre>")
	out = inlineCodeRe.ReplaceAllString(out, "<code>$1</code>")
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	out = linkRe.ReplaceAllStringFunc(out, renderLink)
	out = strings.ReplaceAll(out, "\n\n", "</p><p>")
	out = strings.ReplaceAll(out, "\n", "<br>")

	return "<p>" + out + "</p>"
}

// renderLink emits an anchor for safe URLs and the bare label otherwise.
// Both parts are already escaped.
func renderLink(match string) string {
	m := linkRe.FindStringSubmatch(match)
	label, href := m[1], strings.TrimSpace(m[2])
	if !isSafeURL(href) {
		return label
	}
	return `<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + label + `</a>`
}

func isSafeURL(href string) bool {
	lower := strings.ToLower(html.UnescapeString(href))
	for _, scheme := range safeSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}
