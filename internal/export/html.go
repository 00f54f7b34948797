// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/vedantra/internal/format"
	"github.com/jeranaias/vedantra/internal/model"
)

// codeFenceRe splits message text into prose and fenced code. The language
// tag is optional.
var codeFenceRe = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)\\n?(.*?)```")

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a self-contained HTML page. Prose
// goes through format.HTML; fenced code is highlighted with chroma using
// inline styles so the page needs no external stylesheet.
type HTMLExporter struct {
	options   *Options
	formatter format.Formatter
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts, formatter: format.HTML{}}
}

func (e *HTMLExporter) theme() string {
	if e.options.Theme == "light" {
		return "light"
	}
	return "dark"
}

// Export implements Exporter.
func (e *HTMLExporter) Export(msgs []model.Message, meta Meta) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}
	meta = meta.withDefaults()

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(meta.Title))
	sb.WriteString("<meta name=\"generator\" content=\"vedantra\">\n")
	fmt.Fprintf(&sb, "<meta name=\"date\" content=\"%s\">\n", meta.Exported.Format(time.RFC3339))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n<div class=\"container\">\n", e.theme())

	if e.options.IncludeMetadata {
		e.renderHeader(&sb, msgs, meta)
	}

	sb.WriteString("<main class=\"conversation\">\n")
	for _, msg := range msgs {
		e.renderMessage(&sb, msg)
	}
	sb.WriteString("</main>\n")

	fmt.Fprintf(&sb, "<footer class=\"footer\">Exported from <strong>Vedantra AI</strong> on %s</footer>\n",
		meta.Exported.Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("</div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string { return "text/html" }

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(sb *strings.Builder, msgs []model.Message, meta Meta) {
	sb.WriteString("<header class=\"header\">\n")
	fmt.Fprintf(sb, "<h1>%s</h1>\n<div class=\"metadata\">\n", html.EscapeString(meta.Title))
	if used := modelsUsed(msgs); len(used) > 0 {
		fmt.Fprintf(sb, "<span class=\"meta-item\"><strong>Models:</strong> %s</span>\n", html.EscapeString(strings.Join(used, ", ")))
	}
	fmt.Fprintf(sb, "<span class=\"meta-item\"><strong>Started:</strong> %s</span>\n", formatTimestamp(msgs[0].Timestamp))
	fmt.Fprintf(sb, "<span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(msgs))
	sb.WriteString("</div>\n</header>\n")
}

func (e *HTMLExporter) renderMessage(sb *strings.Builder, msg model.Message) {
	fmt.Fprintf(sb, "<div class=\"message %s-message\">\n", html.EscapeString(string(msg.Role)))
	sb.WriteString("<div class=\"message-header\">")
	fmt.Fprintf(sb, "<span class=\"role-label\">%s</span>", html.EscapeString(roleLabel(msg.Role)))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(sb, "<span class=\"timestamp\">%s</span>", formatShortTimestamp(msg.Timestamp))
	}
	sb.WriteString("</div>\n<div class=\"message-content\">\n")
	sb.WriteString(e.formatContent(msg.Content))
	sb.WriteString("\n</div>\n</div>\n")
}

// formatContent renders prose segments with the chat formatter and code
// fences with syntax highlighting.
func (e *HTMLExporter) formatContent(content string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range codeFenceRe.FindAllStringSubmatchIndex(content, -1) {
		e.writeProse(&sb, content[last:loc[0]])
		lang := content[loc[2]:loc[3]]
		code := content[loc[4]:loc[5]]
		sb.WriteString(highlightCode(code, lang, e.theme()))
		last = loc[1]
	}
	e.writeProse(&sb, content[last:])
	return sb.String()
}

func (e *HTMLExporter) writeProse(sb *strings.Builder, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	sb.WriteString(e.formatter.Format(strings.Trim(text, "\n")))
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlightCode renders code as an inline-styled <pre> block. The language
// is guessed when the fence has no tag; any failure falls back to escaped
// plain text.
func highlightCode(code, language, theme string) string {
	code = strings.TrimRight(code, "\n")

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if theme == "light" {
		styleName = "github"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	plain := "<pre><code>" + html.EscapeString(code) + "</code></pre>"
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}
	var buf strings.Builder
	if err := chromahtml.New(chromahtml.WithClasses(false)).Format(&buf, style, iterator); err != nil {
		return plain
	}

	label := ""
	if language != "" {
		label = "<div class=\"code-lang\">" + html.EscapeString(language) + "</div>"
	}
	return "<div class=\"code-block\">" + label + buf.String() + "</div>"
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
.dark-theme { --bg: #1a1b26; --panel: #24283b; --header: #414868; --text: #c0caf5; --muted: #565f89; --user: #1f2335; --accent: #7aa2f7; }
.light-theme { --bg: #ffffff; --panel: #f7f8fa; --header: #e1e4e8; --text: #24292e; --muted: #6a737d; --user: #eef2f7; --accent: #0366d6; }
body { font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; line-height: 1.6; color: var(--text); background: var(--bg); padding: 20px; }
.container { max-width: 900px; margin: 0 auto; background: var(--panel); border-radius: 12px; overflow: hidden; }
.header { padding: 24px 32px; background: var(--header); }
.metadata { display: flex; flex-wrap: wrap; gap: 16px; color: var(--muted); font-size: 14px; margin-top: 8px; }
.conversation { padding: 24px 32px; }
.message { padding: 16px; border-radius: 8px; margin-bottom: 16px; }
.user-message { background: var(--user); border-left: 3px solid var(--accent); }
.message-header { display: flex; justify-content: space-between; margin-bottom: 8px; font-weight: 600; }
.timestamp { color: var(--muted); font-weight: 400; font-size: 13px; }
.message-content p { margin: 8px 0; }
.message-content code { font-family: "SF Mono", Monaco, "Fira Code", monospace; }
.message-content a { color: var(--accent); }
.code-block { margin: 12px 0; }
.code-block pre { padding: 12px; border-radius: 6px; overflow-x: auto; }
.code-lang { font-size: 12px; color: var(--muted); margin-bottom: 4px; }
.footer { padding: 16px 32px; color: var(--muted); font-size: 13px; text-align: center; }
</style>
`
