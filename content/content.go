// Package content turns opaque post bodies into something displayable:
// sanitized HTML for detail views and plain text for cards and the TUI.
package content

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/brunoscheufler/inkwell/store"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	blockBoundary = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|h[1-6]|blockquote|pre|tr)>`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
	spaces        = regexp.MustCompile(`[ \t]+`)
)

// Renderer converts post bodies. Bodies may mix markdown and raw HTML, as
// written by the rich-text editor. A Renderer is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe(), goldmarkhtml.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify, extension.Table),
	)

	ugc := bluemonday.UGCPolicy()
	ugc.AllowRelativeURLs(true)

	return &Renderer{
		md:     md,
		ugc:    ugc,
		strict: bluemonday.StrictPolicy(),
	}
}

// Render returns the body as sanitized HTML.
func (r *Renderer) Render(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render body: %w", err)
	}
	return strings.TrimSpace(r.ugc.Sanitize(buf.String())), nil
}

// Text returns the body without markup. Block boundaries become line
// breaks; runs of blank lines collapse to one.
func (r *Renderer) Text(body string) string {
	rendered, err := r.Render(body)
	if err != nil {
		rendered = body
	}
	marked := blockBoundary.ReplaceAllString(rendered, "$0\n")
	plain := html.UnescapeString(r.strict.Sanitize(marked))

	lines := strings.Split(plain, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// Preview returns at most n characters of the body's plain text on a
// single line, followed by "..." when it was cut.
func (r *Renderer) Preview(body string, n int) string {
	return Truncate(strings.Join(strings.Fields(r.Text(body)), " "), n)
}

// Truncate cuts s to n characters and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// CoverImage returns the post's cover image, falling back to its first
// media item.
func CoverImage(post store.Post) string {
	if post.CoverImage != "" {
		return post.CoverImage
	}
	if len(post.Media) > 0 {
		return post.Media[0]
	}
	return ""
}
