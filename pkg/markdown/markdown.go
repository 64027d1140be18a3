// Package markdown renders user-authored markdown to sanitized HTML.
package markdown

import (
	"bytes"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	policy = bluemonday.UGCPolicy()

	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

func init() {
	// keep the language-xxx class goldmark puts on fenced code blocks
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
}

// Render converts markdown to HTML and strips anything unsafe. Raw HTML in the
// source is escaped by goldmark before the sanitizer runs.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// Excerpt returns the plain text of rendered HTML cut to at most n runes,
// with "..." appended when it was cut.
func Excerpt(renderedHTML string, n int) string {
	text := tagPattern.ReplaceAllString(renderedHTML, " ")
	text = html.UnescapeString(text)
	text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return strings.TrimSpace(string([]rune(text)[:n])) + "..."
}
