// Package content cleans user-supplied HTML and derives slugs and excerpts.
package content

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"

	"github.com/choosemyai/backend/internal/store"
)

const ExcerptLength = 200

var (
	richPolicy  = newRichPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "code", "pre")
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("class").Globally()
	return p
}

// SanitizeHTML keeps the small formatting allow-list used for descriptions,
// comments and blog posts and drops everything else.
func SanitizeHTML(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// PlainText strips all markup, for names and titles.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}

// Slugify turns a title into a URL slug.
func Slugify(title string) string {
	return slug.Make(title)
}

// UniqueSlug slugs title and appends -2, -3, ... until the slug is free.
// exceptID is the post being edited; its own slug does not count as taken.
func UniqueSlug(ctx context.Context, s store.Store, title string, exceptID int) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "post"
	}

	candidate := base
	for n := 2; ; n++ {
		existing, err := s.GetBlogPostBySlug(ctx, candidate)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return candidate, nil
		case err != nil:
			return "", fmt.Errorf("check slug %s: %w", candidate, err)
		case existing.ID == exceptID:
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// Excerpt returns the first ExcerptLength characters of the text content,
// with "..." appended when it was cut.
func Excerpt(htmlContent string) string {
	text := strings.Join(strings.Fields(PlainText(htmlContent)), " ")
	if utf8.RuneCountInString(text) <= ExcerptLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:ExcerptLength])) + "..."
}
