package feed

import (
	"html"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// StripHTML removes all markup and decodes entities.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// ParseDate accepts any common date layout. Unparsable input yields the zero
// time, which sorts after every real date.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Truncate shortens s to at most n runes; n <= 0 leaves s untouched.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	return TruncateRunes(s, n)
}
