// Package htmlsanitize strips markup from free text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every HTML tag (and the contents of script and style
// elements) from s and returns trimmed plain text. Entities are decoded so
// "Tom & Jerry" stays as typed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
