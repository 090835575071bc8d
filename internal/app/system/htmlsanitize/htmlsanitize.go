// Package htmlsanitize strips markup from user-supplied free text before it is
// stored. Values stay plain text; templates escape them on output.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag (and the contents of script/style elements) and
// returns the remaining text unescaped and trimmed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
