// Package htmlsanitize strips markup from user-supplied free text.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element; script and style contents are dropped.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all HTML removed and surrounding whitespace
// trimmed. The result is entity-decoded plain text: "&lt;b&gt;" comes back
// as "<b>". It is not safe to embed as HTML without escaping it first.
func PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
