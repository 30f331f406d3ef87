package api

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	lineBreakRE  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>`)
	blankRunRE   = regexp.MustCompile(`\n{3,}`)
)

// PlainText turns server-provided HTML into display text. Line-level tags
// become newlines, every other tag is dropped and entities are decoded.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	s = lineBreakRE.ReplaceAllString(s, "\n")
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = blankRunRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
