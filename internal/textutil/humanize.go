package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// Humanize turns a slug into a display title: separators collapse to single
// spaces, anything else non-alphanumeric is dropped, and each word is
// title-cased. Returns "" when nothing printable remains.
func Humanize(slug string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range slug {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return ""
	}
	return titleCaser.String(title)
}
