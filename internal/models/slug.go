package models

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid   = regexp.MustCompile(`[^\w\s-]`)
	slugSeparator = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a display name into a lowercase, hyphenated, ASCII-only
// identifier. Accented letters are decomposed and their marks dropped, so
// "Café Crème" becomes "cafe-creme".
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	s := slugInvalid.ReplaceAllString(strings.ToLower(b.String()), "")
	s = slugSeparator.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-_")
}
