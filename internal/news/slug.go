package news

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify turns a title into a URL slug. Accents are stripped and
// letters lower cased, any other run of characters becomes a single
// hyphen: "Version 2.0 released" -> "version-2-0-released".
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range norm.NFKD.String(title) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
	}

	return b.String()
}
