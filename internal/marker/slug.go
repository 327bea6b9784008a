package marker

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slug derives a URL-safe identifier from an example title. Unicode letters
// are decomposed and stripped of combining marks so "Café récipes" and
// "Cafe recipes" map to the same identifier; runs of anything that is not a
// letter or digit collapse to a single hyphen.
//
// The same function produces heading anchor IDs so fragment links can be
// resolved against cloned content.
func Slug(title string) string {
	decomposed := norm.NFD.String(title)

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingHyphen := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining mark left over from decomposition.
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
