package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var suffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

// Normalize produces the lookup key for a player name: diacritics stripped,
// lowercased, punctuation dropped, generational suffixes removed and
// whitespace collapsed. "Luka Dončić" and "luka doncic" share a key, as do
// "Jaren Jackson Jr." and "Jaren Jackson".
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range norm.NFD.String(name) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	for len(fields) > 1 && suffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// Equal compares two names by their normalized keys.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
