package faq

import (
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an and are as at be been but by can could did do does for from
		had has have how i if in is it its me my of on or our should so that the their them
		there these they this to us was we what when where which who why will with would you your`) {
		stopwords[w] = struct{}{}
	}
}

// Tokenize lowercases s, splits it on anything that is not a letter or digit
// and drops stopwords. A text made only of stopwords keeps its raw tokens.
func Tokenize(s string) []string {
	raw := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, stop := stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return raw
	}
	return out
}

// IsStopword reports whether w (lowercase) carries no topical meaning.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}
