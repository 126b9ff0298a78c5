package faq

import "strings"

const MaxKeywords = 5

// ExtractKeywords picks up to limit distinct words longer than three characters
// that are not stopwords, in order of appearance.
func ExtractKeywords(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxKeywords
	}
	seen := make(map[string]struct{})
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,!?;:"'()[]`)
		if len(w) <= 3 || IsStopword(w) || keywordFiller[w] {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}
	return out
}

var keywordFiller = map[string]bool{
	"been": true, "were": true, "shall": true, "might": true, "must": true,
	"else": true, "each": true, "every": true, "both": true, "either": true,
	"neither": true, "some": true, "then": true, "than": true, "also": true,
	"into": true, "about": true, "just": true, "only": true, "more": true,
}
