package faq

import "supportbot/internal/entities"

// Matcher scores messages against FAQ entries by token overlap.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match returns the active entry with the highest score and that score.
// The score is the fraction of distinct message tokens found among the
// entry's question and keyword tokens. Ties go to the earliest entry. No entry is returned when nothing overlaps.
func (m *Matcher) Match(message string, entries []entities.FAQEntry) (*entities.FAQEntry, float64) {
	tokens := distinct(Tokenize(message))
	if len(tokens) == 0 {
		return nil, 0
	}

	bestIdx := -1
	bestScore := 0.0
	for i := range entries {
		if !entries[i].IsActive {
			continue
		}
		score := Score(tokens, entryTerms(entries[i]))
		if bestIdx == -1 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx == -1 || bestScore == 0 {
		return nil, 0
	}

	best := entries[bestIdx]
	return &best, bestScore
}

// Score returns |tokens ∩ terms| / |tokens|.
func Score(tokens []string, terms map[string]struct{}) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range tokens {
		if _, ok := terms[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

func entryTerms(e entities.FAQEntry) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, t := range Tokenize(e.Question) {
		terms[t] = struct{}{}
	}
	for _, kw := range e.Keywords {
		for _, t := range Tokenize(kw) {
			terms[t] = struct{}{}
		}
	}
	return terms
}

func distinct(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
