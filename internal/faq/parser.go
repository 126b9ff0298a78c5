package faq

import (
	"strings"
	"unicode"

	"supportbot/internal/entities"
)

const (
	DefaultCategory   = "General"
	MaxQuestionLength = 1000
	MaxAnswerLength   = 5000
)

// ParseDocument extracts Q/A pairs from plain text. Category headers are lines
// starting with "##" or "Category:". Questions start with "Q:", "Question:" or
// a list number ("1.", "2)"); answers start with "A:" or "Answer:" and any
// other line continues the open answer.
func ParseDocument(text, source string) []entities.FAQEntry {
	var (
		out      []entities.FAQEntry
		question string
		qCat     string
		answer   []string
		category = DefaultCategory
	)

	flush := func() {
		a := strings.TrimSpace(strings.Join(answer, " "))
		if question == "" || a == "" {
			return
		}
		q := truncateRunes(question, MaxQuestionLength)
		a = truncateRunes(a, MaxAnswerLength)
		out = append(out, entities.FAQEntry{
			Question: q,
			Answer:   a,
			Category: qCat,
			Keywords: ExtractKeywords(q+" "+a, MaxKeywords),
			Source:   source,
			IsActive: true,
		})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isPageMarker(line) {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(line, "##") || strings.HasPrefix(lower, "category:"):
			cat := strings.TrimSpace(strings.TrimLeft(line, "#"))
			cat = strings.TrimSpace(trimPrefixFold(cat, "category:"))
			if cat != "" {
				category = cat
			}
		case strings.HasPrefix(lower, "q:") || strings.HasPrefix(lower, "question:") || isNumbered(line):
			flush()
			question = stripQuestionMarker(line)
			qCat = category
			answer = nil
		case strings.HasPrefix(lower, "a:") || strings.HasPrefix(lower, "answer:"):
			a := strings.TrimSpace(trimPrefixFold(trimPrefixFold(line, "answer:"), "a:"))
			if a != "" {
				answer = append(answer, a)
			}
		case question != "":
			answer = append(answer, line)
		}
	}
	flush()
	return out
}

func isNumbered(line string) bool {
	if line == "" || !unicode.IsDigit(rune(line[0])) {
		return false
	}
	head := line
	if len(head) > 3 {
		head = head[:3]
	}
	return strings.ContainsAny(head, ".)")
}

func isPageMarker(line string) bool {
	return strings.HasPrefix(line, "--- Page ") && strings.HasSuffix(line, "---")
}

func stripQuestionMarker(line string) string {
	line = trimPrefixFold(line, "question:")
	line = trimPrefixFold(line, "q:")
	idx := strings.IndexFunc(line, unicode.IsLetter)
	if idx < 0 {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(line[idx:])
}

func trimPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):]
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
