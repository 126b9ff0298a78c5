package faq

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"supportbot/internal/entities"
)

// ParseCSV reads FAQ rows. A header row naming question/answer/category/keywords
// columns is honoured in any order; without one the columns are positional.
// Keywords are ";"-separated. Rows missing a question or answer are skipped.
func ParseCSV(r io.Reader, source string) ([]entities.FAQEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("empty CSV")
	}

	cols := map[string]int{"question": 0, "answer": 1, "category": 2, "keywords": 3}
	start := 0
	if hasHeader(records[0]) {
		cols = map[string]int{"question": -1, "answer": -1, "category": -1, "keywords": -1}
		for i, name := range records[0] {
			name = strings.ToLower(strings.TrimSpace(name))
			if _, ok := cols[name]; ok {
				cols[name] = i
			}
		}
		if cols["question"] < 0 || cols["answer"] < 0 {
			return nil, errors.New("CSV header needs question and answer columns")
		}
		start = 1
	}

	var out []entities.FAQEntry
	for _, rec := range records[start:] {
		q := truncateRunes(strings.TrimSpace(field(rec, cols["question"])), MaxQuestionLength)
		a := truncateRunes(strings.TrimSpace(field(rec, cols["answer"])), MaxAnswerLength)
		if q == "" || a == "" {
			continue
		}
		cat := strings.TrimSpace(field(rec, cols["category"]))
		if cat == "" {
			cat = DefaultCategory
		}
		kw := splitKeywords(field(rec, cols["keywords"]))
		if len(kw) == 0 {
			kw = ExtractKeywords(q+" "+a, MaxKeywords)
		}
		out = append(out, entities.FAQEntry{
			Question: q,
			Answer:   a,
			Category: cat,
			Keywords: kw,
			Source:   source,
			IsActive: true,
		})
	}
	return out, nil
}

func hasHeader(row []string) bool {
	for _, c := range row {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "question", "answer":
			return true
		}
	}
	return false
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ";") {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}
