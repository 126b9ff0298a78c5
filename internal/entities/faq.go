package entities

import "time"

// FAQEntry is a curated question/answer pair used for direct matching.
type FAQEntry struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	Keywords  []string  `json:"keywords"`
	Source    string    `json:"source,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
