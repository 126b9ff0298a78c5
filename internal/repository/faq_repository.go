package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"supportbot/internal/entities"
)

type FAQRepository struct {
	db *Store
}

func NewFAQRepository(db *Store) *FAQRepository {
	return &FAQRepository{db: db}
}

const faqColumns = "id, question, answer, category, keywords, source, is_active, created_at"

func (r *FAQRepository) Create(ctx context.Context, e *entities.FAQEntry) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return r.insert(ctx, tx, e)
	})
}

// ImportBatch stores entries in one transaction. With replace set, every
// currently active entry is deactivated first.
func (r *FAQRepository) ImportBatch(ctx context.Context, entries []entities.FAQEntry, replace bool) (int, error) {
	stored := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if replace {
			if _, err := tx.ExecContext(ctx, r.db.Rebind("UPDATE faq_entries SET is_active = ? WHERE is_active = ?"), false, true); err != nil {
				return fmt.Errorf("deactivate faqs: %w", err)
			}
		}
		for i := range entries {
			if err := r.insert(ctx, tx, &entries[i]); err != nil {
				return err
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

func (r *FAQRepository) insert(ctx context.Context, tx *sql.Tx, e *entities.FAQEntry) error {
	kw, err := json.Marshal(nonNil(e.Keywords))
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Category == "" {
		e.Category = "General"
	}
	err = tx.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO faq_entries (question, answer, category, keywords, source, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		e.Question, e.Answer, e.Category, string(kw), e.Source, e.IsActive, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert faq: %w", err)
	}
	return nil
}

// ListActive returns active entries in insertion order.
func (r *FAQRepository) ListActive(ctx context.Context) ([]entities.FAQEntry, error) {
	return r.list(ctx, "SELECT "+faqColumns+" FROM faq_entries WHERE is_active = ? ORDER BY id", true)
}

func (r *FAQRepository) ListAll(ctx context.Context) ([]entities.FAQEntry, error) {
	return r.list(ctx, "SELECT "+faqColumns+" FROM faq_entries ORDER BY id")
}

func (r *FAQRepository) GetByID(ctx context.Context, id int64) (*entities.FAQEntry, error) {
	rows, err := r.db.query(ctx, "SELECT "+faqColumns+" FROM faq_entries WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	e, err := scanFAQ(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Deactivate soft-deletes one entry.
func (r *FAQRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.exec(ctx, "UPDATE faq_entries SET is_active = ? WHERE id = ? AND is_active = ?", false, id, true)
	if err != nil {
		return fmt.Errorf("deactivate faq %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FAQRepository) DeactivateAll(ctx context.Context) (int64, error) {
	res, err := r.db.exec(ctx, "UPDATE faq_entries SET is_active = ? WHERE is_active = ?", false, true)
	if err != nil {
		return 0, fmt.Errorf("deactivate faqs: %w", err)
	}
	return res.RowsAffected()
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

func (r *FAQRepository) Categories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.db.query(ctx, `
		SELECT category, COUNT(*) FROM faq_entries
		WHERE is_active = ? GROUP BY category ORDER BY category`, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *FAQRepository) list(ctx context.Context, query string, args ...any) ([]entities.FAQEntry, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer rows.Close()

	var out []entities.FAQEntry
	for rows.Next() {
		e, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanFAQ(rows *sql.Rows) (entities.FAQEntry, error) {
	var (
		e      entities.FAQEntry
		kw     sql.NullString
		source sql.NullString
	)
	if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Category, &kw, &source, &e.IsActive, &e.CreatedAt); err != nil {
		return e, fmt.Errorf("scan faq: %w", err)
	}
	e.Source = source.String
	if kw.Valid && kw.String != "" {
		if err := json.Unmarshal([]byte(kw.String), &e.Keywords); err != nil {
			return e, fmt.Errorf("decode keywords for faq %d: %w", e.ID, err)
		}
	}
	return e, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
