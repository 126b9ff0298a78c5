package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"supportbot/internal/entities"
)

// ChatRepository persists sessions and their turns.
type ChatRepository struct {
	db *Store
}

func NewChatRepository(db *Store) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) CreateSession(ctx context.Context, s *entities.Session) error {
	now := time.Now().UTC()
	if s.Status == "" {
		s.Status = entities.SessionActive
	}
	s.CreatedAt, s.UpdatedAt = now, now
	_, err := r.db.exec(ctx, `
		INSERT INTO sessions (id, customer_id, status, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.CustomerID, string(s.Status), s.Summary, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *ChatRepository) GetSession(ctx context.Context, id string) (*entities.Session, error) {
	var (
		s       entities.Session
		status  string
		summary sql.NullString
	)
	err := r.db.queryRow(ctx, `
		SELECT id, customer_id, status, summary, created_at, updated_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.CustomerID, &status, &summary, &s.CreatedAt, &s.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.Status = entities.SessionStatus(status)
	s.Summary = summary.String
	return &s, nil
}

func (r *ChatRepository) UpdateSessionStatus(ctx context.Context, id string, status entities.SessionStatus) error {
	return r.updateSession(ctx, "status", string(status), id)
}

func (r *ChatRepository) UpdateSessionSummary(ctx context.Context, id, summary string) error {
	return r.updateSession(ctx, "summary", summary, id)
}

func (r *ChatRepository) updateSession(ctx context.Context, column, value, id string) error {
	res, err := r.db.exec(ctx, "UPDATE sessions SET "+column+" = ?, updated_at = ? WHERE id = ?", value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update session %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendTurn stores one message and fills in its ID and timestamp.
func (r *ChatRepository) AppendTurn(ctx context.Context, t *entities.ChatTurn) error {
	ids, err := json.Marshal(nonNil(t.RelevantFAQIDs))
	if err != nil {
		return fmt.Errorf("encode faq ids: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	err = r.db.queryRow(ctx, `
		INSERT INTO messages (session_id, customer_id, sender, content, response_type, confidence, relevant_faq_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		t.SessionID, t.CustomerID, string(t.Sender), t.Content, string(t.ResponseType), t.Confidence, string(ids), t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

const turnColumns = "id, session_id, customer_id, sender, content, response_type, confidence, relevant_faq_ids, created_at"

// ListTurns returns a session's turns oldest first. A positive limit keeps
// only the most recent turns.
func (r *ChatRepository) ListTurns(ctx context.Context, sessionID string, limit int) ([]entities.ChatTurn, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.query(ctx, "SELECT "+turnColumns+" FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?", sessionID, limit)
	} else {
		rows, err = r.db.query(ctx, "SELECT "+turnColumns+" FROM messages WHERE session_id = ? ORDER BY id", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var out []entities.ChatTurn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if limit > 0 {
		slices.Reverse(out)
	}
	return out, nil
}

// FirstTurn returns the opening turn of a session.
func (r *ChatRepository) FirstTurn(ctx context.Context, sessionID string) (*entities.ChatTurn, error) {
	rows, err := r.db.query(ctx, "SELECT "+turnColumns+" FROM messages WHERE session_id = ? ORDER BY id LIMIT 1", sessionID)
	if err != nil {
		return nil, fmt.Errorf("first turn: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	t, err := scanTurn(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTurn(rows *sql.Rows) (entities.ChatTurn, error) {
	var (
		t        entities.ChatTurn
		sender   string
		respType sql.NullString
		ids      sql.NullString
	)
	if err := rows.Scan(&t.ID, &t.SessionID, &t.CustomerID, &sender, &t.Content, &respType, &t.Confidence, &ids, &t.CreatedAt); err != nil {
		return t, fmt.Errorf("scan turn: %w", err)
	}
	t.Sender = entities.Sender(sender)
	t.ResponseType = entities.ResponseType(respType.String)
	if ids.Valid && ids.String != "" {
		if err := json.Unmarshal([]byte(ids.String), &t.RelevantFAQIDs); err != nil {
			return t, fmt.Errorf("decode faq ids: %w", err)
		}
	}
	return t, nil
}
