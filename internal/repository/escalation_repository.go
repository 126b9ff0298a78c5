package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"supportbot/internal/entities"
)

type EscalationRepository struct {
	db *Store
}

func NewEscalationRepository(db *Store) *EscalationRepository {
	return &EscalationRepository{db: db}
}

const escalationColumns = "id, session_id, customer_id, reason, initial_query, conversation_context, priority, status, assigned_to, created_at, updated_at"

func (r *EscalationRepository) Create(ctx context.Context, e *entities.EscalationRecord) error {
	now := time.Now().UTC()
	if e.Status == "" {
		e.Status = entities.EscalationPending
	}
	if e.Priority == "" {
		e.Priority = entities.PriorityNormal
	}
	e.CreatedAt, e.UpdatedAt = now, now
	_, err := r.db.exec(ctx, `
		INSERT INTO escalations (`+escalationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.CustomerID, e.Reason, e.InitialQuery, e.ConversationContext,
		string(e.Priority), string(e.Status), e.AssignedTo, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create escalation: %w", err)
	}
	return nil
}

func (r *EscalationRepository) GetByID(ctx context.Context, id string) (*entities.EscalationRecord, error) {
	rows, err := r.db.query(ctx, "SELECT "+escalationColumns+" FROM escalations WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get escalation: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	e, err := scanEscalation(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns newest tickets first, optionally filtered by status.
func (r *EscalationRepository) List(ctx context.Context, status entities.EscalationStatus, limit int) ([]entities.EscalationRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.query(ctx, "SELECT "+escalationColumns+" FROM escalations WHERE status = ? ORDER BY created_at DESC, id LIMIT ?", string(status), limit)
	} else {
		rows, err = r.db.query(ctx, "SELECT "+escalationColumns+" FROM escalations ORDER BY created_at DESC, id LIMIT ?", limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer rows.Close()

	var out []entities.EscalationRecord
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EscalationRepository) UpdateStatus(ctx context.Context, id string, status entities.EscalationStatus, assignedTo string) error {
	res, err := r.db.exec(ctx, `
		UPDATE escalations SET status = ?, assigned_to = COALESCE(NULLIF(?, ''), assigned_to), updated_at = ?
		WHERE id = ?`, string(status), assignedTo, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update escalation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEscalation(rows *sql.Rows) (entities.EscalationRecord, error) {
	var (
		e                entities.EscalationRecord
		priority, status string
		convo, assignee  sql.NullString
	)
	err := rows.Scan(&e.ID, &e.SessionID, &e.CustomerID, &e.Reason, &e.InitialQuery, &convo,
		&priority, &status, &assignee, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, fmt.Errorf("scan escalation: %w", err)
	}
	e.ConversationContext = convo.String
	e.AssignedTo = assignee.String
	e.Priority = entities.Priority(priority)
	e.Status = entities.EscalationStatus(status)
	return e, nil
}
