package repository

import (
	"context"
	"fmt"
	"time"

	"supportbot/internal/entities"
)

// MetricsRepository keeps one aggregate row per session.
type MetricsRepository struct {
	db *Store
}

func NewMetricsRepository(db *Store) *MetricsRepository {
	return &MetricsRepository{db: db}
}

func (r *MetricsRepository) Upsert(ctx context.Context, m *entities.ConversationMetrics) error {
	m.UpdatedAt = time.Now().UTC()
	_, err := r.db.exec(ctx, `
		INSERT INTO conversation_metrics
			(session_id, total_messages, user_messages, bot_messages, faq_answers, ai_answers,
			 average_confidence, duration_ms, escalated, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			total_messages = excluded.total_messages,
			user_messages = excluded.user_messages,
			bot_messages = excluded.bot_messages,
			faq_answers = excluded.faq_answers,
			ai_answers = excluded.ai_answers,
			average_confidence = excluded.average_confidence,
			duration_ms = excluded.duration_ms,
			escalated = excluded.escalated,
			updated_at = excluded.updated_at`,
		m.SessionID, m.TotalMessages, m.UserMessages, m.BotMessages, m.FAQAnswers, m.AIAnswers,
		m.AverageConfidence, m.Duration.Milliseconds(), m.Escalated, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert conversation metrics: %w", err)
	}
	return nil
}

func (r *MetricsRepository) Get(ctx context.Context, sessionID string) (*entities.ConversationMetrics, error) {
	var (
		m          entities.ConversationMetrics
		durationMS int64
	)
	err := r.db.queryRow(ctx, `
		SELECT session_id, total_messages, user_messages, bot_messages, faq_answers, ai_answers,
		       average_confidence, duration_ms, escalated, updated_at
		FROM conversation_metrics WHERE session_id = ?`, sessionID,
	).Scan(&m.SessionID, &m.TotalMessages, &m.UserMessages, &m.BotMessages, &m.FAQAnswers, &m.AIAnswers,
		&m.AverageConfidence, &durationMS, &m.Escalated, &m.UpdatedAt)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation metrics: %w", err)
	}
	m.Duration = time.Duration(durationMS) * time.Millisecond
	return &m, nil
}
