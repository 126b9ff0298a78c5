package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"supportbot/internal/entities"
	"supportbot/internal/llm"
	"supportbot/internal/repository"
)

// SessionService exposes session history and LLM insights about it.
type SessionService struct {
	chats    ChatStore
	metrics  MetricsStore
	insights Insights
	log      zerolog.Logger
}

func NewSessionService(chats ChatStore, metrics MetricsStore, insights Insights, logger zerolog.Logger) *SessionService {
	return &SessionService{
		chats:    chats,
		metrics:  metrics,
		insights: insights,
		log:      logger.With().Str("component", "session_service").Logger(),
	}
}

func (s *SessionService) Create(ctx context.Context, customerID string) (*entities.Session, error) {
	if customerID == "" {
		customerID = "anonymous"
	}
	sess := &entities.Session{ID: uuid.NewString(), CustomerID: customerID, Status: entities.SessionActive}
	if err := s.chats.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*entities.Session, error) {
	return s.chats.GetSession(ctx, id)
}

// Messages returns the session's turns oldest first; limit <= 0 means all.
func (s *SessionService) Messages(ctx context.Context, id string, limit int) ([]entities.ChatTurn, error) {
	if _, err := s.chats.GetSession(ctx, id); err != nil {
		return nil, err
	}
	return s.chats.ListTurns(ctx, id, limit)
}

// Summary asks the model for a summary and stores it on the session.
func (s *SessionService) Summary(ctx context.Context, id string) (string, error) {
	turns, err := s.Messages(ctx, id, 0)
	if err != nil {
		return "", err
	}
	summary, err := s.insights.Summarize(ctx, turns)
	if err != nil {
		return "", fmt.Errorf("summarize session: %w", err)
	}
	if len(turns) > 0 {
		if err := s.chats.UpdateSessionSummary(ctx, id, summary); err != nil {
			s.log.Warn().Err(err).Str("session_id", id).Msg("store summary")
		}
	}
	return summary, nil
}

func (s *SessionService) NextActions(ctx context.Context, id string) (llm.NextActions, error) {
	turns, err := s.Messages(ctx, id, 0)
	if err != nil {
		return llm.NextActions{}, err
	}
	return s.insights.SuggestNextActions(ctx, turns)
}

// Metrics returns the stored aggregate, computing it from turns when the
// session has none yet.
func (s *SessionService) Metrics(ctx context.Context, id string) (*entities.ConversationMetrics, error) {
	m, err := s.metrics.Get(ctx, id)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	turns, err := s.Messages(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	computed := ComputeMetrics(id, turns)
	return &computed, nil
}
