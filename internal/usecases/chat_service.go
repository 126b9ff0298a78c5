package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"supportbot/internal/entities"
	"supportbot/internal/infrastructure"
	"supportbot/internal/interfaces"
	"supportbot/internal/llm"
	"supportbot/internal/observability"
	"supportbot/internal/repository"
	"supportbot/internal/routing"
)

var ErrMessageTooLong = errors.New("message too long")

// RateLimitError is returned when a customer sends messages too quickly.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Millisecond))
}

type ChatConfig struct {
	MaxMessageLength   int
	MaxContextMessages int
	ContextMessages    int // turns copied into an escalation ticket
	UrgentKeywords     []string
	EventsDriver       string
}

// ChatService runs one customer message through the full pipeline: session
// bookkeeping, routing, escalation and metrics.
type ChatService struct {
	chats       ChatStore
	escalations EscalationStore
	metrics     MetricsStore
	catalog     interface{ Entries() []entities.FAQEntry }
	router      MessageRouter
	publisher   interfaces.EscalationPublisher
	locks       *infrastructure.SessionManager
	limiter     *infrastructure.MessageRateLimiter
	cfg         ChatConfig
	log         zerolog.Logger
	now         func() time.Time
}

type ChatServiceDeps struct {
	Chats       ChatStore
	Escalations EscalationStore
	Metrics     MetricsStore
	Catalog     interface{ Entries() []entities.FAQEntry }
	Router      MessageRouter
	Publisher   interfaces.EscalationPublisher
	Locks       *infrastructure.SessionManager
	Limiter     *infrastructure.MessageRateLimiter // optional
}

func NewChatService(deps ChatServiceDeps, cfg ChatConfig, logger zerolog.Logger) *ChatService {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 5000
	}
	if cfg.MaxContextMessages <= 0 {
		cfg.MaxContextMessages = 10
	}
	if cfg.ContextMessages <= 0 {
		cfg.ContextMessages = 5
	}
	locks := deps.Locks
	if locks == nil {
		locks = infrastructure.NewSessionManager()
	}
	return &ChatService{
		chats:       deps.Chats,
		escalations: deps.Escalations,
		metrics:     deps.Metrics,
		catalog:     deps.Catalog,
		router:      deps.Router,
		publisher:   deps.Publisher,
		locks:       locks,
		limiter:     deps.Limiter,
		cfg:         cfg,
		log:         logger.With().Str("component", "chat_service").Logger(),
		now:         time.Now,
	}
}

// HandleMessage implements interfaces.ChatHandler.
func (s *ChatService) HandleMessage(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, routing.ErrEmptyMessage
	}
	if len([]rune(msg)) > s.cfg.MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.CustomerID == "" {
		req.CustomerID = "anonymous"
	}

	if s.limiter != nil && !s.limiter.Allow(req.CustomerID) {
		return nil, &RateLimitError{RetryAfter: s.limiter.WaitTime(req.CustomerID)}
	}

	unlock := s.locks.Lock(req.SessionID)
	defer unlock()

	if err := s.ensureSession(ctx, req.SessionID, req.CustomerID); err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	userTurn := &entities.ChatTurn{
		SessionID:  req.SessionID,
		CustomerID: req.CustomerID,
		Sender:     entities.SenderUser,
		Content:    msg,
	}
	if err := s.chats.AppendTurn(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	res, err := s.router.Route(ctx, routing.Request{
		Message:    msg,
		SessionID:  req.SessionID,
		CustomerID: req.CustomerID,
		History:    history,
	}, s.catalog.Entries())
	if err != nil {
		return nil, err
	}

	resp := &entities.ChatResponse{
		SessionID:          req.SessionID,
		UserMessage:        msg,
		BotResponse:        res.ResponseText,
		ResponseType:       res.ResponseType,
		ConfidenceScore:    res.Confidence,
		RequiresEscalation: res.RequiresEscalation,
	}
	if res.MatchedFAQID != 0 {
		resp.RelevantFAQIDs = []int64{res.MatchedFAQID}
	}

	if res.RequiresEscalation {
		rec, err := s.escalate(ctx, req, msg, res, append(history, *userTurn))
		if err != nil {
			return nil, err
		}
		resp.EscalationID = rec.ID
		resp.BotResponse = fmt.Sprintf("%s\n\nReference: %s", res.ResponseText, rec.ID)
	}

	botTurn := &entities.ChatTurn{
		SessionID:      req.SessionID,
		CustomerID:     req.CustomerID,
		Sender:         entities.SenderBot,
		Content:        resp.BotResponse,
		ResponseType:   res.ResponseType,
		Confidence:     res.Confidence,
		RelevantFAQIDs: resp.RelevantFAQIDs,
	}
	if err := s.chats.AppendTurn(ctx, botTurn); err != nil {
		return nil, fmt.Errorf("store bot message: %w", err)
	}
	resp.Timestamp = botTurn.CreatedAt
	if resp.Timestamp.IsZero() {
		resp.Timestamp = s.now().UTC()
	}

	s.refreshMetrics(ctx, req.SessionID)
	return resp, nil
}

// loadHistory returns the opening turn plus the most recent turns. One turn
// past the window is read so prompt building can tell whether turns were
// skipped.
func (s *ChatService) loadHistory(ctx context.Context, sessionID string) ([]entities.ChatTurn, error) {
	window := s.cfg.MaxContextMessages + 1
	history, err := s.chats.ListTurns(ctx, sessionID, window)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(history) < window {
		return history, nil
	}
	first, err := s.chats.FirstTurn(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load first turn: %w", err)
	}
	if first.ID != history[0].ID {
		history = append([]entities.ChatTurn{*first}, history...)
	}
	return history, nil
}

func (s *ChatService) ensureSession(ctx context.Context, id, customerID string) error {
	_, err := s.chats.GetSession(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.chats.CreateSession(ctx, &entities.Session{ID: id, CustomerID: customerID}); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *ChatService) escalate(ctx context.Context, req entities.ChatRequest, msg string, res routing.Result, turns []entities.ChatTurn) (*entities.EscalationRecord, error) {
	priority := res.Priority
	if priority == "" {
		priority = entities.PriorityNormal
	}
	if IsUrgent(msg, s.cfg.UrgentKeywords) && priorityRank(priority) < priorityRank(entities.PriorityHigh) {
		priority = entities.PriorityHigh
	}

	rec := &entities.EscalationRecord{
		ID:                  NewTicketID(),
		SessionID:           req.SessionID,
		CustomerID:          req.CustomerID,
		Reason:              string(res.EscalationReason),
		InitialQuery:        msg,
		ConversationContext: llm.BuildHistoryContext(turns, s.cfg.ContextMessages, 500),
		Priority:            priority,
		Status:              entities.EscalationPending,
	}
	if err := s.escalations.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create escalation: %w", err)
	}
	observability.RecordEscalation(string(priority))

	if err := s.chats.UpdateSessionStatus(ctx, req.SessionID, entities.SessionEscalated); err != nil {
		s.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("mark session escalated")
	}

	if s.publisher != nil {
		if err := s.publisher.PublishEscalation(ctx, *rec); err != nil {
			observability.RecordPublishFailure(s.cfg.EventsDriver)
			s.log.Error().Err(err).Str("escalation_id", rec.ID).Msg("publish escalation")
		}
	}

	s.log.Info().
		Str("escalation_id", rec.ID).
		Str("session_id", rec.SessionID).
		Str("priority", string(rec.Priority)).
		Str("reason", rec.Reason).
		Msg("conversation escalated")
	return rec, nil
}

func (s *ChatService) refreshMetrics(ctx context.Context, sessionID string) {
	if s.metrics == nil {
		return
	}
	turns, err := s.chats.ListTurns(ctx, sessionID, 0)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("load turns for metrics")
		return
	}
	m := ComputeMetrics(sessionID, turns)
	if err := s.metrics.Upsert(ctx, &m); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("store conversation metrics")
	}
}

// NewTicketID returns an escalation id like "ticket-1a2b3c4d".
func NewTicketID() string {
	return "ticket-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// IsUrgent reports whether msg contains any of the keywords, ignoring case.
func IsUrgent(msg string, keywords []string) bool {
	lower := strings.ToLower(msg)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func priorityRank(p entities.Priority) int {
	switch p {
	case entities.PriorityLow:
		return 0
	case entities.PriorityNormal:
		return 1
	case entities.PriorityHigh:
		return 2
	case entities.PriorityCritical:
		return 3
	}
	return 1
}

// ComputeMetrics aggregates a session's turns. Average confidence covers bot
// turns only.
func ComputeMetrics(sessionID string, turns []entities.ChatTurn) entities.ConversationMetrics {
	m := entities.ConversationMetrics{SessionID: sessionID, TotalMessages: len(turns)}
	var confSum float64
	for _, t := range turns {
		switch t.Sender {
		case entities.SenderUser:
			m.UserMessages++
		case entities.SenderBot:
			m.BotMessages++
			confSum += t.Confidence
			switch t.ResponseType {
			case entities.ResponseFAQ:
				m.FAQAnswers++
			case entities.ResponseAIGenerated:
				m.AIAnswers++
			case entities.ResponseEscalated:
				m.Escalated = true
			}
		}
	}
	if m.BotMessages > 0 {
		m.AverageConfidence = confSum / float64(m.BotMessages)
	}
	if len(turns) > 1 {
		m.Duration = turns[len(turns)-1].CreatedAt.Sub(turns[0].CreatedAt)
	}
	return m
}
