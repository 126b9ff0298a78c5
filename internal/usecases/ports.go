package usecases

import (
	"context"

	"supportbot/internal/entities"
	"supportbot/internal/llm"
	"supportbot/internal/repository"
	"supportbot/internal/routing"
)

// Narrow views of the repositories so services can be tested with mocks.

type ChatStore interface {
	CreateSession(ctx context.Context, s *entities.Session) error
	GetSession(ctx context.Context, id string) (*entities.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status entities.SessionStatus) error
	UpdateSessionSummary(ctx context.Context, id, summary string) error
	AppendTurn(ctx context.Context, t *entities.ChatTurn) error
	ListTurns(ctx context.Context, sessionID string, limit int) ([]entities.ChatTurn, error)
	FirstTurn(ctx context.Context, sessionID string) (*entities.ChatTurn, error)
}

type EscalationStore interface {
	Create(ctx context.Context, e *entities.EscalationRecord) error
	GetByID(ctx context.Context, id string) (*entities.EscalationRecord, error)
	List(ctx context.Context, status entities.EscalationStatus, limit int) ([]entities.EscalationRecord, error)
	UpdateStatus(ctx context.Context, id string, status entities.EscalationStatus, assignedTo string) error
}

type MetricsStore interface {
	Upsert(ctx context.Context, m *entities.ConversationMetrics) error
	Get(ctx context.Context, sessionID string) (*entities.ConversationMetrics, error)
}

type FAQStore interface {
	Create(ctx context.Context, e *entities.FAQEntry) error
	ImportBatch(ctx context.Context, entries []entities.FAQEntry, replace bool) (int, error)
	ListActive(ctx context.Context) ([]entities.FAQEntry, error)
	ListAll(ctx context.Context) ([]entities.FAQEntry, error)
	Deactivate(ctx context.Context, id int64) error
	DeactivateAll(ctx context.Context) (int64, error)
	Categories(ctx context.Context) ([]repository.CategoryCount, error)
}

// MessageRouter decides how one message is answered.
type MessageRouter interface {
	Route(ctx context.Context, req routing.Request, entries []entities.FAQEntry) (routing.Result, error)
}

// Insights produces conversation-level LLM output.
type Insights interface {
	Summarize(ctx context.Context, turns []entities.ChatTurn) (string, error)
	SuggestNextActions(ctx context.Context, turns []entities.ChatTurn) (llm.NextActions, error)
}

var (
	_ ChatStore       = (*repository.ChatRepository)(nil)
	_ EscalationStore = (*repository.EscalationRepository)(nil)
	_ MetricsStore    = (*repository.MetricsRepository)(nil)
	_ FAQStore        = (*repository.FAQRepository)(nil)
	_ MessageRouter   = (*routing.Router)(nil)
	_ Insights        = (*llm.Assistant)(nil)
)
