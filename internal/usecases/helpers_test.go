package usecases

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"supportbot/internal/entities"
	"supportbot/internal/infrastructure"
	"supportbot/internal/llm"
	"supportbot/internal/repository"
	"supportbot/internal/routing"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	ctx := context.Background()
	client, err := infrastructure.NewSQLiteClient(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(client.Close)
	require.NoError(t, client.Migrate(ctx))
	return client.Store
}

type MockRouter struct {
	RouteFunc func(ctx context.Context, req routing.Request, entries []entities.FAQEntry) (routing.Result, error)
	mu        sync.Mutex
	requests  []routing.Request
}

func (m *MockRouter) Route(ctx context.Context, req routing.Request, entries []entities.FAQEntry) (routing.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.RouteFunc != nil {
		return m.RouteFunc(ctx, req, entries)
	}
	return routing.Result{}, nil
}

type MockPublisher struct {
	PublishFunc func(ctx context.Context, rec entities.EscalationRecord) error
	mu          sync.Mutex
	published   []entities.EscalationRecord
}

func (m *MockPublisher) PublishEscalation(ctx context.Context, rec entities.EscalationRecord) error {
	m.mu.Lock()
	m.published = append(m.published, rec)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, rec)
	}
	return nil
}

func (m *MockPublisher) Close() error { return nil }

type MockInsights struct {
	SummarizeFunc   func(ctx context.Context, turns []entities.ChatTurn) (string, error)
	NextActionsFunc func(ctx context.Context, turns []entities.ChatTurn) (llm.NextActions, error)
}

func (m *MockInsights) Summarize(ctx context.Context, turns []entities.ChatTurn) (string, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, turns)
	}
	return "", nil
}

func (m *MockInsights) SuggestNextActions(ctx context.Context, turns []entities.ChatTurn) (llm.NextActions, error) {
	if m.NextActionsFunc != nil {
		return m.NextActionsFunc(ctx, turns)
	}
	return llm.NextActions{}, nil
}

type staticCatalog []entities.FAQEntry

func (c staticCatalog) Entries() []entities.FAQEntry { return c }
