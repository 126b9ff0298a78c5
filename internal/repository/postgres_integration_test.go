package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"supportbot/internal/config"
	"supportbot/internal/entities"
	"supportbot/internal/infrastructure"
	"supportbot/internal/repository"
)

// TestPostgres_Integration runs the same repository paths against a real
// Postgres through pgx.
func TestPostgres_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("supportbot_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DefaultConfig().Database.Postgres
	cfg.DSN = fmt.Sprintf("postgres://test:test@%s:%s/supportbot_test?sslmode=disable", host, port.Port())

	client, err := infrastructure.NewPostgresClient(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Migrate(ctx))
	require.NoError(t, client.Migrate(ctx))

	faqRepo := repository.NewFAQRepository(client.Store)
	n, err := faqRepo.ImportBatch(ctx, faqs(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	active, err := faqRepo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, []string{"password", "reset"}, active[0].Keywords)

	chatRepo := repository.NewChatRepository(client.Store)
	require.NoError(t, chatRepo.CreateSession(ctx, &entities.Session{ID: "s-1", CustomerID: "c-1"}))
	require.NoError(t, chatRepo.AppendTurn(ctx, &entities.ChatTurn{SessionID: "s-1", CustomerID: "c-1", Sender: entities.SenderUser, Content: "hi"}))
	turns, err := chatRepo.ListTurns(ctx, "s-1", 5)
	require.NoError(t, err)
	assert.Len(t, turns, 1)

	escRepo := repository.NewEscalationRepository(client.Store)
	require.NoError(t, escRepo.Create(ctx, &entities.EscalationRecord{ID: "ticket-1", SessionID: "s-1", CustomerID: "c-1", Reason: "off_topic", InitialQuery: "hi"}))
	require.NoError(t, escRepo.UpdateStatus(ctx, "ticket-1", entities.EscalationResolved, "bob"))

	metricsRepo := repository.NewMetricsRepository(client.Store)
	m := &entities.ConversationMetrics{SessionID: "s-1", TotalMessages: 1}
	require.NoError(t, metricsRepo.Upsert(ctx, m))
	m.TotalMessages = 2
	require.NoError(t, metricsRepo.Upsert(ctx, m))
	got, err := metricsRepo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalMessages)
}
