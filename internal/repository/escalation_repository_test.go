package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportbot/internal/entities"
	"supportbot/internal/repository"
)

func TestEscalationRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewEscalationRepository(newTestStore(t))

	rec := &entities.EscalationRecord{
		ID:                  "ticket-00000001",
		SessionID:           "s-1",
		CustomerID:          "c-1",
		Reason:              "generation_failed",
		InitialQuery:        "my invoice is wrong",
		ConversationContext: "Customer: my invoice is wrong",
	}
	require.NoError(t, repo.Create(ctx, rec))
	assert.Equal(t, entities.EscalationPending, rec.Status)
	assert.Equal(t, entities.PriorityNormal, rec.Priority)

	require.NoError(t, repo.Create(ctx, &entities.EscalationRecord{
		ID: "ticket-00000002", SessionID: "s-2", CustomerID: "c-2",
		Reason: "off_topic", InitialQuery: "weather?", Priority: entities.PriorityLow,
	}))

	pending, err := repo.List(ctx, entities.EscalationPending, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, repo.UpdateStatus(ctx, "ticket-00000001", entities.EscalationInProgress, "alice"))
	got, err := repo.GetByID(ctx, "ticket-00000001")
	require.NoError(t, err)
	assert.Equal(t, entities.EscalationInProgress, got.Status)
	assert.Equal(t, "alice", got.AssignedTo)
	assert.Equal(t, "Customer: my invoice is wrong", got.ConversationContext)

	// empty assignee keeps the existing one
	require.NoError(t, repo.UpdateStatus(ctx, "ticket-00000001", entities.EscalationResolved, ""))
	got, err = repo.GetByID(ctx, "ticket-00000001")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.AssignedTo)

	resolved, err := repo.List(ctx, entities.EscalationResolved, 10)
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	all, err := repo.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "nope", entities.EscalationResolved, ""), repository.ErrNotFound)
	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
