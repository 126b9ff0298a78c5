package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportbot/internal/entities"
	"supportbot/internal/repository"
)

func faqs() []entities.FAQEntry {
	return []entities.FAQEntry{
		{Question: "How do I reset my password?", Answer: "Use the reset link.", Category: "Account", Keywords: []string{"password", "reset"}, IsActive: true},
		{Question: "What payment methods do you accept?", Answer: "Cards and PayPal.", Category: "Billing", IsActive: true},
	}
}

func TestFAQRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFAQRepository(newTestStore(t))

	e := faqs()[0]
	require.NoError(t, repo.Create(ctx, &e))
	assert.NotZero(t, e.ID)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "How do I reset my password?", got.Question)
	assert.Equal(t, []string{"password", "reset"}, got.Keywords)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFAQRepository_ImportBatchReplace(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFAQRepository(newTestStore(t))

	n, err := repo.ImportBatch(ctx, faqs(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	replacement := []entities.FAQEntry{{Question: "Where are you located?", Answer: "Online only.", IsActive: true, Source: "faq.pdf"}}
	n, err = repo.ImportBatch(ctx, replacement, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Where are you located?", active[0].Question)
	assert.Equal(t, "General", active[0].Category)
	assert.Equal(t, "faq.pdf", active[0].Source)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFAQRepository_ListActiveKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFAQRepository(newTestStore(t))
	_, err := repo.ImportBatch(ctx, faqs(), false)
	require.NoError(t, err)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Less(t, active[0].ID, active[1].ID)
	assert.Equal(t, "Account", active[0].Category)
}

func TestFAQRepository_Deactivate(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFAQRepository(newTestStore(t))
	entries := faqs()
	_, err := repo.ImportBatch(ctx, entries, false)
	require.NoError(t, err)

	require.NoError(t, repo.Deactivate(ctx, entries[0].ID))
	assert.ErrorIs(t, repo.Deactivate(ctx, entries[0].ID), repository.ErrNotFound)

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []repository.CategoryCount{{Category: "Billing", Count: 1}}, cats)

	n, err := repo.DeactivateAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
