package usecases

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportbot/internal/entities"
	"supportbot/internal/faq"
	"supportbot/internal/infrastructure"
	"supportbot/internal/repository"
)

func newFAQFixture(t *testing.T) (*FAQUsecase, *faq.Catalog, *repository.EscalationRepository) {
	store := newTestStore(t)
	faqs := repository.NewFAQRepository(store)
	escalations := repository.NewEscalationRepository(store)
	catalog := faq.NewCatalog(faqs, zerolog.Nop())
	return NewFAQUsecase(faqs, escalations, catalog, zerolog.Nop()), catalog, escalations
}

func TestFAQUsecase_AddReloadsCatalog(t *testing.T) {
	ctx := context.Background()
	u, catalog, _ := newFAQFixture(t)

	e, err := u.Add(ctx, entities.FAQEntry{Question: " How do I cancel my subscription? ", Answer: "From the billing page."})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, faq.DefaultCategory, e.Category)
	assert.Equal(t, "manual", e.Source)
	assert.Contains(t, e.Keywords, "cancel")
	assert.Equal(t, 1, catalog.Len())

	_, err = u.Add(ctx, entities.FAQEntry{Question: "no answer"})
	assert.ErrorIs(t, err, ErrInvalidFAQ)
}

func TestFAQUsecase_ImportTextReplaces(t *testing.T) {
	ctx := context.Background()
	u, catalog, _ := newFAQFixture(t)

	_, err := u.Add(ctx, entities.FAQEntry{Question: "Old question?", Answer: "Old answer."})
	require.NoError(t, err)

	doc := "## Billing\nQ: What payment methods do you accept?\nA: Cards and PayPal.\n\nQ: Can I get an invoice?\nA: Yes, from your account page.\n"
	res, err := u.Import(ctx, "faq.txt", []byte(doc), true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Parsed)
	assert.Equal(t, 2, res.Stored)
	assert.True(t, res.Replaced)

	entries := catalog.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Billing", entries[0].Category)
	assert.Equal(t, "faq.txt", entries[0].Source)
}

func TestFAQUsecase_ImportCSVAppends(t *testing.T) {
	ctx := context.Background()
	u, catalog, _ := newFAQFixture(t)

	_, err := u.Add(ctx, entities.FAQEntry{Question: "Existing?", Answer: "Yes."})
	require.NoError(t, err)

	res, err := u.Import(ctx, "faq.csv", []byte("question,answer\nWhere are you?,Online.\n"), false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stored)
	assert.Equal(t, 2, catalog.Len())
}

func TestFAQUsecase_ImportErrors(t *testing.T) {
	ctx := context.Background()
	u, _, _ := newFAQFixture(t)

	_, err := u.Import(ctx, "faq.docx", []byte("x"), true)
	assert.ErrorIs(t, err, infrastructure.ErrUnsupportedDocument)

	_, err = u.Import(ctx, "faq.txt", []byte("just some prose without questions"), true)
	assert.ErrorIs(t, err, ErrNoFAQsFound)
}

func TestFAQUsecase_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	u, catalog, _ := newFAQFixture(t)

	a, err := u.Add(ctx, entities.FAQEntry{Question: "A?", Answer: "a"})
	require.NoError(t, err)
	_, err = u.Add(ctx, entities.FAQEntry{Question: "B?", Answer: "b"})
	require.NoError(t, err)

	require.NoError(t, u.Delete(ctx, a.ID))
	assert.Equal(t, 1, catalog.Len())
	assert.ErrorIs(t, u.Delete(ctx, a.ID), repository.ErrNotFound)

	all, err := u.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := u.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 0, catalog.Len())
}

func TestFAQUsecase_Escalations(t *testing.T) {
	ctx := context.Background()
	u, _, escalations := newFAQFixture(t)
	require.NoError(t, escalations.Create(ctx, &entities.EscalationRecord{ID: "ticket-1", SessionID: "s", CustomerID: "c", Reason: "off_topic", InitialQuery: "q"}))

	list, err := u.ListEscalations(ctx, entities.EscalationPending, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = u.ListEscalations(ctx, "bogus", 0)
	assert.ErrorIs(t, err, ErrInvalidState)

	rec, err := u.UpdateEscalation(ctx, "ticket-1", entities.EscalationInProgress, " alice ")
	require.NoError(t, err)
	assert.Equal(t, entities.EscalationInProgress, rec.Status)
	assert.Equal(t, "alice", rec.AssignedTo)

	_, err = u.UpdateEscalation(ctx, "ticket-1", "done", "")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = u.UpdateEscalation(ctx, "nope", entities.EscalationResolved, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
