package usecases

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"supportbot/internal/entities"
	"supportbot/internal/faq"
	"supportbot/internal/infrastructure"
	"supportbot/internal/repository"
)

var (
	ErrInvalidFAQ   = errors.New("question and answer are required")
	ErrNoFAQsFound  = errors.New("no FAQ entries found in document")
	ErrInvalidState = errors.New("invalid escalation status")
)

// Reloader refreshes the in-memory FAQ snapshot after writes.
type Reloader interface {
	Reload(ctx context.Context) error
}

// FAQUsecase manages the FAQ table and the escalation queue for back-office
// users.
type FAQUsecase struct {
	faqs        FAQStore
	escalations EscalationStore
	catalog     Reloader
	log         zerolog.Logger
}

func NewFAQUsecase(faqs FAQStore, escalations EscalationStore, catalog Reloader, logger zerolog.Logger) *FAQUsecase {
	return &FAQUsecase{
		faqs:        faqs,
		escalations: escalations,
		catalog:     catalog,
		log:         logger.With().Str("component", "faq_admin").Logger(),
	}
}

func (u *FAQUsecase) List(ctx context.Context, includeInactive bool) ([]entities.FAQEntry, error) {
	if includeInactive {
		return u.faqs.ListAll(ctx)
	}
	return u.faqs.ListActive(ctx)
}

func (u *FAQUsecase) Categories(ctx context.Context) ([]repository.CategoryCount, error) {
	return u.faqs.Categories(ctx)
}

func (u *FAQUsecase) Add(ctx context.Context, e entities.FAQEntry) (*entities.FAQEntry, error) {
	e.Question = strings.TrimSpace(e.Question)
	e.Answer = strings.TrimSpace(e.Answer)
	if e.Question == "" || e.Answer == "" {
		return nil, ErrInvalidFAQ
	}
	if len([]rune(e.Question)) > faq.MaxQuestionLength || len([]rune(e.Answer)) > faq.MaxAnswerLength {
		return nil, fmt.Errorf("%w: question max %d, answer max %d characters", ErrInvalidFAQ, faq.MaxQuestionLength, faq.MaxAnswerLength)
	}
	if e.Category == "" {
		e.Category = faq.DefaultCategory
	}
	if len(e.Keywords) == 0 {
		e.Keywords = faq.ExtractKeywords(e.Question+" "+e.Answer, faq.MaxKeywords)
	}
	if e.Source == "" {
		e.Source = "manual"
	}
	e.ID = 0
	e.IsActive = true

	if err := u.faqs.Create(ctx, &e); err != nil {
		return nil, err
	}
	u.reload(ctx)
	return &e, nil
}

type ImportResult struct {
	Source   string `json:"source"`
	Parsed   int    `json:"faqs_parsed"`
	Stored   int    `json:"faqs_stored"`
	Replaced bool   `json:"replaced"`
}

// Import parses a PDF, text or CSV document and stores its entries. With
// replace set the previous active set is deactivated in the same transaction.
func (u *FAQUsecase) Import(ctx context.Context, filename string, data []byte, replace bool) (*ImportResult, error) {
	var (
		entries []entities.FAQEntry
		err     error
	)
	switch infrastructure.DocumentKind(filename) {
	case "csv":
		entries, err = faq.ParseCSV(bytes.NewReader(data), filename)
	case "pdf", "text":
		var text string
		text, err = infrastructure.ExtractDocumentText(ctx, filename, data)
		if err == nil {
			entries = faq.ParseDocument(text, filename)
		}
	default:
		err = fmt.Errorf("%w: %s", infrastructure.ErrUnsupportedDocument, filename)
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoFAQsFound
	}

	stored, err := u.faqs.ImportBatch(ctx, entries, replace)
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("source", filename).Int("parsed", len(entries)).Int("stored", stored).Bool("replace", replace).Msg("faq import")
	u.reload(ctx)
	return &ImportResult{Source: filename, Parsed: len(entries), Stored: stored, Replaced: replace}, nil
}

func (u *FAQUsecase) Delete(ctx context.Context, id int64) error {
	if err := u.faqs.Deactivate(ctx, id); err != nil {
		return err
	}
	u.reload(ctx)
	return nil
}

func (u *FAQUsecase) Clear(ctx context.Context) (int64, error) {
	n, err := u.faqs.DeactivateAll(ctx)
	if err != nil {
		return 0, err
	}
	u.reload(ctx)
	return n, nil
}

func (u *FAQUsecase) ListEscalations(ctx context.Context, status entities.EscalationStatus, limit int) ([]entities.EscalationRecord, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidState
	}
	return u.escalations.List(ctx, status, limit)
}

func (u *FAQUsecase) UpdateEscalation(ctx context.Context, id string, status entities.EscalationStatus, assignedTo string) (*entities.EscalationRecord, error) {
	if !status.Valid() {
		return nil, ErrInvalidState
	}
	if err := u.escalations.UpdateStatus(ctx, id, status, strings.TrimSpace(assignedTo)); err != nil {
		return nil, err
	}
	return u.escalations.GetByID(ctx, id)
}

func (u *FAQUsecase) reload(ctx context.Context) {
	if u.catalog == nil {
		return
	}
	if err := u.catalog.Reload(ctx); err != nil {
		u.log.Error().Err(err).Msg("reload faq catalog")
	}
}
