package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportbot/internal/entities"
)

type MockAssistant struct {
	ClassifyFunc  func(ctx context.Context, message string, history []entities.ChatTurn) (Relevance, error)
	GenerateFunc  func(ctx context.Context, message string, history []entities.ChatTurn, entries []entities.FAQEntry) (string, error)
	classifyCalls int
	generateCalls int
}

func (m *MockAssistant) Classify(ctx context.Context, message string, history []entities.ChatTurn) (Relevance, error) {
	m.classifyCalls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, message, history)
	}
	return Relevance{}, nil
}

func (m *MockAssistant) Generate(ctx context.Context, message string, history []entities.ChatTurn, entries []entities.FAQEntry) (string, error) {
	m.generateCalls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, message, history, entries)
	}
	return "", nil
}

func related(conf float64) func(context.Context, string, []entities.ChatTurn) (Relevance, error) {
	return func(context.Context, string, []entities.ChatTurn) (Relevance, error) {
		return Relevance{IsRelated: true, Confidence: conf, Category: "accounts"}, nil
	}
}

func generated(text string) func(context.Context, string, []entities.ChatTurn, []entities.FAQEntry) (string, error) {
	return func(context.Context, string, []entities.ChatTurn, []entities.FAQEntry) (string, error) {
		return text, nil
	}
}

func faqTable() []entities.FAQEntry {
	return []entities.FAQEntry{
		{ID: 7, Question: "How do I reset my password?", Answer: "Use the reset link on the login page.", Category: "Accounts", Keywords: []string{"password", "login"}, IsActive: true},
		{ID: 8, Question: "What payment methods do you accept?", Answer: "Cards and PayPal.", Category: "Billing", Keywords: []string{"payment"}, IsActive: true},
	}
}

func newRouter(a Assistant) *Router {
	return NewRouter(a, DefaultConfig(), zerolog.Nop())
}

func TestRoute_ExactFAQQuestion(t *testing.T) {
	a := &MockAssistant{}
	res, err := newRouter(a).Route(context.Background(), Request{Message: "How do I reset my password?"}, faqTable())
	require.NoError(t, err)

	assert.Equal(t, entities.ResponseFAQ, res.ResponseType)
	assert.Equal(t, "Use the reset link on the login page.", res.ResponseText)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, int64(7), res.MatchedFAQID)
	assert.False(t, res.RequiresEscalation)
	assert.Zero(t, a.classifyCalls)
}

func TestRoute_FAQConfidenceEqualsOverlapScore(t *testing.T) {
	// tokens: forgot, login, password -> two of three hit entry 7
	res, err := newRouter(&MockAssistant{}).Route(context.Background(), Request{Message: "forgot login password"}, faqTable())
	require.NoError(t, err)
	assert.Equal(t, entities.ResponseFAQ, res.ResponseType)
	assert.InDelta(t, 2.0/3.0, res.Confidence, 1e-9)
}

func TestRoute_RelatedQuestionIsGenerated(t *testing.T) {
	a := &MockAssistant{ClassifyFunc: related(0.8), GenerateFunc: generated("  Yes, up to two accounts per email.  ")}
	res, err := newRouter(a).Route(context.Background(), Request{Message: "Can I use two accounts?"}, faqTable())
	require.NoError(t, err)

	assert.Equal(t, entities.ResponseAIGenerated, res.ResponseType)
	assert.Equal(t, "  Yes, up to two accounts per email.  ", res.ResponseText)
	assert.False(t, res.RequiresEscalation)
	assert.Equal(t, 1, a.classifyCalls)
	assert.Equal(t, 1, a.generateCalls)
}

func TestRoute_UnrelatedQuestionEscalates(t *testing.T) {
	a := &MockAssistant{ClassifyFunc: func(context.Context, string, []entities.ChatTurn) (Relevance, error) {
		return Relevance{IsRelated: false, Confidence: 0.9}, nil
	}}
	res, err := newRouter(a).Route(context.Background(), Request{Message: "Tell me a joke"}, faqTable())
	require.NoError(t, err)

	assert.Equal(t, entities.ResponseEscalated, res.ResponseType)
	assert.True(t, res.RequiresEscalation)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.Equal(t, ReasonOffTopic, res.EscalationReason)
	assert.Equal(t, entities.PriorityLow, res.Priority)
	assert.Contains(t, res.ResponseText, "support@example.com")
	assert.Equal(t, 1, a.classifyCalls)
	assert.Zero(t, a.generateCalls)
}

func TestRoute_LowRelatednessEscalates(t *testing.T) {
	a := &MockAssistant{ClassifyFunc: related(0.59)}
	res, err := newRouter(a).Route(context.Background(), Request{Message: "Can I use two accounts?"}, faqTable())
	require.NoError(t, err)

	assert.Equal(t, entities.ResponseEscalated, res.ResponseType)
	assert.True(t, res.RequiresEscalation)
	assert.InDelta(t, 0.41, res.Confidence, 1e-9)
	assert.Zero(t, a.generateCalls)
}

func TestRoute_GenerationFailuresEscalate(t *testing.T) {
	failures := map[string]func(context.Context, string, []entities.ChatTurn, []entities.FAQEntry) (string, error){
		"timeout": func(context.Context, string, []entities.ChatTurn, []entities.FAQEntry) (string, error) {
			return "", context.DeadlineExceeded
		},
		"malformed": func(context.Context, string, []entities.ChatTurn, []entities.FAQEntry) (string, error) {
			return "", errors.New("unparseable completion")
		},
		"blank": generated("   "),
	}
	for name, gen := range failures {
		t.Run(name, func(t *testing.T) {
			a := &MockAssistant{ClassifyFunc: related(0.95), GenerateFunc: gen}
			res, err := newRouter(a).Route(context.Background(), Request{Message: "Can I use two accounts?"}, faqTable())
			require.NoError(t, err)

			assert.Equal(t, entities.ResponseEscalated, res.ResponseType)
			assert.True(t, res.RequiresEscalation)
			assert.Equal(t, FallbackMessage, res.ResponseText)
			assert.Equal(t, ReasonGenerationFailed, res.EscalationReason)
			assert.Equal(t, entities.PriorityNormal, res.Priority)
		})
	}
}

func TestRoute_ClassificationFailureEscalates(t *testing.T) {
	a := &MockAssistant{ClassifyFunc: func(context.Context, string, []entities.ChatTurn) (Relevance, error) {
		return Relevance{}, errors.New("connection refused")
	}}
	res, err := newRouter(a).Route(context.Background(), Request{Message: "Can I use two accounts?"}, faqTable())
	require.NoError(t, err)

	assert.Equal(t, entities.ResponseEscalated, res.ResponseType)
	assert.True(t, res.RequiresEscalation)
	assert.Equal(t, ReasonClassificationFailed, res.EscalationReason)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, 1, a.classifyCalls)
}

func TestRoute_EmptyMessageIsRejected(t *testing.T) {
	a := &MockAssistant{}
	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := newRouter(a).Route(context.Background(), Request{Message: msg}, faqTable())
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Zero(t, a.classifyCalls)
}

func TestRoute_ClassifierReceivesHistory(t *testing.T) {
	history := []entities.ChatTurn{
		{Sender: entities.SenderUser, Content: "hi"},
		{Sender: entities.SenderBot, Content: "hello, how can I help?"},
	}
	var got []entities.ChatTurn
	a := &MockAssistant{
		ClassifyFunc: func(_ context.Context, _ string, h []entities.ChatTurn) (Relevance, error) {
			got = h
			return Relevance{IsRelated: true, Confidence: 0.7}, nil
		},
		GenerateFunc: generated("answer"),
	}
	_, err := newRouter(a).Route(context.Background(), Request{Message: "Can I use two accounts?", History: history}, faqTable())
	require.NoError(t, err)
	assert.Equal(t, history, got)
}

func TestRoute_Idempotent(t *testing.T) {
	a := &MockAssistant{ClassifyFunc: related(0.8), GenerateFunc: generated("same answer")}
	r := newRouter(a)
	req := Request{Message: "Can I use two accounts?", SessionID: "session-1"}

	first, err := r.Route(context.Background(), req, faqTable())
	require.NoError(t, err)
	second, err := r.Route(context.Background(), req, faqTable())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRoute_ThresholdsAreConfigurable(t *testing.T) {
	a := &MockAssistant{ClassifyFunc: related(0.7), GenerateFunc: generated("generated")}
	r := NewRouter(a, Config{FAQThreshold: 0.9, RelatednessThreshold: 0.75}, zerolog.Nop())

	// 2/3 overlap is below the raised FAQ threshold, 0.7 is below relatedness
	res, err := r.Route(context.Background(), Request{Message: "forgot login password"}, faqTable())
	require.NoError(t, err)
	assert.Equal(t, entities.ResponseEscalated, res.ResponseType)
	assert.Equal(t, 1, a.classifyCalls)
}

func TestNewRouter_FillsDefaults(t *testing.T) {
	r := NewRouter(&MockAssistant{}, Config{}, zerolog.Nop())
	assert.Equal(t, DefaultConfig(), r.Config())
}
