package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportbot/internal/entities"
)

type MockCompleter struct {
	CompleteFunc func(ctx context.Context, req CompletionRequest) (string, error)
	requests     []CompletionRequest
}

func (m *MockCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

func reply(s string) func(context.Context, CompletionRequest) (string, error) {
	return func(context.Context, CompletionRequest) (string, error) { return s, nil }
}

func TestParseRelevance(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		related bool
		conf    float64
		cat     string
		wantErr bool
	}{
		{"plain", `{"is_related": true, "category": "billing", "confidence": 0.8, "reason": "invoice"}`, true, 0.8, "billing", false},
		{"wrapped in prose", "Sure!\n```json\n{\"is_related\": false, \"category\": \"other\", \"confidence\": 0.9}\n```", false, 0.9, "other", false},
		{"clamped", `{"is_related": true, "confidence": 1.7}`, true, 1, "", false},
		{"missing confidence", `{"is_related": true}`, false, 0, "", true},
		{"missing is_related", `{"confidence": 0.4}`, false, 0, "", true},
		{"no json", "I think it is related.", false, 0, "", true},
		{"broken json", `{"is_related": tru`, false, 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, err := ParseRelevance(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.related, rel.IsRelated)
			assert.InDelta(t, tt.conf, rel.Confidence, 1e-9)
			assert.Equal(t, tt.cat, rel.Category)
		})
	}
}

func TestAssistant_ClassifyBuildsBoundedPrompt(t *testing.T) {
	m := &MockCompleter{CompleteFunc: reply(`{"is_related": true, "category": "accounts", "confidence": 0.75}`)}
	a := NewAssistant(m, AssistantConfig{MaxContextMessages: 2}, zerolog.Nop())

	rel, err := a.Classify(context.Background(), "Can I use two accounts?", turns(6))
	require.NoError(t, err)
	assert.True(t, rel.IsRelated)
	assert.InDelta(t, 0.75, rel.Confidence, 1e-9)

	require.Len(t, m.requests, 1)
	req := m.requests[0]
	assert.Equal(t, classifyInstruction, req.Instruction)
	assert.Contains(t, req.Input, "Customer Question: Can I use two accounts?")
	assert.Equal(t, "Previous Conversation:\nCustomer: m0\n...\nCustomer: m4\nSupport: m5", req.Context)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, 150, req.MaxTokens)
}

func TestAssistant_ClassifyPropagatesFailures(t *testing.T) {
	m := &MockCompleter{CompleteFunc: func(context.Context, CompletionRequest) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}}
	_, err := NewAssistant(m, AssistantConfig{}, zerolog.Nop()).Classify(context.Background(), "hi", nil)
	require.Error(t, err)

	m.CompleteFunc = reply("not json")
	_, err = NewAssistant(m, AssistantConfig{}, zerolog.Nop()).Classify(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAssistant_GenerateIncludesFAQContext(t *testing.T) {
	m := &MockCompleter{CompleteFunc: reply("  You can have one account per email.  ")}
	entries := []entities.FAQEntry{
		{Question: "How do I reset my password?", Answer: "Use the link.", IsActive: true},
		{Question: "Old entry", Answer: "Gone", IsActive: false},
	}
	text, err := NewAssistant(m, AssistantConfig{}, zerolog.Nop()).Generate(context.Background(), "Can I use two accounts?", nil, entries)
	require.NoError(t, err)
	assert.Equal(t, "You can have one account per email.", text)

	req := m.requests[0]
	assert.Contains(t, req.Context, "Previous Conversation:\nNo previous conversation")
	assert.Contains(t, req.Context, "Q: How do I reset my password?\nA: Use the link.")
	assert.NotContains(t, req.Context, "Old entry")
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 500, req.MaxTokens)
}

func TestAssistant_GenerateAppliesTimeout(t *testing.T) {
	m := &MockCompleter{CompleteFunc: func(ctx context.Context, _ CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	a := NewAssistant(m, AssistantConfig{Timeout: 20 * time.Millisecond}, zerolog.Nop())
	_, err := a.Generate(context.Background(), "q", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAssistant_SuggestNextActions(t *testing.T) {
	m := &MockCompleter{CompleteFunc: reply(`{"actions": ["Issue refund", "Follow up"], "recommend_escalation": true}`)}
	got, err := NewAssistant(m, AssistantConfig{}, zerolog.Nop()).SuggestNextActions(context.Background(), turns(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"Issue refund", "Follow up"}, got.Actions)
	assert.True(t, got.RecommendEscalation)
}

func TestAssistant_SummarizeEmptyConversation(t *testing.T) {
	m := &MockCompleter{}
	got, err := NewAssistant(m, AssistantConfig{}, zerolog.Nop()).Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "No messages in this conversation.", got)
	assert.Empty(t, m.requests)
}

func TestNewAssistant_TemperatureDefaults(t *testing.T) {
	m := &MockCompleter{CompleteFunc: reply(`{"is_related": true, "confidence": 0.9}`)}
	a := NewAssistant(m, AssistantConfig{Timeout: time.Second}, zerolog.Nop())
	_, err := a.Classify(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAssistantConfig().ClassifyTemperature, m.requests[0].Temperature)

	m = &MockCompleter{CompleteFunc: reply("answer")}
	a = NewAssistant(m, AssistantConfig{GenerateTemperature: 0.2}, zerolog.Nop())
	_, err = a.Generate(context.Background(), "hi", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.2, m.requests[0].Temperature)
}
