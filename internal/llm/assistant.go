package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"supportbot/internal/entities"
	"supportbot/internal/observability"
	"supportbot/internal/routing"
)

const (
	classifyInstruction = "You are an AI that classifies customer support questions. Respond ONLY with valid JSON."
	generateInstruction = "You are a professional customer support representative. " +
		"Provide helpful and accurate responses to customer inquiries."
	summarizeInstruction = "You summarize customer support conversations for the agent who picks them up next. " +
		"Be factual and brief."
	actionsInstruction = "You help customer support agents decide what to do next. Respond ONLY with valid JSON."

	noHistory = "No previous conversation"
)

type AssistantConfig struct {
	Timeout             time.Duration
	MaxContextMessages  int
	MaxTurnChars        int
	MaxFAQContext       int
	ClassifyTemperature float64
	ClassifyMaxTokens   int
	GenerateTemperature float64
	GenerateMaxTokens   int
}

func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		Timeout:             30 * time.Second,
		MaxContextMessages:  DefaultMaxContextMessages,
		MaxTurnChars:        DefaultMaxTurnChars,
		MaxFAQContext:       20,
		ClassifyTemperature: 0.3,
		ClassifyMaxTokens:   150,
		GenerateTemperature: 0.7,
		GenerateMaxTokens:   500,
	}
}

// Assistant implements routing.Assistant on top of a Completer and adds the
// conversation summary and next-action helpers used by the session API.
type Assistant struct {
	completer Completer
	cfg       AssistantConfig
	log       zerolog.Logger
}

var _ routing.Assistant = (*Assistant)(nil)

func NewAssistant(c Completer, cfg AssistantConfig, logger zerolog.Logger) *Assistant {
	def := DefaultAssistantConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxContextMessages <= 0 {
		cfg.MaxContextMessages = def.MaxContextMessages
	}
	if cfg.MaxTurnChars <= 0 {
		cfg.MaxTurnChars = def.MaxTurnChars
	}
	if cfg.MaxFAQContext <= 0 {
		cfg.MaxFAQContext = def.MaxFAQContext
	}
	if cfg.ClassifyMaxTokens <= 0 {
		cfg.ClassifyMaxTokens = def.ClassifyMaxTokens
	}
	if cfg.GenerateMaxTokens <= 0 {
		cfg.GenerateMaxTokens = def.GenerateMaxTokens
	}
	if cfg.ClassifyTemperature <= 0 {
		cfg.ClassifyTemperature = def.ClassifyTemperature
	}
	if cfg.GenerateTemperature <= 0 {
		cfg.GenerateTemperature = def.GenerateTemperature
	}
	return &Assistant{completer: c, cfg: cfg, log: logger.With().Str("component", "assistant").Logger()}
}

func (a *Assistant) Classify(ctx context.Context, message string, history []entities.ChatTurn) (routing.Relevance, error) {
	prompt := fmt.Sprintf(`Analyze if this customer question is related to product/service support and FAQs.

Customer Question: %s

Respond in this exact JSON format:
{"is_related": true/false, "category": "category_name", "confidence": 0.0-1.0, "reason": "brief reason"}

Only respond with the JSON, no other text.

Guidelines:
- Questions about accounts, orders, billing, shipping, products, features or troubleshooting are related.
- Small talk, jokes, trivia and requests unrelated to the business are not related.`, message)

	raw, err := a.complete(ctx, "classify", CompletionRequest{
		Instruction: classifyInstruction,
		Context:     a.historyBlock(history),
		Input:       prompt,
		Temperature: a.cfg.ClassifyTemperature,
		MaxTokens:   a.cfg.ClassifyMaxTokens,
	})
	if err != nil {
		return routing.Relevance{}, err
	}
	return ParseRelevance(raw)
}

func (a *Assistant) Generate(ctx context.Context, message string, history []entities.ChatTurn, entries []entities.FAQEntry) (string, error) {
	var sb strings.Builder
	sb.WriteString(a.historyBlock(history))
	if kb := faqContext(entries, a.cfg.MaxFAQContext); kb != "" {
		sb.WriteString("\n\nKnown FAQ entries:\n")
		sb.WriteString(kb)
	}

	prompt := fmt.Sprintf(`Answer this customer question accurately and professionally.

Customer Question: %s

Provide a helpful, clear, and concise answer. If you're not completely sure about something, `+
		`acknowledge it and suggest they contact the support team for clarification.`, message)

	text, err := a.complete(ctx, "generate", CompletionRequest{
		Instruction: generateInstruction,
		Context:     sb.String(),
		Input:       prompt,
		Temperature: a.cfg.GenerateTemperature,
		MaxTokens:   a.cfg.GenerateMaxTokens,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// Summarize condenses a whole conversation into a few sentences.
func (a *Assistant) Summarize(ctx context.Context, turns []entities.ChatTurn) (string, error) {
	if len(turns) == 0 {
		return "No messages in this conversation.", nil
	}
	transcript := BuildHistoryContext(turns, a.cfg.MaxContextMessages*3, a.cfg.MaxTurnChars)
	text, err := a.complete(ctx, "summarize", CompletionRequest{
		Instruction: summarizeInstruction,
		Input: "Summarize this conversation in 2-3 sentences, covering the customer's issue and what was resolved:\n\n" +
			transcript,
		Temperature: 0.5,
		MaxTokens:   200,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// NextActions is the suggested follow-up for an agent.
type NextActions struct {
	Actions             []string `json:"actions"`
	RecommendEscalation bool     `json:"recommend_escalation"`
}

func (a *Assistant) SuggestNextActions(ctx context.Context, turns []entities.ChatTurn) (NextActions, error) {
	transcript := BuildHistoryContext(turns, a.cfg.MaxContextMessages, a.cfg.MaxTurnChars)
	if transcript == "" {
		transcript = noHistory
	}
	raw, err := a.complete(ctx, "next_actions", CompletionRequest{
		Instruction: actionsInstruction,
		Input: "Based on this conversation, suggest up to 3 next actions for the support agent.\n\n" + transcript +
			"\n\nRespond in this exact JSON format:\n" +
			`{"actions": ["action 1", "action 2"], "recommend_escalation": true/false}`,
		Temperature: 0.5,
		MaxTokens:   200,
	})
	if err != nil {
		return NextActions{}, err
	}

	var out NextActions
	if err := decodeJSONObject(raw, &out); err != nil {
		return NextActions{}, err
	}
	return out, nil
}

func (a *Assistant) complete(ctx context.Context, op string, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := a.completer.Complete(ctx, req)
	observability.RecordLLMCall(op, err, time.Since(start))
	if err != nil {
		a.log.Warn().Err(err).Str("operation", op).Dur("took", time.Since(start)).Msg("completion failed")
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return text, nil
}

func (a *Assistant) historyBlock(history []entities.ChatTurn) string {
	h := BuildHistoryContext(history, a.cfg.MaxContextMessages, a.cfg.MaxTurnChars)
	if h == "" {
		h = noHistory
	}
	return "Previous Conversation:\n" + h
}

func faqContext(entries []entities.FAQEntry, limit int) string {
	var sb strings.Builder
	n := 0
	for _, e := range entries {
		if !e.IsActive {
			continue
		}
		if n == limit {
			break
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", e.Question, e.Answer)
		n++
	}
	return strings.TrimSpace(sb.String())
}

type relevancePayload struct {
	IsRelated  *bool    `json:"is_related"`
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
}

// ParseRelevance decodes the classifier JSON, tolerating prose or code fences
// around the object.
func ParseRelevance(raw string) (routing.Relevance, error) {
	var p relevancePayload
	if err := decodeJSONObject(raw, &p); err != nil {
		return routing.Relevance{}, err
	}
	if p.IsRelated == nil || p.Confidence == nil {
		return routing.Relevance{}, fmt.Errorf("%w: missing is_related or confidence", ErrMalformedResponse)
	}

	conf := *p.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return routing.Relevance{
		IsRelated:  *p.IsRelated,
		Confidence: conf,
		Category:   strings.TrimSpace(p.Category),
		Reason:     strings.TrimSpace(p.Reason),
	}, nil
}

func decodeJSONObject(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, truncate(raw, 80))
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
