// Package routing decides how a customer message is answered: straight from
// the FAQ table, by a generated reply, or by handing it to a human.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"supportbot/internal/entities"
	"supportbot/internal/faq"
	"supportbot/internal/observability"
)

// ErrEmptyMessage is returned for blank input. It is never escalated.
var ErrEmptyMessage = errors.New("message is empty")

const (
	GuidanceMessage = "Please type your question and we'll do our best to help you."
	FallbackMessage = "Thank you for your question! We're connecting you to our support team now. " +
		"A specialist will get back to you shortly."
	offTopicTemplate = "I'm here to help with questions about our products and services. " +
		"Your question doesn't seem to be related to our offerings, so I've passed it on to our support team. " +
		"You can also reach us at %s."
)

// Reason explains why a message was escalated.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonOffTopic             Reason = "off_topic"
	ReasonClassificationFailed Reason = "classification_failed"
	ReasonGenerationFailed     Reason = "generation_failed"
)

// Relevance is the classifier verdict for an unmatched message.
type Relevance struct {
	IsRelated  bool
	Confidence float64
	Category   string
	Reason     string
}

// Assistant is the model-backed half of routing.
type Assistant interface {
	Classify(ctx context.Context, message string, history []entities.ChatTurn) (Relevance, error)
	Generate(ctx context.Context, message string, history []entities.ChatTurn, entries []entities.FAQEntry) (string, error)
}

type Config struct {
	FAQThreshold         float64
	RelatednessThreshold float64
	SupportEmail         string
}

func DefaultConfig() Config {
	return Config{
		FAQThreshold:         0.5,
		RelatednessThreshold: 0.6,
		SupportEmail:         "support@example.com",
	}
}

type Request struct {
	Message    string
	SessionID  string
	CustomerID string
	History    []entities.ChatTurn
}

// Result is the routing decision for one message.
type Result struct {
	ResponseText       string                `json:"response_text"`
	Confidence         float64               `json:"confidence_score"`
	ResponseType       entities.ResponseType `json:"response_type"`
	RequiresEscalation bool                  `json:"requires_escalation"`
	MatchedFAQID       int64                 `json:"matched_faq_id,omitempty"`
	Category           string                `json:"category,omitempty"`
	EscalationReason   Reason                `json:"escalation_reason,omitempty"`
	Priority           entities.Priority     `json:"priority,omitempty"`
}

// Router holds no per-conversation state; everything it needs arrives with
// the request, so one Router serves all sessions concurrently.
type Router struct {
	matcher   *faq.Matcher
	assistant Assistant
	cfg       Config
	log       zerolog.Logger
}

func NewRouter(assistant Assistant, cfg Config, logger zerolog.Logger) *Router {
	def := DefaultConfig()
	if cfg.FAQThreshold <= 0 {
		cfg.FAQThreshold = def.FAQThreshold
	}
	if cfg.RelatednessThreshold <= 0 {
		cfg.RelatednessThreshold = def.RelatednessThreshold
	}
	if cfg.SupportEmail == "" {
		cfg.SupportEmail = def.SupportEmail
	}
	return &Router{
		matcher:   faq.NewMatcher(),
		assistant: assistant,
		cfg:       cfg,
		log:       logger.With().Str("component", "router").Logger(),
	}
}

func (r *Router) Config() Config {
	return r.cfg
}

// Route picks exactly one of faq, ai_generated or escalated. Model failures
// degrade to escalation; only blank input yields an error.
func (r *Router) Route(ctx context.Context, req Request, entries []entities.FAQEntry) (Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Result{}, ErrEmptyMessage
	}

	start := time.Now()
	res := r.decide(ctx, req, entries)
	observability.RecordRoute(string(res.ResponseType), string(res.EscalationReason), time.Since(start))

	r.log.Info().
		Str("session_id", req.SessionID).
		Str("response_type", string(res.ResponseType)).
		Float64("confidence", res.Confidence).
		Str("reason", string(res.EscalationReason)).
		Dur("took", time.Since(start)).
		Msg("message routed")
	return res, nil
}

func (r *Router) decide(ctx context.Context, req Request, entries []entities.FAQEntry) Result {
	if best, score := r.matcher.Match(req.Message, entries); best != nil && score >= r.cfg.FAQThreshold {
		return Result{
			ResponseText: best.Answer,
			Confidence:   score,
			ResponseType: entities.ResponseFAQ,
			MatchedFAQID: best.ID,
			Category:     best.Category,
		}
	}

	rel, err := r.assistant.Classify(ctx, req.Message, req.History)
	if err != nil {
		r.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("relevance classification failed")
		return r.escalate(ReasonClassificationFailed, entities.PriorityNormal, 0, "")
	}

	if !rel.IsRelated || rel.Confidence < r.cfg.RelatednessThreshold {
		msg := fmt.Sprintf(offTopicTemplate, r.cfg.SupportEmail)
		res := r.escalate(ReasonOffTopic, entities.PriorityLow, unrelatedConfidence(rel), rel.Category)
		res.ResponseText = msg
		return res
	}

	text, err := r.assistant.Generate(ctx, req.Message, req.History, entries)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty generated answer")
	}
	if err != nil {
		r.log.Warn().Err(err).Str("session_id", req.SessionID).Str("category", rel.Category).Msg("answer generation failed")
		return r.escalate(ReasonGenerationFailed, entities.PriorityNormal, unrelatedConfidence(rel), rel.Category)
	}

	return Result{
		ResponseText: text,
		Confidence:   clamp(rel.Confidence),
		ResponseType: entities.ResponseAIGenerated,
		Category:     rel.Category,
	}
}

func (r *Router) escalate(reason Reason, p entities.Priority, confidence float64, category string) Result {
	return Result{
		ResponseText:       FallbackMessage,
		Confidence:         clamp(confidence),
		ResponseType:       entities.ResponseEscalated,
		RequiresEscalation: true,
		Category:           category,
		EscalationReason:   reason,
		Priority:           p,
	}
}

// unrelatedConfidence converts a classifier verdict into the confidence that
// the message is off-topic.
func unrelatedConfidence(rel Relevance) float64 {
	if rel.IsRelated {
		return 1 - clamp(rel.Confidence)
	}
	return clamp(rel.Confidence)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
