package entities

import "time"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type ResponseType string

const (
	ResponseFAQ         ResponseType = "faq"
	ResponseAIGenerated ResponseType = "ai_generated"
	ResponseEscalated   ResponseType = "escalated"
)

// ChatTurn is one message in a session, from either the customer or the bot.
type ChatTurn struct {
	ID             int64        `json:"id"`
	SessionID      string       `json:"session_id"`
	CustomerID     string       `json:"customer_id"`
	Sender         Sender       `json:"sender"`
	Content        string       `json:"content"`
	ResponseType   ResponseType `json:"response_type,omitempty"`
	Confidence     float64      `json:"confidence_score"`
	RelevantFAQIDs []int64      `json:"relevant_faq_ids,omitempty"`
	CreatedAt      time.Time    `json:"timestamp"`
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionClosed    SessionStatus = "closed"
	SessionEscalated SessionStatus = "escalated"
)

type Session struct {
	ID         string        `json:"session_id"`
	CustomerID string        `json:"customer_id"`
	Status     SessionStatus `json:"status"`
	Summary    string        `json:"summary,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ConversationMetrics aggregates the turns of a single session.
type ConversationMetrics struct {
	SessionID         string        `json:"session_id"`
	TotalMessages     int           `json:"total_messages"`
	UserMessages      int           `json:"user_messages"`
	BotMessages       int           `json:"bot_messages"`
	FAQAnswers        int           `json:"faq_answers"`
	AIAnswers         int           `json:"ai_answers"`
	AverageConfidence float64       `json:"average_confidence"`
	Duration          time.Duration `json:"duration_ns"`
	Escalated         bool          `json:"escalated"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ChatRequest is an inbound customer message from any channel.
type ChatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	Channel    string `json:"-"`
}

// ChatResponse is what a channel sends back to the customer.
type ChatResponse struct {
	SessionID          string       `json:"session_id"`
	UserMessage        string       `json:"user_message"`
	BotResponse        string       `json:"bot_response"`
	ResponseType       ResponseType `json:"response_type"`
	ConfidenceScore    float64      `json:"confidence_score"`
	RequiresEscalation bool         `json:"requires_escalation"`
	EscalationID       string       `json:"escalation_id,omitempty"`
	RelevantFAQIDs     []int64      `json:"relevant_faq_ids,omitempty"`
	Timestamp          time.Time    `json:"timestamp"`
}
