package entities

import "time"

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type EscalationStatus string

const (
	EscalationPending    EscalationStatus = "pending"
	EscalationInProgress EscalationStatus = "in_progress"
	EscalationResolved   EscalationStatus = "resolved"
)

// Valid reports whether s is a known escalation status.
func (s EscalationStatus) Valid() bool {
	switch s {
	case EscalationPending, EscalationInProgress, EscalationResolved:
		return true
	}
	return false
}

// EscalationRecord is a ticket handing a conversation to human support.
type EscalationRecord struct {
	ID                  string           `json:"escalation_id"`
	SessionID           string           `json:"session_id"`
	CustomerID          string           `json:"customer_id"`
	Reason              string           `json:"reason"`
	InitialQuery        string           `json:"initial_query"`
	ConversationContext string           `json:"conversation_context,omitempty"`
	Priority            Priority         `json:"priority"`
	Status              EscalationStatus `json:"status"`
	AssignedTo          string           `json:"assigned_to,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
