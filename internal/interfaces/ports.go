package interfaces

import (
	"context"

	"supportbot/internal/entities"
)

// ChatHandler answers one customer message. Channels (HTTP, Telegram, CLI)
// depend on this rather than on the chat service itself.
type ChatHandler interface {
	HandleMessage(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error)
}

// EscalationPublisher announces new tickets to downstream support tooling.
type EscalationPublisher interface {
	PublishEscalation(ctx context.Context, rec entities.EscalationRecord) error
	Close() error
}

type Messenger interface {
	SendMessage(to, content string) error
}
