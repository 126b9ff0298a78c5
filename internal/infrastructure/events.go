package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"supportbot/internal/config"
	"supportbot/internal/entities"
	"supportbot/internal/interfaces"
)

// EscalationEvent is the payload published for every new ticket.
type EscalationEvent struct {
	Type       string                    `json:"type"`
	Escalation entities.EscalationRecord `json:"escalation"`
	SentAt     time.Time                 `json:"sent_at"`
}

func encodeEscalation(rec entities.EscalationRecord) ([]byte, error) {
	return json.Marshal(EscalationEvent{
		Type:       "escalation.created",
		Escalation: rec,
		SentAt:     time.Now().UTC(),
	})
}

// NewEscalationPublisher builds the publisher selected by cfg.Driver.
func NewEscalationPublisher(ctx context.Context, cfg config.EventsConfig, logger zerolog.Logger) (interfaces.EscalationPublisher, error) {
	switch cfg.Driver {
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	case "redis":
		return NewRedisPublisher(ctx, cfg.Redis)
	case "none", "":
		return NewLogPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unsupported events driver %q", cfg.Driver)
	}
}

// KafkaPublisher writes escalation events keyed by session ID so a session's
// tickets land on one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) PublishEscalation(ctx context.Context, rec entities.EscalationRecord) error {
	data, err := encodeEscalation(rec)
	if err != nil {
		return err
	}
	msg := kafka.Message{Key: []byte(rec.SessionID), Value: data}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", rec.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(ctx context.Context, cfg config.RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisPublisher{client: client, channel: cfg.Channel}, nil
}

func (p *RedisPublisher) PublishEscalation(ctx context.Context, rec entities.EscalationRecord) error {
	data, err := encodeEscalation(rec)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", rec.ID, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// LogPublisher only logs; it is used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishEscalation(_ context.Context, rec entities.EscalationRecord) error {
	p.logger.Info().
		Str("escalation_id", rec.ID).
		Str("session_id", rec.SessionID).
		Str("priority", string(rec.Priority)).
		Str("reason", rec.Reason).
		Msg("escalation created")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
