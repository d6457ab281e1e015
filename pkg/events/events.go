package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/unimart/unimart-server/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopBus is used when no NATS URL is configured; events are dropped
// after a debug log line.
type NoopBus struct{}

func (NoopBus) Publish(ctx context.Context, subject string, data interface{}) error {
	logger.DebugContext(ctx, "Event bus not configured, dropping event", "subject", subject)
	return nil
}

func (NoopBus) Close() error { return nil }

// Event subjects
const (
	UserRegistered = "user.registered"
	UserVerified   = "user.verified"

	PaymentInitiated = "payment.initiated"
	PaymentCompleted = "payment.completed"
	PaymentFailed    = "payment.failed"
)

// Event payloads
type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

type UserVerifiedEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

type PaymentInitiatedEvent struct {
	OrderID     string    `json:"order_id"`
	ListingID   string    `json:"listing_id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	InitiatedAt time.Time `json:"initiated_at"`
}

type PaymentSettledEvent struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	SettledAt time.Time `json:"settled_at"`
}
