// Package notify delivers chat notifications. The concrete chat platform is
// an excluded collaborator; meetingd publishes messages to a broker subject
// (or the log) and a thin bridge owns the platform wire format.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Notifier posts a message to a channel, optionally threaded under a prior
// message id. It returns the posted message's id so callers can thread
// follow-ups under it.
type Notifier interface {
	Post(ctx context.Context, channel, thread, text string) (string, error)
}

// Message is the published notification payload.
type Message struct {
	ID      string    `json:"id"`
	Channel string    `json:"channel"`
	Thread  string    `json:"thread,omitempty"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sent_at"`
}

// NATSNotifier publishes notifications to a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// NewNATSNotifier creates a notifier publishing to subject on conn.
func NewNATSNotifier(conn *nats.Conn, subject string, logger *zap.Logger) (*NATSNotifier, error) {
	if conn == nil {
		return nil, fmt.Errorf("nats connection required")
	}
	if subject == "" {
		return nil, fmt.Errorf("notify subject required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSNotifier{conn: conn, subject: subject, logger: logger}, nil
}

// Post publishes the message and returns its generated id.
func (n *NATSNotifier) Post(ctx context.Context, channel, thread, text string) (string, error) {
	msg := Message{
		ID:      uuid.NewString(),
		Channel: channel,
		Thread:  thread,
		Text:    text,
		SentAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encoding notification: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return "", fmt.Errorf("publishing notification: %w", err)
	}

	n.logger.Debug("published notification",
		zap.String("channel", channel),
		zap.String("message_id", msg.ID),
	)
	return msg.ID, nil
}

// LogNotifier writes notifications to the log. Used when no broker is
// configured, and in tests.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Post logs the message and returns a generated id.
func (n *LogNotifier) Post(ctx context.Context, channel, thread, text string) (string, error) {
	id := uuid.NewString()
	n.logger.Info("notification",
		zap.String("channel", channel),
		zap.String("thread", thread),
		zap.String("message_id", id),
		zap.String("text", text),
	)
	return id, nil
}
