package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Transport subscribes to the mention subject on a NATS connection and
// feeds decoded mentions into the handler. The bridge between the chat
// platform's socket API and the broker is an external collaborator; this
// adapter only owns the subject and the JSON payload shape (Mention).
type Transport struct {
	conn    *nats.Conn
	subject string
	handler *Handler
	logger  *zap.Logger
	sub     *nats.Subscription
}

// NewTransport creates a mention transport.
func NewTransport(conn *nats.Conn, subject string, handler *Handler, logger *zap.Logger) (*Transport, error) {
	if conn == nil {
		return nil, fmt.Errorf("nats connection required")
	}
	if subject == "" {
		return nil, fmt.Errorf("mention subject required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		conn:    conn,
		subject: subject,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start subscribes to the mention subject. Each mention is handled in its
// own goroutine; ctx bounds the handling of a single mention, not the
// subscription.
func (t *Transport) Start(ctx context.Context) error {
	sub, err := t.conn.Subscribe(t.subject, func(msg *nats.Msg) {
		var mention Mention
		if err := json.Unmarshal(msg.Data, &mention); err != nil {
			t.logger.Warn("dropping malformed mention payload", zap.Error(err))
			return
		}
		go t.handler.HandleMention(ctx, mention)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", t.subject, err)
	}

	t.sub = sub
	t.logger.Info("mention transport started", zap.String("subject", t.subject))
	return nil
}

// Stop unsubscribes from the mention subject.
func (t *Transport) Stop() error {
	if t.sub == nil {
		return nil
	}
	return t.sub.Unsubscribe()
}
