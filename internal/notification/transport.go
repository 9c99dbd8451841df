package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Transport queues deliveries for the delivery worker.
type Transport interface {
	Enqueue(ctx context.Context, d Delivery) error
	Close() error
}

// DeliverySource feeds queued deliveries to handle until ctx is cancelled.
type DeliverySource interface {
	Consume(ctx context.Context, handle func(context.Context, Delivery) error) error
	Close() error
}

// TokenStore resolves push recipients.
type TokenStore interface {
	ActiveTokens(ctx context.Context, userID uint) ([]string, error)
	DeactivateTokens(ctx context.Context, tokens []string) error
}

// Deliverer sends a single delivery through the matching channel.
type Deliverer struct {
	email  Channel
	push   Channel
	tokens TokenStore
	log    zerolog.Logger
}

func NewDeliverer(email, push Channel, tokens TokenStore, log zerolog.Logger) *Deliverer {
	return &Deliverer{email: email, push: push, tokens: tokens, log: log}
}

func (d *Deliverer) Deliver(ctx context.Context, del Delivery) error {
	switch del.Channel {
	case ChannelEmail:
		if d.email == nil || del.To == "" {
			return nil
		}
		return d.email.Send(ctx, []string{del.To}, del.Subject, del.Body)
	case ChannelPush:
		if d.push == nil {
			return nil
		}
		tokens, err := d.tokens.ActiveTokens(ctx, del.UserID)
		if err != nil {
			return fmt.Errorf("load device tokens: %w", err)
		}
		if len(tokens) == 0 {
			return nil
		}
		return d.push.Send(ctx, tokens, del.Subject, del.Body)
	}
	return fmt.Errorf("unknown delivery channel %q", del.Channel)
}

// InlineTransport delivers in the caller's goroutine. It backs
// NOTIFY_TRANSPORT=inline and tests.
type InlineTransport struct {
	deliverer *Deliverer
}

func NewInlineTransport(d *Deliverer) *InlineTransport {
	return &InlineTransport{deliverer: d}
}

func (t *InlineTransport) Enqueue(ctx context.Context, d Delivery) error {
	if t.deliverer == nil {
		return errors.New("inline transport has no deliverer")
	}
	return t.deliverer.Deliver(ctx, d)
}

func (t *InlineTransport) Close() error { return nil }
