package pubsub

import (
	"context"
	"sync"

	"cloud.google.com/go/pubsub"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// Handler processes one received message. Returning nil acknowledges it;
// returning an error nacks it for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Receive delivers messages from the subscription to handler until ctx is done.
// Handlers may run concurrently. Receive returns nil once ctx is done and an
// error only when the stream fails for another reason.
func (c *Client) Receive(ctx context.Context, subscription string, handler Handler) error {
	const op = "pubsub.Receive"
	ref := c.subscriptionPath(subscription)
	if err := validation.Required(op, ref, validation.F("subscription", subscription)); err != nil {
		return err
	}
	if handler == nil {
		return gcperrors.Invalid(op, ref, "handler cannot be nil")
	}

	c.logger.InfoContext(ctx, "receiving messages", "subscription", ref)
	err := c.api.Receive(ctx, subscription, c.receiveSettings, func(ctx context.Context, m *pubsub.Message) {
		if herr := handler(ctx, fromSDK(m)); herr != nil {
			c.logger.WarnContext(ctx, "handler failed, message nacked",
				"subscription", ref, "message_id", m.ID, "error", herr)
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil && ctx.Err() == nil {
		c.logger.ErrorContext(ctx, "receive failed", "subscription", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "stopped receiving messages", "subscription", ref)
	return nil
}

// Pull receives and acknowledges up to maxMessages messages. It returns as soon
// as maxMessages have arrived or when ctx is done, so callers bound the wait with
// a deadline. Messages delivered beyond maxMessages are nacked.
func (c *Client) Pull(ctx context.Context, subscription string, maxMessages int) ([]Message, error) {
	const op = "pubsub.Pull"
	ref := c.subscriptionPath(subscription)
	if err := validation.Required(op, ref, validation.F("subscription", subscription)); err != nil {
		return nil, err
	}
	if maxMessages <= 0 {
		return nil, gcperrors.Invalid(op, ref, "max messages must be positive, got %d", maxMessages)
	}

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := c.receiveSettings
	settings.MaxOutstandingMessages = maxMessages

	var (
		mu   sync.Mutex
		msgs []Message
	)
	err := c.api.Receive(rctx, subscription, settings, func(_ context.Context, m *pubsub.Message) {
		mu.Lock()
		defer mu.Unlock()

		if len(msgs) >= maxMessages {
			m.Nack()
			return
		}
		msgs = append(msgs, fromSDK(m))
		m.Ack()
		if len(msgs) == maxMessages {
			cancel()
		}
	})
	if err != nil && rctx.Err() == nil {
		c.logger.ErrorContext(ctx, "pull failed", "subscription", ref, "error", err)
		return nil, gcperrors.New(op, ref, err)
	}

	mu.Lock()
	defer mu.Unlock()
	c.logger.InfoContext(ctx, "pulled messages", "subscription", ref, "count", len(msgs))
	return msgs, nil
}
