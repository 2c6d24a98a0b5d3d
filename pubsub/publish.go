package pubsub

import (
	"context"

	"golang.org/x/sync/errgroup"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// Publish enqueues every message on the topic, then waits for all of them to be
// acknowledged by the service. Server IDs are returned in input order. When any
// publish fails the first error is returned; messages that succeeded stay published.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...Message) ([]string, error) {
	const op = "pubsub.Publish"
	ref := c.topicPath(topic)
	if err := validation.Required(op, ref, validation.F("topic", topic)); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	results := make([]PublishResult, len(msgs))
	for i, m := range msgs {
		results[i] = c.api.Publish(ctx, topic, m.toSDK())
	}

	ids := make([]string, len(msgs))
	var g errgroup.Group
	for i, r := range results {
		g.Go(func() error {
			id, err := r.Get(ctx)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.ErrorContext(ctx, "failed to publish messages", "topic", ref, "count", len(msgs), "error", err)
		return nil, gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "published messages", "topic", ref, "count", len(msgs))
	return ids, nil
}

// PublishString publishes s as the UTF-8 message body and returns its server ID.
func (c *Client) PublishString(ctx context.Context, topic, s string) (string, error) {
	ids, err := c.Publish(ctx, topic, Message{Data: []byte(s)})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// PublishAsync enqueues msg and returns without waiting. onDone, when not nil,
// is called from another goroutine with the server ID or the publish error.
// Use Wait to block until every outstanding publish has completed and Failures
// to count the ones that failed.
func (c *Client) PublishAsync(ctx context.Context, topic string, msg Message, onDone func(id string, err error)) error {
	const op = "pubsub.PublishAsync"
	ref := c.topicPath(topic)
	if err := validation.Required(op, ref, validation.F("topic", topic)); err != nil {
		return err
	}

	res := c.api.Publish(ctx, topic, msg.toSDK())

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		id, err := res.Get(ctx)
		if err != nil {
			c.failures.Add(1)
			c.logger.ErrorContext(ctx, "failed to publish message", "topic", ref, "error", err)
			err = gcperrors.New(op, ref, err)
		}
		if onDone != nil {
			onDone(id, err)
		}
	}()
	return nil
}

// Wait blocks until every PublishAsync call has completed or ctx is done.
func (c *Client) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return gcperrors.New("pubsub.Wait", "projects/"+c.projectID, ctx.Err())
	}
}

// Failures returns how many PublishAsync calls have failed since the client
// was created.
func (c *Client) Failures() int64 {
	return c.failures.Load()
}
