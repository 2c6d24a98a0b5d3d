package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/input-output-hk/catalyst-forge-libs/gcp/auth"
	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// Client provides helper operations over one Pub/Sub project.
type Client struct {
	api             API
	projectID       string
	logger          *slog.Logger
	receiveSettings pubsub.ReceiveSettings

	// Outstanding PublishAsync calls and how many of them failed.
	pending  sync.WaitGroup
	failures atomic.Int64
}

// New creates a Pub/Sub client from the shared auth config. A config with an
// endpoint and WithoutAuthentication set is treated as an emulator and dialed
// without TLS.
func New(ctx context.Context, cfg *auth.Config, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	clientOpts, err := cfg.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.WithoutAuthentication && cfg.Endpoint != "" {
		clientOpts = append(clientOpts,
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}

	o := applyOptions(opts)
	ps, err := pubsub.NewClient(ctx, cfg.ProjectID, append(clientOpts, o.clientOptions...)...)
	if err != nil {
		return nil, gcperrors.New("pubsub.New", cfg.ProjectID, err)
	}

	return newClient(newSDKAPI(ps, o.publishSettings, o.messageOrdering), cfg.ProjectID, o), nil
}

// NewWithAPI creates a client over a custom API implementation.
// This is primarily used for testing with mocked clients.
func NewWithAPI(api API, projectID string, opts ...Option) *Client {
	return newClient(api, projectID, applyOptions(opts))
}

func newClient(api API, projectID string, o *clientOptions) *Client {
	return &Client{
		api:             api,
		projectID:       projectID,
		logger:          o.logger.With("project_id", projectID),
		receiveSettings: o.receiveSettings,
	}
}

// ProjectID returns the project the client operates on.
func (c *Client) ProjectID() string {
	return c.projectID
}

// Close flushes batched messages on every topic handle and closes the
// underlying client. It does not wait for PublishAsync callbacks; call Wait first.
func (c *Client) Close() error {
	if err := c.api.Close(); err != nil {
		return gcperrors.New("pubsub.Close", c.projectID, err)
	}
	c.logger.Info("client connection closed")
	return nil
}

// CreateTopic creates a topic.
func (c *Client) CreateTopic(ctx context.Context, topic string) error {
	const op = "pubsub.CreateTopic"
	ref := c.topicPath(topic)
	if err := validation.Required(op, ref, validation.F("topic", topic)); err != nil {
		return err
	}

	if err := c.api.CreateTopic(ctx, topic); err != nil {
		c.logger.ErrorContext(ctx, "failed to create topic", "topic", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "created topic", "topic", ref)
	return nil
}

// DeleteTopic deletes a topic. Subscriptions attached to it are detached by the
// service, not deleted.
func (c *Client) DeleteTopic(ctx context.Context, topic string) error {
	const op = "pubsub.DeleteTopic"
	ref := c.topicPath(topic)
	if err := validation.Required(op, ref, validation.F("topic", topic)); err != nil {
		return err
	}

	if err := c.api.DeleteTopic(ctx, topic); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete topic", "topic", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "deleted topic", "topic", ref)
	return nil
}

// TopicExists reports whether the topic exists.
func (c *Client) TopicExists(ctx context.Context, topic string) (bool, error) {
	const op = "pubsub.TopicExists"
	ref := c.topicPath(topic)
	if err := validation.Required(op, ref, validation.F("topic", topic)); err != nil {
		return false, err
	}

	ok, err := c.api.TopicExists(ctx, topic)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to look up topic", "topic", ref, "error", err)
		return false, gcperrors.New(op, ref, err)
	}
	return ok, nil
}

// ListTopics returns the IDs of all topics in the project.
func (c *Client) ListTopics(ctx context.Context) ([]string, error) {
	ids, err := c.api.Topics(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to list topics", "error", err)
		return nil, gcperrors.New("pubsub.ListTopics", "projects/"+c.projectID, err)
	}

	c.logger.InfoContext(ctx, "listed topics", "count", len(ids))
	return ids, nil
}

// ListTopicSubscriptions returns the IDs of the subscriptions attached to topic.
func (c *Client) ListTopicSubscriptions(ctx context.Context, topic string) ([]string, error) {
	const op = "pubsub.ListTopicSubscriptions"
	ref := c.topicPath(topic)
	if err := validation.Required(op, ref, validation.F("topic", topic)); err != nil {
		return nil, err
	}

	ids, err := c.api.TopicSubscriptions(ctx, topic)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to list topic subscriptions", "topic", ref, "error", err)
		return nil, gcperrors.New(op, ref, err)
	}
	return ids, nil
}

// CreateSubscription creates a pull subscription attached to cfg.Topic.
func (c *Client) CreateSubscription(ctx context.Context, subscription string, cfg SubscriptionConfig) error {
	const op = "pubsub.CreateSubscription"
	ref := c.subscriptionPath(subscription)
	if err := validation.Required(op, ref,
		validation.F("subscription", subscription), validation.F("topic", cfg.Topic)); err != nil {
		return err
	}

	if err := c.api.CreateSubscription(ctx, subscription, cfg.Topic, cfg.toSDK()); err != nil {
		c.logger.ErrorContext(ctx, "failed to create subscription",
			"subscription", ref, "topic", c.topicPath(cfg.Topic), "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "created subscription", "subscription", ref, "topic", c.topicPath(cfg.Topic))
	return nil
}

// DeleteSubscription deletes a subscription.
func (c *Client) DeleteSubscription(ctx context.Context, subscription string) error {
	const op = "pubsub.DeleteSubscription"
	ref := c.subscriptionPath(subscription)
	if err := validation.Required(op, ref, validation.F("subscription", subscription)); err != nil {
		return err
	}

	if err := c.api.DeleteSubscription(ctx, subscription); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete subscription", "subscription", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "deleted subscription", "subscription", ref)
	return nil
}

// SubscriptionExists reports whether the subscription exists.
func (c *Client) SubscriptionExists(ctx context.Context, subscription string) (bool, error) {
	const op = "pubsub.SubscriptionExists"
	ref := c.subscriptionPath(subscription)
	if err := validation.Required(op, ref, validation.F("subscription", subscription)); err != nil {
		return false, err
	}

	ok, err := c.api.SubscriptionExists(ctx, subscription)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to look up subscription", "subscription", ref, "error", err)
		return false, gcperrors.New(op, ref, err)
	}
	return ok, nil
}

// ListSubscriptions returns the IDs of all subscriptions in the project.
func (c *Client) ListSubscriptions(ctx context.Context) ([]string, error) {
	ids, err := c.api.Subscriptions(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to list subscriptions", "error", err)
		return nil, gcperrors.New("pubsub.ListSubscriptions", "projects/"+c.projectID, err)
	}

	c.logger.InfoContext(ctx, "listed subscriptions", "count", len(ids))
	return ids, nil
}

func (c *Client) topicPath(topic string) string {
	return "projects/" + c.projectID + "/topics/" + topic
}

func (c *Client) subscriptionPath(subscription string) string {
	return "projects/" + c.projectID + "/subscriptions/" + subscription
}
