package pubsub

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/iterator"
)

// PublishResult is the outcome of one enqueued publish. *pubsub.PublishResult
// satisfies it.
type PublishResult interface {
	Get(ctx context.Context) (serverID string, err error)
}

// API is the set of Pub/Sub operations used by Client. Identifiers are short IDs
// within the client's project.
type API interface {
	CreateTopic(ctx context.Context, topicID string) error
	DeleteTopic(ctx context.Context, topicID string) error
	TopicExists(ctx context.Context, topicID string) (bool, error)
	Topics(ctx context.Context) ([]string, error)
	TopicSubscriptions(ctx context.Context, topicID string) ([]string, error)

	CreateSubscription(ctx context.Context, subID, topicID string, cfg pubsub.SubscriptionConfig) error
	DeleteSubscription(ctx context.Context, subID string) error
	SubscriptionExists(ctx context.Context, subID string) (bool, error)
	Subscriptions(ctx context.Context) ([]string, error)

	// Publish enqueues msg on the topic's batching scheduler and returns immediately.
	Publish(ctx context.Context, topicID string, msg *pubsub.Message) PublishResult

	// Receive blocks delivering messages to f until ctx is done or a
	// non-retryable error occurs.
	Receive(ctx context.Context, subID string, settings pubsub.ReceiveSettings,
		f func(context.Context, *pubsub.Message)) error

	Close() error
}

// sdkAPI adapts *pubsub.Client to API. Topic handles are cached so each topic
// keeps a single publish scheduler configured with the client's settings.
type sdkAPI struct {
	client   *pubsub.Client
	settings pubsub.PublishSettings
	ordering bool

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

var _ API = (*sdkAPI)(nil)

func newSDKAPI(client *pubsub.Client, settings pubsub.PublishSettings, ordering bool) *sdkAPI {
	return &sdkAPI{
		client:   client,
		settings: settings,
		ordering: ordering,
		topics:   make(map[string]*pubsub.Topic),
	}
}

func (a *sdkAPI) topic(id string) *pubsub.Topic {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.topics[id]; ok {
		return t
	}
	t := a.client.Topic(id)
	t.PublishSettings = a.settings
	t.EnableMessageOrdering = a.ordering
	a.topics[id] = t
	return t
}

// forget stops and drops the cached handle, flushing anything still batched.
func (a *sdkAPI) forget(id string) {
	a.mu.Lock()
	t, ok := a.topics[id]
	delete(a.topics, id)
	a.mu.Unlock()

	if ok {
		t.Stop()
	}
}

func (a *sdkAPI) CreateTopic(ctx context.Context, topicID string) error {
	_, err := a.client.CreateTopic(ctx, topicID)
	return err
}

func (a *sdkAPI) DeleteTopic(ctx context.Context, topicID string) error {
	a.forget(topicID)
	return a.client.Topic(topicID).Delete(ctx)
}

func (a *sdkAPI) TopicExists(ctx context.Context, topicID string) (bool, error) {
	return a.client.Topic(topicID).Exists(ctx)
}

func (a *sdkAPI) Topics(ctx context.Context) ([]string, error) {
	var ids []string
	it := a.client.Topics(ctx)
	for {
		t, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID())
	}
}

func (a *sdkAPI) TopicSubscriptions(ctx context.Context, topicID string) ([]string, error) {
	return subscriptionIDs(a.client.Topic(topicID).Subscriptions(ctx))
}

func (a *sdkAPI) CreateSubscription(ctx context.Context, subID, topicID string, cfg pubsub.SubscriptionConfig) error {
	cfg.Topic = a.client.Topic(topicID)
	_, err := a.client.CreateSubscription(ctx, subID, cfg)
	return err
}

func (a *sdkAPI) DeleteSubscription(ctx context.Context, subID string) error {
	return a.client.Subscription(subID).Delete(ctx)
}

func (a *sdkAPI) SubscriptionExists(ctx context.Context, subID string) (bool, error) {
	return a.client.Subscription(subID).Exists(ctx)
}

func (a *sdkAPI) Subscriptions(ctx context.Context) ([]string, error) {
	return subscriptionIDs(a.client.Subscriptions(ctx))
}

//nolint:ireturn // returns the result seam so tests can substitute outcomes.
func (a *sdkAPI) Publish(ctx context.Context, topicID string, msg *pubsub.Message) PublishResult {
	return a.topic(topicID).Publish(ctx, msg)
}

func (a *sdkAPI) Receive(
	ctx context.Context,
	subID string,
	settings pubsub.ReceiveSettings,
	f func(context.Context, *pubsub.Message),
) error {
	sub := a.client.Subscription(subID)
	sub.ReceiveSettings = settings
	return sub.Receive(ctx, f)
}

func (a *sdkAPI) Close() error {
	a.mu.Lock()
	topics := a.topics
	a.topics = make(map[string]*pubsub.Topic)
	a.mu.Unlock()

	for _, t := range topics {
		t.Stop()
	}
	return a.client.Close()
}

func subscriptionIDs(it *pubsub.SubscriptionIterator) ([]string, error) {
	var ids []string
	for {
		s, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, s.ID())
	}
}
