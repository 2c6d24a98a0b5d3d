package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

// Message is a Pub/Sub message as seen by publishers and handlers. ID and
// PublishTime are set by the service and ignored when publishing.
type Message struct {
	ID          string
	Data        []byte
	Attributes  map[string]string
	OrderingKey string
	PublishTime time.Time

	// DeliveryAttempt is set only when the subscription has a dead-letter policy.
	DeliveryAttempt *int
}

func (m Message) toSDK() *pubsub.Message {
	return &pubsub.Message{
		Data:        m.Data,
		Attributes:  m.Attributes,
		OrderingKey: m.OrderingKey,
	}
}

func fromSDK(m *pubsub.Message) Message {
	return Message{
		ID:              m.ID,
		Data:            m.Data,
		Attributes:      m.Attributes,
		OrderingKey:     m.OrderingKey,
		PublishTime:     m.PublishTime,
		DeliveryAttempt: m.DeliveryAttempt,
	}
}
