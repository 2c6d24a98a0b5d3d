// Package pubsub provides a thin helper client for Google Cloud Pub/Sub.
//
// The client wraps cloud.google.com/go/pubsub to provide:
//   - Topic and subscription administration (create, delete, exists, list)
//   - Synchronous publishing that returns server-assigned message IDs
//   - Asynchronous publishing with completion callbacks and a failure counter
//   - Streaming receive with handler-driven ack/nack, and a bounded Pull
//
// Topic handles are created once per topic and reused, so publishes to the same
// topic share one batching scheduler. Batching and flow control default to
// DefaultPublishSettings and can be changed with WithPublishSettings.
//
// Errors from the SDK are returned wrapped in an *errors.Error from the gcp/errors
// package; errors.Is and errors.As reach the original gRPC status error.
//
// Example usage:
//
//	client, err := pubsub.New(ctx, auth.FromEnv())
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ids, err := client.Publish(ctx, "orders", pubsub.Message{Data: payload})
package pubsub
