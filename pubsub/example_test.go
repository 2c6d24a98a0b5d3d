package pubsub_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/gcp/auth"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/pubsub"
)

func Example() {
	ctx := context.Background()

	client, err := pubsub.New(ctx, auth.FromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ids, err := client.Publish(ctx, "orders",
		pubsub.Message{Data: []byte(`{"id": 1}`), Attributes: map[string]string{"kind": "paid"}},
	)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("published", ids)

	pullCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msgs, err := client.Pull(pullCtx, "orders-sub", 10)
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range msgs {
		fmt.Println(string(m.Data))
	}
}

func ExampleClient_PublishAsync() {
	ctx := context.Background()

	client, err := pubsub.New(ctx, auth.FromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	for i := range 3 {
		msg := pubsub.Message{Data: []byte(fmt.Sprintf("event-%d", i))}
		if err := client.PublishAsync(ctx, "events", msg, func(id string, err error) {
			if err != nil {
				log.Printf("publish failed: %v", err)
			}
		}); err != nil {
			log.Fatal(err)
		}
	}

	if err := client.Wait(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println("failed:", client.Failures())
}
