package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RelayChannel is the Redis channel feed events are fanned out on.
const RelayChannel = "feed:events"

// RedisRelay publishes events through Redis so every instance's Hub delivers them
// to its own clients exactly once.
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
	log    *zap.Logger
}

func NewRedisRelay(client *redis.Client, hub *Hub, log *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, hub: hub, log: log}
}

func (r *RedisRelay) Publish(ctx context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, RelayChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe confirms the subscription and forwards every payload to the local hub
// in a background goroutine until ctx is cancelled.
func (r *RedisRelay) Subscribe(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, RelayChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", RelayChannel, err)
	}
	r.log.Info("relay: subscribed to channel", zap.String("channel", RelayChannel))

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				r.log.Info("relay: subscription loop stopping")
				return
			case msg, ok := <-ch:
				if !ok {
					r.log.Warn("relay: pubsub channel closed")
					return
				}
				r.hub.Broadcast([]byte(msg.Payload))
			}
		}
	}()
	return nil
}
