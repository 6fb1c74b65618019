package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"eventhub/internal/shared/constants"
	"eventhub/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes through Redis pub/sub so every instance's hub sees the message.
// Run must be started for messages to reach local subscribers.
type RedisNotifier struct {
	client redis.UniversalClient
	hub    *Hub
	log    *logger.Logger
}

func NewRedisNotifier(client redis.UniversalClient, hub *Hub, log *logger.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, hub: hub, log: log.WithComponent("realtime")}
}

func (n *RedisNotifier) Publish(ctx context.Context, eventID string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal realtime message: %w", err)
	}

	if err := n.client.Publish(ctx, constants.BuildRealtimeChannel(eventID), data).Err(); err != nil {
		// local clients still get the update
		n.hub.deliver(eventID, msg)
		return fmt.Errorf("publish realtime message: %w", err)
	}
	return nil
}

// Run relays Redis messages into the local hub until ctx is cancelled
func (n *RedisNotifier) Run(ctx context.Context) error {
	pubsub := n.client.PSubscribe(ctx, constants.CHANNEL_REALTIME_PATTERN)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe realtime channels: %w", err)
	}
	n.log.Info("Realtime relay subscribed", "pattern", constants.CHANNEL_REALTIME_PATTERN)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				n.log.Warn("Dropping malformed realtime message", "channel", m.Channel, "error", err)
				continue
			}
			n.hub.deliver(msg.EventID, msg)
		}
	}
}
