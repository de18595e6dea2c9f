package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// RedisNotifier publica notificações no canal Pub/Sub consumido pelo hub WebSocket.
type RedisNotifier struct {
	r       *redis.Client
	channel string
}

func NewRedisNotifier(r *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{r: r, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, msg, typ string) error {
	b, err := json.Marshal(events.Notification{ID: uuid.NewString(), Message: msg, Type: typ})
	if err != nil {
		return err
	}
	return n.r.Publish(ctx, n.channel, b).Err()
}
