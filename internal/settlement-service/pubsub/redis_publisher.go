package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const ChannelPeriodSettled = "period_settled_broadcast"

// RedisBroadcaster publica o resultado de cada liquidação num canal Pub/Sub,
// para painéis e consumidores fora do caminho transacional.
type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}
