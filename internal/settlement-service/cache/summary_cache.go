package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache de leitura dos resumos de liquidação. O Postgres continua sendo a
// fonte de verdade; aqui só evita bater no banco a cada consulta.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func New(r *redis.Client, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

func keyPeriod(periodID string) string { return "settlement:summary:" + periodID }

func (c *Cache) GetSummary(ctx context.Context, periodID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyPeriod(periodID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetSummary(ctx context.Context, periodID string, v any) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyPeriod(periodID), b, c.TTL).Err()
}
