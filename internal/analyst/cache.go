package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixtureCache guarda o resultado da busca de fixtures por data.
type FixtureCache interface {
	Get(ctx context.Context, date string) (*FixtureResult, bool, error)
	Set(ctx context.Context, date string, v FixtureResult) error
}

// RedisCache implementa FixtureCache com JSON + TTL no Redis.
type RedisCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewRedisCache(r *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{R: r, TTL: ttl}
}

func keyFixtures(date string) string { return "fixtures:date:" + date }

func (c *RedisCache) Get(ctx context.Context, date string) (*FixtureResult, bool, error) {
	return decodeHit(c.R.Get(ctx, keyFixtures(date)).Bytes())
}

// decodeHit traduz a resposta do GET: chave ausente (redis.Nil) é miss, não erro.
func decodeHit(b []byte, err error) (*FixtureResult, bool, error) {
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out FixtureResult
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

func (c *RedisCache) Set(ctx context.Context, date string, v FixtureResult) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyFixtures(date), b, c.TTL).Err()
}
