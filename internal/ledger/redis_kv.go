package ledger

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV guarda o blob do ledger no Redis, sem TTL.
type RedisKV struct {
	R *redis.Client
}

func NewRedisKV(r *redis.Client) *RedisKV { return &RedisKV{R: r} }

func (k *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := k.R.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (k *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return k.R.Set(ctx, key, value, 0).Err()
}
