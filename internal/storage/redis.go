package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis 把每个 store 的状态保存为一个不过期的字符串
type Redis struct {
	client  redis.Cmdable
	prefix  string
	timeout time.Duration
}

func NewRedis(client redis.Cmdable, prefix string, timeout time.Duration) *Redis {
	return &Redis{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
	}
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (r *Redis) Save(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.client.Set(ctx, r.prefix+key, data, 0).Err()
}
