package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client, retrying with a linear backoff so the
// service tolerates Redis starting after it does.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConnString, err)
	}

	client := redis.NewClient(opts)
	for i := range cfg.RetryAttempts {
		if err := client.Ping(ctx).Err(); err != nil {
			time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
			continue
		}
		return client, nil
	}

	_ = client.Close()
	return nil, ErrRedisNotReady
}
