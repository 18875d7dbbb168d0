package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

type Config interface {
	RedisOptions() (addr, password string, db int)
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config) (*goredis.Client, error) {
	addr, password, db := cfg.RedisOptions()

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return client, nil
}
