package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to Redis. The orchestrator treats Redis as optional; a
// nil client just disables cross-restart result mirroring.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
