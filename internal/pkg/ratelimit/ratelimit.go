// Package ratelimit provides fixed-window counters backed by Redis.
//
// A window starts on the first hit for a key and lasts for the given duration;
// every replica shares the same counter.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter interface {
	// Allow increments the counter for key and reports whether it is still
	// within limit for the current window.
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

type FixedWindow struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client) *FixedWindow {
	return &FixedWindow{
		client: client,
		prefix: "ratelimit:",
	}
}

func (f *FixedWindow) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	var incr *redis.IntCmd
	_, err := f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, f.prefix+key)
		pipe.ExpireNX(ctx, f.prefix+key, window)
		return nil
	})
	if err != nil {
		return false, err
	}

	return incr.Val() <= limit, nil
}
