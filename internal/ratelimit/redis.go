package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

const defaultPollInterval = 50 * time.Millisecond

// Distributed is a sliding-window limiter backed by a Redis sorted set, so
// several replicas sharing one API key stay under the provider quota together.
type Distributed struct {
	rdb    *redis.Client
	script *redis.Script
	key    string
	limit  int
	window time.Duration
	poll   time.Duration
}

var _ Limiter = (*Distributed)(nil)

// NewDistributed allows limit requests per window under key.
func NewDistributed(rdb *redis.Client, key string, limit int, window time.Duration) *Distributed {
	return &Distributed{
		rdb:    rdb,
		script: redis.NewScript(slidingWindowLua),
		key:    "ratelimit:" + key,
		limit:  limit,
		window: window,
		poll:   defaultPollInterval,
	}
}

// Allow counts and admits a request if the window has room.
func (d *Distributed) Allow(ctx context.Context) (bool, error) {
	now := time.Now().UnixMicro()

	result, err := d.script.Run(ctx, d.rdb, []string{d.key}, now, d.window.Microseconds(), d.limit).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("ratelimit: allow %s: %w", d.key, err)
	}
	if len(result) < 2 {
		return false, fmt.Errorf("ratelimit: allow %s: unexpected result length %d", d.key, len(result))
	}

	return result[0] == 1, nil
}

// Wait polls Allow until admitted or ctx is done.
func (d *Distributed) Wait(ctx context.Context) error {
	for {
		allowed, err := d.Allow(ctx)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(d.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("ratelimit: wait %s: %w", d.key, ctx.Err())
		case <-timer.C:
		}
	}
}
