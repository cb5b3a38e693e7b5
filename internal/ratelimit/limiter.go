package ratelimit

import (
	"context"
	"fmt"
	"time"

	"playaway/internal/config"
)

// Bucket names a class of state-mutating endpoints with its own window.
type Bucket string

const (
	BucketAuth   Bucket = "auth"
	BucketForms  Bucket = "forms"
	BucketAdmin  Bucket = "admin"
	BucketUpload Bucket = "upload"
	BucketPublic Bucket = "public_api"
)

type Limit struct {
	MaxRequests int
	Window      time.Duration
}

type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Store is a fixed-window counter. Incr bumps the identity's counter,
// creating it with the given window on first hit, and reports the
// running count plus time left in the window.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}

type Limiter struct {
	store  Store
	limits map[Bucket]Limit
}

func NewLimiter(store Store, limits map[Bucket]Limit) *Limiter {
	return &Limiter{store: store, limits: limits}
}

// NewLimiterFromConfig maps the config's named buckets onto a limiter.
func NewLimiterFromConfig(store Store, cfg config.RateLimitConfig) *Limiter {
	toLimit := func(b config.RateBucketConfig) Limit {
		return Limit{MaxRequests: b.MaxRequests, Window: b.Window}
	}
	return NewLimiter(store, map[Bucket]Limit{
		BucketAuth:   toLimit(cfg.Auth),
		BucketForms:  toLimit(cfg.Forms),
		BucketAdmin:  toLimit(cfg.Admin),
		BucketUpload: toLimit(cfg.Upload),
		BucketPublic: toLimit(cfg.Public),
	})
}

// Check counts one request from identity against the bucket. Buckets
// without a configured limit always allow.
func (l *Limiter) Check(ctx context.Context, bucket Bucket, identity string) (Result, error) {
	limit, ok := l.limits[bucket]
	if !ok || limit.MaxRequests <= 0 {
		return Result{Allowed: true}, nil
	}

	key := fmt.Sprintf("rl:%s:%s", bucket, identity)
	count, remaining, err := l.store.Incr(ctx, key, limit.Window)
	if err != nil {
		return Result{}, err
	}

	if count > int64(limit.MaxRequests) {
		return Result{Allowed: false, RetryAfter: remaining}, nil
	}
	return Result{Allowed: true}, nil
}
