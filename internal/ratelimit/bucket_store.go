package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
)

// BucketLimiter keeps one rate.Limiter per client address in a bounded
// ristretto cache. Idle buckets expire after the configured TTL, and when
// more addresses are active than the cache holds the least valuable
// buckets are evicted. An evicted client starts over with a full bucket.
type BucketLimiter struct {
	buckets *ristretto.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	mu      sync.Mutex // serializes get-or-create
	closed  atomic.Bool
}

// NewBucketLimiter creates a limiter allowing perMinute failures per
// address on average, and burst failures at once.
func NewBucketLimiter(perMinute, burst int, maxClients int64, ttl time.Duration) (*BucketLimiter, error) {
	if perMinute <= 0 {
		return nil, fmt.Errorf("ratelimit: per minute limit must be positive, got %d", perMinute)
	}
	if burst <= 0 {
		burst = perMinute
	}

	buckets, err := ristretto.NewCache(&ristretto.Config[string, *rate.Limiter]{
		NumCounters:        maxClients * 10,
		MaxCost:            maxClients,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: create bucket cache: %w", err)
	}

	log.Debug().
		Int("per_minute", perMinute).
		Int("burst", burst).
		Int64("max_clients", maxClients).
		Dur("ttl", ttl).
		Msg("auth failure limiter created")

	return &BucketLimiter{
		buckets: buckets,
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		ttl:     ttl,
	}, nil
}

// New returns the limiter described by cfg, or a NoopLimiter when
// throttling is disabled.
func New(cfg config.FailureLimitConfig) (FailureLimiter, error) {
	if !cfg.IsEnabled() {
		return NoopLimiter{}, nil
	}
	return NewBucketLimiter(cfg.PerMinute, cfg.GetBurst(), cfg.GetMaxClients(), cfg.GetTTL())
}

// Allow reports whether addr still has at least one failure to spend.
func (l *BucketLimiter) Allow(addr string) bool {
	if l.closed.Load() {
		return true
	}
	bucket, ok := l.buckets.Get(addr)
	if !ok {
		return true
	}
	return bucket.Tokens() >= 1
}

// RecordFailure takes one token from addr's bucket and extends its TTL.
func (l *BucketLimiter) RecordFailure(addr string) {
	if l.closed.Load() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets.Get(addr)
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
	}
	if !bucket.Allow() {
		log.Debug().Str("client_ip", addr).Msg("auth failure budget exhausted")
	}

	l.buckets.SetWithTTL(addr, bucket, 1, l.ttl)
	l.buckets.Wait()
}

// Close releases the cache. The limiter allows everything afterwards.
func (l *BucketLimiter) Close() {
	if l.closed.Swap(true) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets.Close()
}

var _ FailureLimiter = (*BucketLimiter)(nil)
