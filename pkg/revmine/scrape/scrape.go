// Package scrape defines the scraper contract plus the request pacing
// and retry primitives shared by platform clients.
package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/driftline/revmine/pkg/revmine/config"
	"github.com/driftline/revmine/pkg/revmine/review"
)

// Scraper collects raw reviews for one platform.
type Scraper interface {
	// Platform identifies the source, e.g. "reddit" or "play_store".
	Platform() string

	// ValidateConfig reports whether the app definition carries
	// everything this scraper needs.
	ValidateConfig(app config.App) error

	// Scrape fetches up to limit raw reviews for the app. Partial
	// results with a nil error are valid when the source runs dry.
	Scrape(ctx context.Context, app config.App, limit int) ([]review.Review, error)
}

// RetryPolicy retries an operation with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do runs fn until it succeeds, attempts are exhausted, or the context
// is done. The delay doubles after each failure.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

// Limiter enforces a minimum interval between requests.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewLimiter creates a limiter with the given minimum interval between
// calls. A non-positive interval disables pacing.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait blocks until the interval since the previous call has elapsed
// or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	now := time.Now()
	wait := l.interval - now.Sub(l.last)
	if wait < 0 {
		wait = 0
	}
	l.last = now.Add(wait)
	l.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
