package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds request limits.
type Config struct {
	// MaxConcurrentRequests is the maximum number of in-flight requests.
	// If 0, defaults to 1.
	MaxConcurrentRequests int64

	// RequestsPerSec is the maximum request rate. If 0, unlimited.
	RequestsPerSec float64

	// Burst is the number of requests that may be issued at once when the
	// rate limit allows. If 0, defaults to 1.
	Burst int
}

// Controller bounds the concurrency and rate of requests against a store.
type Controller struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter // nil if unlimited
}

// NewController creates a new request controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	c := &Controller{
		sem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
	}

	if cfg.RequestsPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst)
	}

	return c
}

// Acquire waits for the rate limit and a free request slot.
// Callers must call Release when the request completes.
func (c *Controller) Acquire(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return c.sem.Acquire(ctx, 1)
}

// Release frees a request slot.
func (c *Controller) Release() {
	if c == nil {
		return
	}
	c.sem.Release(1)
}
