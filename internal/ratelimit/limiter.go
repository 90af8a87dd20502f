package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a name for logging/debugging.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a new rate limiter with the given requests per second.
// The burst size equals the rate, allowing short bursts up to the rate limit.
func New(name string, requestsPerSecond int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows a request to proceed.
// Returns an error if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}

// Allow reports whether a request can proceed without blocking.
// Use this for non-blocking checks; prefer Wait for most cases.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the name of this rate limiter.
func (l *Limiter) Name() string {
	return l.name
}

// Registry hands out one limiter per remote host so each rate-sensitive
// service is throttled independently of the others.
type Registry struct {
	mu       sync.Mutex
	perHost  map[string]*Limiter
	ratePerS int
}

// NewRegistry creates a registry whose limiters allow the given number
// of requests per second per host.
func NewRegistry(requestsPerSecond int) *Registry {
	return &Registry{
		perHost:  make(map[string]*Limiter),
		ratePerS: requestsPerSecond,
	}
}

// ForHost returns the limiter for the given host, creating it on first use.
func (r *Registry) ForHost(host string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.perHost[host]; ok {
		return l
	}
	l := New(host, r.ratePerS)
	r.perHost[host] = l
	return l
}
