package gotlui

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket bounding calls to the translation service.
// Batching already collapses most traffic; the limiter protects the
// backend from bursts of TranslateMany and direct calls.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute (default 60)
	BurstSize         int // Maximum burst size (default: same as RPM)
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := float64(cfg.RequestsPerMinute)
	if rpm <= 0 {
		rpm = 60
	}

	burst := float64(cfg.BurstSize)
	if burst <= 0 {
		burst = rpm
	}

	return &RateLimiter{
		tokens:     burst,
		maxTokens:  burst,
		refillRate: rpm / 60.0,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait := r.reserve()
		if wait == 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire attempts to acquire a token without blocking.
func (r *RateLimiter) TryAcquire() bool {
	return r.reserve() == 0
}

// reserve takes a token and returns 0, or returns how long until the next
// token is due.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	missing := 1 - r.tokens
	return time.Duration(missing / r.refillRate * float64(time.Second))
}

// refill adds tokens based on elapsed time (must be called with lock held).
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.lastRefill = now

	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
}

// Available returns the current number of available tokens.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// RateLimitedService wraps a TranslationService with rate limiting.
type RateLimitedService struct {
	service TranslationService
	limiter *RateLimiter
}

// NewRateLimitedService creates a new rate-limited service.
func NewRateLimitedService(service TranslationService, cfg RateLimitConfig) *RateLimitedService {
	return &RateLimitedService{
		service: service,
		limiter: NewRateLimiter(cfg),
	}
}

// TranslateBatch implements TranslationService with rate limiting.
func (s *RateLimitedService) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.service.TranslateBatch(ctx, req)
}

// TranslateText implements TextTranslator when the wrapped service does.
func (s *RateLimitedService) TranslateText(ctx context.Context, req TextRequest) (string, error) {
	single, ok := s.service.(TextTranslator)
	if !ok {
		return "", ErrNoTextEndpoint
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return single.TranslateText(ctx, req)
}

func (s *RateLimitedService) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &ProviderError{
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Retryable: false,
		}
	}
	return nil
}

// Limiter returns the underlying rate limiter for inspection.
func (s *RateLimitedService) Limiter() *RateLimiter {
	return s.limiter
}
