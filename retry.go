package gotlui

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns retry settings that fit inside the default
// request timeout: two quick retries before the dispatcher gives up.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   1 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes a function with exponential backoff retry.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	return false
}

// RetryableService wraps a TranslationService with retry logic.
type RetryableService struct {
	service TranslationService
	config  RetryConfig
}

// NewRetryableService creates a new service with retry logic.
func NewRetryableService(service TranslationService, cfg RetryConfig) *RetryableService {
	return &RetryableService{
		service: service,
		config:  cfg,
	}
}

// TranslateBatch implements TranslationService with retry logic.
func (s *RetryableService) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	return WithRetry(ctx, s.config, func() (map[string]string, error) {
		return s.service.TranslateBatch(ctx, req)
	})
}

// TranslateText implements TextTranslator when the wrapped service does.
func (s *RetryableService) TranslateText(ctx context.Context, req TextRequest) (string, error) {
	single, ok := s.service.(TextTranslator)
	if !ok {
		return "", ErrNoTextEndpoint
	}
	return WithRetry(ctx, s.config, func() (string, error) {
		return single.TranslateText(ctx, req)
	})
}

// ErrNoTextEndpoint is returned by wrappers whose inner service only
// translates batches.
var ErrNoTextEndpoint = &ProviderError{Message: "service has no single-text endpoint"}
