package gotlui

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig configures a circuit breaker around a translation service.
type BreakerConfig struct {
	Name                string        // Breaker name reported on state changes
	ConsecutiveFailures uint32        // Failures that open the circuit (default 5)
	OpenTimeout         time.Duration // Time the circuit stays open (default 30s)
	HalfOpenRequests    uint32        // Probes allowed while half-open (default 1)
	OnStateChange       func(name, from, to string)
}

// BreakerService stops calling a failing translation service for a while.
// While open, calls fail immediately, which the dispatcher turns into
// cached source text instead of a pile of timed-out requests.
type BreakerService struct {
	service TranslationService
	cb      *gobreaker.CircuitBreaker
}

// NewBreakerService wraps service with a circuit breaker.
func NewBreakerService(service TranslationService, cfg BreakerConfig) *BreakerService {
	if cfg.Name == "" {
		cfg.Name = "translation-service"
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// A caller giving up says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(name, from.String(), to.String())
		}
	}

	return &BreakerService{
		service: service,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// TranslateBatch implements TranslationService through the breaker.
func (s *BreakerService) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.service.TranslateBatch(ctx, req)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	translations, _ := out.(map[string]string)
	return translations, nil
}

// TranslateText implements TextTranslator when the wrapped service does.
func (s *BreakerService) TranslateText(ctx context.Context, req TextRequest) (string, error) {
	single, ok := s.service.(TextTranslator)
	if !ok {
		return "", ErrNoTextEndpoint
	}
	out, err := s.cb.Execute(func() (interface{}, error) {
		return single.TranslateText(ctx, req)
	})
	if err != nil {
		return "", breakerError(err)
	}
	translated, _ := out.(string)
	return translated, nil
}

// State returns the breaker state: "closed", "half-open" or "open".
func (s *BreakerService) State() string {
	return s.cb.State().String()
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ProviderError{Message: "circuit open", Cause: err, Retryable: false}
	}
	return err
}
