package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaguanLabs/gotlui"
	"github.com/ZaguanLabs/gotlui/cache"
	"github.com/ZaguanLabs/gotlui/provider"
	"github.com/ZaguanLabs/gotlui/storage"
)

// openStore opens the configured backend and wraps it in a translation
// cache. The returned func closes the backend.
func (a *app) openStore() (*cache.Store, func() error, error) {
	sc := a.cfg.Store

	var (
		kv      storage.KV
		closeFn func() error
	)
	switch sc.Kind {
	case "memory":
		m := storage.NewMemory(int(sc.QuotaBytes))
		kv, closeFn = m, m.Close
	case "redis":
		r, err := storage.NewRedis(storage.RedisConfig{
			URL:       sc.RedisURL,
			TTL:       a.cfg.Cache.TTL,
			KeyPrefix: sc.KeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		kv, closeFn = r, r.Close
	default:
		if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating cache directory: %w", err)
		}
		s, err := storage.NewSQLite(storage.SQLiteConfig{Path: sc.Path, QuotaBytes: sc.QuotaBytes})
		if err != nil {
			return nil, nil, err
		}
		kv, closeFn = s, s.Close
	}

	store := cache.New(kv,
		cache.WithTTL(a.cfg.Cache.TTL),
		cache.WithEvictCount(a.cfg.Cache.EvictCount),
		cache.WithLogger(a.logger),
	)
	return store, closeFn, nil
}

// newService builds the configured translation service wrapped, from the
// inside out, in a rate limiter, retries and a circuit breaker.
func (a *app) newService() (gotlui.TranslationService, error) {
	pc := a.cfg.Provider

	var svc gotlui.TranslationService
	switch pc.Kind {
	case "catalog":
		svc = provider.NewCatalogProvider(pc.CatalogDir)
	case "http":
		svc = provider.NewHTTPProvider(provider.HTTPConfig{
			BaseURL: pc.BaseURL,
			APIKey:  pc.APIKey,
			Timeout: pc.Timeout,
		})
	default:
		key := pc.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("OpenAI API key required (provider.api_key or OPENAI_API_KEY env)")
		}
		svc = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  key,
			Model:   pc.Model,
			BaseURL: pc.BaseURL,
		})
	}

	rc := a.cfg.Resilience
	if rc.RateLimit > 0 {
		svc = gotlui.NewRateLimitedService(svc, gotlui.RateLimitConfig{RequestsPerMinute: rc.RateLimit})
	}
	if rc.Retries > 0 {
		retry := gotlui.DefaultRetryConfig()
		retry.MaxRetries = rc.Retries
		svc = gotlui.NewRetryableService(svc, retry)
	}
	if rc.BreakerFailures > 0 {
		svc = gotlui.NewBreakerService(svc, gotlui.BreakerConfig{
			ConsecutiveFailures: uint32(rc.BreakerFailures),
			OnStateChange: func(name, from, to string) {
				a.logger.Warn("circuit breaker state changed", "name", name, "from", from, "to", to)
			},
		})
	}
	return svc, nil
}

// session is an open translator together with its backing store.
type session struct {
	translator *gotlui.Translator
	store      *cache.Store
	closeStore func() error
}

func (s *session) Close() error {
	s.translator.Close()
	return s.closeStore()
}

func (a *app) openSession() (*session, error) {
	svc, err := a.newService()
	if err != nil {
		return nil, err
	}
	store, closeStore, err := a.openStore()
	if err != nil {
		return nil, err
	}

	dc := a.cfg.Dispatch
	t := gotlui.NewTranslator(a.cfg.TargetLang, svc,
		gotlui.WithSourceLang(a.cfg.SourceLang),
		gotlui.WithCache(store),
		gotlui.WithLogger(a.logger),
		gotlui.WithBatchSize(dc.BatchSize),
		gotlui.WithDebounce(dc.Debounce),
		gotlui.WithRequestTimeout(dc.RequestTimeout),
		gotlui.WithWaitTimeout(dc.WaitTimeout),
	)
	return &session{translator: t, store: store, closeStore: closeStore}, nil
}
