package provider

import (
	"context"
	"sync"
	"time"
)

// MockProvider is a mock translation service for testing. It is safe for
// concurrent use. Texts without an entry in Translations are left out of
// the response, which callers treat as untranslated.
type MockProvider struct {
	mu           sync.Mutex
	translations map[string]string
	err          error
	delay        time.Duration
	batchCalls   int
	textCalls    int
	requests     []BatchRequest
}

// NewMockProvider creates a new mock provider with default Arabic
// translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		translations: map[string]string{
			"Dashboard":   "لوحة التحكم",
			"Create Task": "إنشاء مهمة",
			"Settings":    "الإعدادات",
			"Tasks":       "المهام",
			"Calendar":    "التقويم",
			"Save":        "حفظ",
			"Cancel":      "إلغاء",
		},
	}
}

// SetTranslation adds or replaces a canned translation.
func (m *MockProvider) SetTranslation(text, translated string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[text] = translated
}

// SetError makes every subsequent call fail with err (nil to clear).
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes every call take at least d, honouring cancellation.
func (m *MockProvider) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// TranslateBatch returns the canned translations for req.Texts.
func (m *MockProvider) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	m.mu.Lock()
	m.batchCalls++
	m.requests = append(m.requests, BatchRequest{
		Texts:      append([]string(nil), req.Texts...),
		TargetLang: req.TargetLang,
		SourceLang: req.SourceLang,
	})
	delay, err := m.delay, m.err
	m.mu.Unlock()

	if err := m.wait(ctx, delay); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(req.Texts))
	for _, text := range req.Texts {
		if translated, ok := m.translations[text]; ok {
			out[text] = translated
		}
	}
	return out, nil
}

// TranslateText returns the canned translation for req.Text, or the text
// itself when there is none.
func (m *MockProvider) TranslateText(ctx context.Context, req TextRequest) (string, error) {
	m.mu.Lock()
	m.textCalls++
	delay, err := m.delay, m.err
	m.mu.Unlock()

	if err := m.wait(ctx, delay); err != nil {
		return "", err
	}
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if translated, ok := m.translations[req.Text]; ok {
		return translated, nil
	}
	return req.Text, nil
}

func (m *MockProvider) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BatchCalls returns the number of TranslateBatch calls.
func (m *MockProvider) BatchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

// TextCalls returns the number of TranslateText calls.
func (m *MockProvider) TextCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textCalls
}

// Requests returns a copy of every batch request received.
func (m *MockProvider) Requests() []BatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BatchRequest(nil), m.requests...)
}

// Reset clears the counters and recorded requests.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls = 0
	m.textCalls = 0
	m.requests = nil
}

// Verify MockProvider implements Service
var _ Service = (*MockProvider)(nil)
