package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZaguanLabs/gotlui"
)

const (
	batchPath = "/translate/batch"
	textPath  = "/translate"

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 512
)

// HTTPProvider calls a translation backend over HTTP. The batch endpoint
// takes {texts, targetLang} and answers {translations: {text: translated}};
// the single endpoint takes {text, targetLang} and answers {translated}.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPConfig holds configuration for the HTTP provider.
type HTTPConfig struct {
	BaseURL string        // Service root, e.g. "https://api.example.com/v1"
	APIKey  string        // Sent as a bearer token when set
	Timeout time.Duration // Client-level timeout (default: 10s)
	Client  *http.Client  // Custom client (optional; Timeout is then ignored)
}

// NewHTTPProvider creates a new HTTP provider.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

// TranslateBatch posts the fragments to the batch endpoint.
func (p *HTTPProvider) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	if len(req.Texts) == 0 {
		return map[string]string{}, nil
	}

	var resp gotlui.BatchResponse
	if err := p.post(ctx, batchPath, req, &resp); err != nil {
		return nil, err
	}
	if resp.Translations == nil {
		return map[string]string{}, nil
	}
	return resp.Translations, nil
}

// TranslateText posts one fragment to the single endpoint. An empty answer
// yields the source text.
func (p *HTTPProvider) TranslateText(ctx context.Context, req TextRequest) (string, error) {
	var resp gotlui.TextResponse
	if err := p.post(ctx, textPath, req, &resp); err != nil {
		return "", err
	}
	if resp.Translated == "" {
		return req.Text, nil
	}
	return resp.Translated, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &gotlui.ProviderError{Message: "encoding request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &gotlui.ProviderError{Message: "building request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", gotlui.UserAgent())
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return &gotlui.ProviderError{
			Message:   fmt.Sprintf("POST %s", path),
			Cause:     err,
			Retryable: !errors.Is(err, context.Canceled),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &gotlui.ProviderError{
			Message:    fmt.Sprintf("POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(snippet))),
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatus(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &gotlui.ProviderError{Message: "decoding response", Cause: err}
	}
	return nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Verify HTTPProvider implements Service and gotlui.TextTranslator
var (
	_ Service               = (*HTTPProvider)(nil)
	_ gotlui.TextTranslator = (*HTTPProvider)(nil)
)
