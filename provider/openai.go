package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/gotlui"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider translates UI fragments with an OpenAI chat model.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// TranslateBatch translates a batch of fragments. Fragments the model
// leaves out are absent from the result.
func (p *OpenAIProvider) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	if len(req.Texts) == 0 {
		return map[string]string{}, nil
	}

	content, err := p.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseResponse(content, req.Texts)
}

// TranslateText translates one fragment as a batch of one.
func (p *OpenAIProvider) TranslateText(ctx context.Context, req TextRequest) (string, error) {
	out, err := p.TranslateBatch(ctx, BatchRequest{
		Texts:      []string{req.Text},
		TargetLang: req.TargetLang,
		SourceLang: req.SourceLang,
	})
	if err != nil {
		return "", err
	}
	if translated, ok := out[req.Text]; ok {
		return translated, nil
	}
	return req.Text, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, req BatchRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		perr := &gotlui.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			perr.StatusCode = apiErr.HTTPStatusCode
			perr.Retryable = retryableStatus(apiErr.HTTPStatusCode)
		}
		return "", perr
	}

	if len(resp.Choices) == 0 {
		return "", &gotlui.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}
	return resp.Choices[0].Message.Content, nil
}

func buildSystemPrompt(req BatchRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = gotlui.DefaultSourceLang
	}
	sourceName := gotlui.GetLanguageName(sourceLang)
	targetName := gotlui.GetLanguageName(req.TargetLang)

	return fmt.Sprintf(`# Role
You translate user interface text from %s to %s.

# Rules
- Fragments are labels, buttons, menu items and short messages. Keep them short and use the conventions of %s software.
- Do NOT translate placeholders (e.g., {{name}}, {count}, %%s, $1), URLs, email addresses or code.
- Preserve leading and trailing whitespace.
- If a fragment must stay unchanged, return it unchanged.

# Format
Return a valid JSON object with a single key "translations" whose value maps every input string to its translation.
Example: { "translations": { "Save": "...", "Cancel": "..." } }
- Use the input strings exactly as keys.
- Do NOT wrap in Markdown code blocks.`, sourceName, targetName, targetName)
}

func buildUserMessage(req BatchRequest) string {
	data, _ := json.Marshal(req.Texts)
	return string(data)
}

// parseResponse accepts the requested {"translations": {src: dst}} shape,
// and falls back to an ordered array, which some models return anyway.
func parseResponse(content string, texts []string) (map[string]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		if raw, ok := obj["translations"]; ok {
			return decodeTranslations(raw, texts)
		}
	}

	var arr []string
	if err := json.Unmarshal([]byte(content), &arr); err == nil {
		return zipTranslations(arr, texts), nil
	}

	return nil, &gotlui.ProviderError{
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

func decodeTranslations(raw json.RawMessage, texts []string) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		wanted := make(map[string]bool, len(texts))
		for _, t := range texts {
			wanted[t] = true
		}
		out := make(map[string]string, len(m))
		for src, dst := range m {
			if wanted[src] && dst != "" {
				out[src] = dst
			}
		}
		return out, nil
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return zipTranslations(arr, texts), nil
	}

	return nil, &gotlui.ProviderError{
		Message:   "translations field has unexpected type",
		Retryable: false,
	}
}

// zipTranslations pairs an ordered array with the request. A length
// mismatch means the order cannot be trusted, so nothing is returned.
func zipTranslations(arr []string, texts []string) map[string]string {
	out := make(map[string]string, len(texts))
	if len(arr) != len(texts) {
		return out
	}
	for i, text := range texts {
		if arr[i] != "" {
			out[text] = arr[i]
		}
	}
	return out
}

func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements Service and gotlui.TextTranslator
var (
	_ Service               = (*OpenAIProvider)(nil)
	_ gotlui.TextTranslator = (*OpenAIProvider)(nil)
)
