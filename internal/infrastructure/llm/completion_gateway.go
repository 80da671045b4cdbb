// Package llm implements the completion gateway over OpenAI-compatible
// chat-completion providers with ordered fallback.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"urbanstyle_assistant/internal/domain/entities"
	"urbanstyle_assistant/internal/usecase/interfaces"
)

var ErrNoProvidersConfigured = errors.New("no completion providers configured")

const defaultAttemptTimeout = 20 * time.Second

// Config selects the provider chain. BaseURLs is an ordered, comma/space
// separated list; earlier entries are preferred.
//
// Supported env vars:
//   - LLM_BASE_URLS (e.g. https://primary/v1,https://secondary/v1)
//   - LLM_API_KEY (optional bearer token, shared across providers)
//   - LLM_MODEL (default: gpt-4o-mini)
//   - LLM_TIMEOUT_SECONDS (per-attempt timeout, default 20)
type Config struct {
	BaseURLs       string
	APIKey         string
	Model          string
	AttemptTimeout time.Duration
}

func ConfigFromEnv() Config {
	timeout := defaultAttemptTimeout
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SECONDS"))); err == nil && v > 0 {
		timeout = time.Duration(v) * time.Second
	}
	model := strings.TrimSpace(os.Getenv("LLM_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}
	return Config{
		BaseURLs:       os.Getenv("LLM_BASE_URLS"),
		APIKey:         os.Getenv("LLM_API_KEY"),
		Model:          model,
		AttemptTimeout: timeout,
	}
}

// CompletionGateway tries each provider once per logical call, in order; a
// timeout or transport error advances to the next. After exhaustion it returns
// interfaces.ErrCompletionUnavailable as a typed failure so callers can apply
// discard-and-continue policies. Generations are never cached.
type CompletionGateway struct {
	providers []string
	model     string
	apiKey    string
	timeout   time.Duration
	http      *http.Client
}

var _ interfaces.ICompletionGateway = (*CompletionGateway)(nil)

func NewCompletionGateway(cfg Config) (*CompletionGateway, error) {
	providers := splitBaseURLs(cfg.BaseURLs)
	if len(providers) == 0 {
		return nil, ErrNoProvidersConfigured
	}
	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	log.Printf("[llm][gateway] configured providers=%d model=%s timeout=%s", len(providers), cfg.Model, timeout)
	return &CompletionGateway{
		providers: providers,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		timeout:   timeout,
		http:      &http.Client{},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete runs the prompt through the provider chain and returns the raw
// text of the first successful response.
func (g *CompletionGateway) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	system := req.System
	if req.SchemaHint != "" {
		system += "\nRespond with JSON matching: " + req.SchemaHint
	}
	messages := []chatMessage{}
	if strings.TrimSpace(system) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(chatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	var failures []string
	for _, base := range g.providers {
		content, err := g.completeAt(ctx, base+"/chat/completions", payload)
		if err == nil {
			return content, nil
		}
		log.Printf("[llm][gateway] provider failed base=%s err=%v", base, err)
		failures = append(failures, fmt.Sprintf("%s (%v)", base, err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %s", interfaces.ErrCompletionUnavailable, strings.Join(failures, " | "))
}

const classifySystemPrompt = "Classify the user's message for an invoice shopping assistant. " +
	"Reply with exactly one word from: invoice_update, faq_query, currency_convert, reset, unknown."

// Classify asks the provider chain for a one-word intent label.
func (g *CompletionGateway) Classify(ctx context.Context, text string) (entities.Intent, error) {
	raw, err := g.Complete(ctx, interfaces.CompletionRequest{System: classifySystemPrompt, Prompt: text})
	if err != nil {
		return entities.IntentUnknown, err
	}

	label := strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"'.`))
	switch entities.Intent(label) {
	case entities.IntentInvoiceUpdate, entities.IntentFAQQuery, entities.IntentCurrencyConvert, entities.IntentReset:
		return entities.Intent(label), nil
	}
	return entities.IntentUnknown, nil
}

func (g *CompletionGateway) completeAt(ctx context.Context, endpoint string, payload []byte) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(request)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %s", resp.Status)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("response missing choices")
	}
	content := decoded.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("response empty")
	}
	return content, nil
}

func normalizeBaseURL(baseURL string) string {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return trimmed
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return trimmed
	}
	return trimmed + "/v1"
}

func splitBaseURLs(raw string) []string {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r' || r == '\t' || r == ' '
	})
	out := make([]string, 0, len(tokens))
	seen := map[string]struct{}{}
	for _, token := range tokens {
		normalized := normalizeBaseURL(token)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
