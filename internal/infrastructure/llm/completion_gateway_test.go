package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"urbanstyle_assistant/internal/domain/entities"
	"urbanstyle_assistant/internal/usecase/interfaces"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}
}

func TestNewCompletionGateway(t *testing.T) {
	t.Run("no providers", func(t *testing.T) {
		_, err := NewCompletionGateway(Config{})
		if !errors.Is(err, ErrNoProvidersConfigured) {
			t.Fatalf("expected ErrNoProvidersConfigured, got %v", err)
		}
	})
}

func TestCompletionGateway_Complete(t *testing.T) {
	t.Run("first provider answers", func(t *testing.T) {
		srv := httptest.NewServer(completionHandler(t, "hello"))
		defer srv.Close()

		g, err := NewCompletionGateway(Config{BaseURLs: srv.URL, Model: "test-model"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out, err := g.Complete(context.Background(), interfaces.CompletionRequest{Prompt: "hi"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "hello" {
			t.Fatalf("unexpected content %q", out)
		}
	})

	t.Run("falls back to the next provider", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer bad.Close()
		good := httptest.NewServer(completionHandler(t, "fallback answer"))
		defer good.Close()

		g, err := NewCompletionGateway(Config{BaseURLs: bad.URL + "," + good.URL, Model: "test-model"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out, err := g.Complete(context.Background(), interfaces.CompletionRequest{Prompt: "hi"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "fallback answer" {
			t.Fatalf("unexpected content %q", out)
		}
	})

	t.Run("exhaustion returns typed error", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer bad.Close()

		g, err := NewCompletionGateway(Config{BaseURLs: bad.URL, Model: "test-model"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = g.Complete(context.Background(), interfaces.CompletionRequest{Prompt: "hi"})
		if !errors.Is(err, interfaces.ErrCompletionUnavailable) {
			t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
		}
	})

	t.Run("schema hint and bearer token reach the provider", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Errorf("unexpected auth header %q", got)
			}
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
				t.Errorf("unexpected messages: %+v", req.Messages)
			}
			completionHandler(t, "ok")(w, r)
		}))
		defer srv.Close()

		g, err := NewCompletionGateway(Config{BaseURLs: srv.URL, APIKey: "sk-test", Model: "test-model"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := g.Complete(context.Background(), interfaces.CompletionRequest{
			System:     "extract fields",
			Prompt:     "hi",
			SchemaHint: `{"customer_name"}`,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty content is a provider failure", func(t *testing.T) {
		srv := httptest.NewServer(completionHandler(t, "   "))
		defer srv.Close()

		g, _ := NewCompletionGateway(Config{BaseURLs: srv.URL, Model: "test-model"})
		if _, err := g.Complete(context.Background(), interfaces.CompletionRequest{Prompt: "hi"}); !errors.Is(err, interfaces.ErrCompletionUnavailable) {
			t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
		}
	})

	t.Run("cancelled context stops the chain", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			completionHandler(t, "late")(w, r)
		}))
		defer srv.Close()

		g, _ := NewCompletionGateway(Config{BaseURLs: srv.URL + "," + srv.URL + "/other", Model: "test-model"})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if _, err := g.Complete(ctx, interfaces.CompletionRequest{Prompt: "hi"}); !errors.Is(err, interfaces.ErrCompletionUnavailable) {
			t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
		}
	})
}

func TestCompletionGateway_Classify(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    entities.Intent
	}{
		{"plain label", "invoice_update", entities.IntentInvoiceUpdate},
		{"quoted label", `"currency_convert"`, entities.IntentCurrencyConvert},
		{"uppercase label", "FAQ_QUERY", entities.IntentFAQQuery},
		{"unexpected text", "I think this is an invoice", entities.IntentUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(completionHandler(t, tc.content))
			defer srv.Close()

			g, err := NewCompletionGateway(Config{BaseURLs: srv.URL, Model: "test-model"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			intent, err := g.Classify(context.Background(), "some message")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if intent != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, intent)
			}
		})
	}
}

func TestSplitBaseURLs(t *testing.T) {
	t.Run("normalizes and dedupes", func(t *testing.T) {
		got := splitBaseURLs("api.example.com, https://api.example.com/v1/ https://other.example.com")
		want := []string{"https://api.example.com/v1", "https://other.example.com/v1"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := splitBaseURLs("  "); len(got) != 0 {
			t.Fatalf("expected none, got %v", got)
		}
	})
}
