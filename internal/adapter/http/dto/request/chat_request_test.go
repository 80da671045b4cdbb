package request

import "testing"

func TestChatRequest_ResolveSessionID(t *testing.T) {
	t.Run("explicit id", func(t *testing.T) {
		r := ChatRequest{SessionID: " s1 ", Message: "hi"}
		if got := r.ResolveSessionID(); got != "s1" {
			t.Fatalf("expected s1, got %q", got)
		}
	})

	t.Run("defaults when blank", func(t *testing.T) {
		r := ChatRequest{SessionID: "   ", Message: "hi"}
		if got := r.ResolveSessionID(); got != "default" {
			t.Fatalf("expected default, got %q", got)
		}
	})
}

func TestChatRequest_ResolveMessage(t *testing.T) {
	r := ChatRequest{Message: "  build me an invoice  "}
	if got := r.ResolveMessage(); got != "build me an invoice" {
		t.Fatalf("unexpected message %q", got)
	}
}
