package interfaces

import (
	"context"
	"errors"

	"urbanstyle_assistant/internal/domain/entities"
)

// ErrCompletionUnavailable is returned after every configured provider has
// been attempted once and failed. Callers apply their own discard-and-continue
// policy; the gateway never panics or retries a provider twice per call.
var ErrCompletionUnavailable = errors.New("completion providers unavailable")

// CompletionRequest is a single model call. SchemaHint, when non-empty, is a
// JSON-shape instruction appended to the system prompt; the gateway does not
// validate the output against it (callers re-validate, model output is never
// authoritative).
type CompletionRequest struct {
	System     string
	Prompt     string
	SchemaHint string
}

// ICompletionGateway abstracts external LLM providers behind ordered fallback.
//
// The assistant core uses it to:
//   - classify message intent when no deterministic rule matches
//   - extract invoice fields the pattern grammar could not resolve
//   - compose grounded FAQ answers from retrieved passages
type ICompletionGateway interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Classify(ctx context.Context, text string) (entities.Intent, error)
}
