package request

import "strings"

// ChatRequest is the payload for the chat endpoint. A missing session_id maps
// to the shared "default" session, matching the web client's anonymous mode.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

func (r ChatRequest) ResolveSessionID() string {
	if v := strings.TrimSpace(r.SessionID); v != "" {
		return v
	}
	return "default"
}

func (r ChatRequest) ResolveMessage() string {
	return strings.TrimSpace(r.Message)
}
