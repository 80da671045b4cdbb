package entities

import "time"

// MessageRole identifies the author of a conversation turn.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is a single turn in a session's history.
type ChatMessage struct {
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

// SessionState is the conversational state owned by the session store.
//
// Ownership rules:
//   - At most one live draft per session; replaced only by an explicit reset.
//   - History is append-only and bounded; the store evicts oldest-first.
//   - All mutation happens under the store's per-session lock.
type SessionState struct {
	SessionID          string        `json:"session_id"`
	Draft              InvoiceDraft  `json:"draft"`
	HasDraft           bool          `json:"has_draft"`
	History            []ChatMessage `json:"history"`
	PendingSuggestions []string      `json:"pending_suggestions"`
	CreatedAt          time.Time     `json:"created_at"`
	LastActivity       time.Time     `json:"last_activity"`
}

// AppendHistory records a turn, evicting the oldest entries beyond maxLen.
func (s *SessionState) AppendHistory(role MessageRole, text string, at time.Time, maxLen int) {
	s.History = append(s.History, ChatMessage{Role: role, Text: text, Timestamp: at})
	if maxLen > 0 && len(s.History) > maxLen {
		s.History = s.History[len(s.History)-maxLen:]
	}
}
