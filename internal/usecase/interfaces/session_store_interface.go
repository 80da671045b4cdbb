package interfaces

import "urbanstyle_assistant/internal/domain/entities"

// ISessionStore owns all SessionState instances, keyed by session id.
//
// Concurrency contract: a draft merge is
// read-modify-write, so Update must serialize all work on one session while
// leaving unrelated sessions free to proceed. Expired sessions are treated as
// absent; an unknown session id is never an error, it creates a fresh state.
type ISessionStore interface {
	// Update runs fn with exclusive access to the session's state, creating
	// the state first if the session is new or expired. Mutations made by fn
	// are retained unless fn returns an error.
	Update(sessionID string, fn func(s *entities.SessionState) error) error

	// Snapshot returns a copy of the session state, if present and live.
	Snapshot(sessionID string) (entities.SessionState, bool)

	// Delete removes the session entirely (draft and history).
	Delete(sessionID string)
}
