// Package memory holds the in-process session store. Session state is owned
// exclusively by this store; callers only ever see it inside Update or as a
// copy.
package memory

import (
	"sync"
	"time"

	"urbanstyle_assistant/internal/domain/entities"
	"urbanstyle_assistant/internal/usecase/interfaces"
)

const defaultSessionTTL = 30 * time.Minute

// SessionStore keeps one SessionState per session id with per-session
// locking: two turns on the same session serialize, turns on different
// sessions run concurrently. Expired sessions are purged lazily on access.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*lockedSession
}

type lockedSession struct {
	mu    sync.Mutex
	state entities.SessionState
}

var _ interfaces.ISessionStore = (*SessionStore)(nil)

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]*lockedSession{},
	}
}

// Update runs fn with exclusive access to the session, creating fresh state
// when the session is new or expired. The per-session lock is held for the
// whole of fn, so a turn's read-modify-write of the draft cannot interleave
// with another turn on the same session.
func (st *SessionStore) Update(sessionID string, fn func(s *entities.SessionState) error) error {
	now := st.now().UTC()
	ls := st.acquire(sessionID, now)

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if st.expired(ls.state, now) {
		ls.state = newState(sessionID, now)
	}
	snapshot := cloneState(ls.state)
	if err := fn(&ls.state); err != nil {
		ls.state = snapshot
		return err
	}
	ls.state.LastActivity = now
	return nil
}

// Snapshot returns a copy of the live state, if any.
func (st *SessionStore) Snapshot(sessionID string) (entities.SessionState, bool) {
	st.mu.Lock()
	ls, ok := st.sessions[sessionID]
	st.mu.Unlock()
	if !ok {
		return entities.SessionState{}, false
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if st.expired(ls.state, st.now().UTC()) {
		return entities.SessionState{}, false
	}
	return cloneState(ls.state), true
}

// Delete removes the session entirely.
func (st *SessionStore) Delete(sessionID string) {
	st.mu.Lock()
	delete(st.sessions, sessionID)
	st.mu.Unlock()
}

func (st *SessionStore) acquire(sessionID string, now time.Time) *lockedSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	ls, ok := st.sessions[sessionID]
	if !ok {
		ls = &lockedSession{state: newState(sessionID, now)}
		st.sessions[sessionID] = ls
	}
	return ls
}

func (st *SessionStore) expired(s entities.SessionState, now time.Time) bool {
	return !s.LastActivity.IsZero() && now.Sub(s.LastActivity) > st.ttl
}

func newState(sessionID string, now time.Time) entities.SessionState {
	return entities.SessionState{
		SessionID:    sessionID,
		CreatedAt:    now,
		LastActivity: now,
	}
}

func cloneState(s entities.SessionState) entities.SessionState {
	out := s
	out.History = append([]entities.ChatMessage(nil), s.History...)
	out.PendingSuggestions = append([]string(nil), s.PendingSuggestions...)
	out.Draft.LineItems = append([]entities.LineItem(nil), s.Draft.LineItems...)
	if s.Draft.Stated != nil {
		out.Draft.Stated = make(map[string]bool, len(s.Draft.Stated))
		for k, v := range s.Draft.Stated {
			out.Draft.Stated[k] = v
		}
	}
	return out
}
