package entities

import (
	"fmt"
	"testing"
	"time"
)

func TestSessionState_AppendHistory(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("appends in order", func(t *testing.T) {
		var s SessionState
		s.AppendHistory(RoleUser, "hello", now, 10)
		s.AppendHistory(RoleAssistant, "hi", now, 10)

		if len(s.History) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(s.History))
		}
		if s.History[0].Role != RoleUser || s.History[0].Text != "hello" {
			t.Fatalf("unexpected first entry: %+v", s.History[0])
		}
		if s.History[1].Role != RoleAssistant || s.History[1].Text != "hi" {
			t.Fatalf("unexpected second entry: %+v", s.History[1])
		}
	})

	t.Run("evicts oldest first", func(t *testing.T) {
		var s SessionState
		for i := 0; i < 7; i++ {
			s.AppendHistory(RoleUser, fmt.Sprintf("msg-%d", i), now, 5)
		}
		if len(s.History) != 5 {
			t.Fatalf("expected bounded history of 5, got %d", len(s.History))
		}
		if s.History[0].Text != "msg-2" || s.History[4].Text != "msg-6" {
			t.Fatalf("unexpected window: first=%q last=%q", s.History[0].Text, s.History[4].Text)
		}
	})

	t.Run("zero max keeps everything", func(t *testing.T) {
		var s SessionState
		for i := 0; i < 3; i++ {
			s.AppendHistory(RoleUser, "m", now, 0)
		}
		if len(s.History) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(s.History))
		}
	})
}
