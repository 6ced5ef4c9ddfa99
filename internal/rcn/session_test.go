package rcn

import (
	"testing"
	"time"
)

func TestCanApprove(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	live := now.Add(5 * time.Minute)

	if err := CanApprove(SessionPending, live, now); err != nil {
		t.Fatalf("live pending session should be approvable: %v", err)
	}

	// A pending session past expiresAt can never transition to approved.
	if err := CanApprove(SessionPending, now, now); KindOf(err) != KindExpiredState {
		t.Fatalf("expired pending session must not approve, got %v", err)
	}
	if err := CanApprove(SessionPending, now.Add(-time.Minute), now); KindOf(err) != KindExpiredState {
		t.Fatalf("expired pending session must not approve, got %v", err)
	}

	for _, state := range []SessionState{SessionApproved, SessionRejected, SessionExpired, SessionUsed} {
		if err := CanApprove(state, live, now); KindOf(err) != KindExpiredState {
			t.Fatalf("state %s must not approve, got %v", state, err)
		}
	}
}

func TestCanReject(t *testing.T) {
	if err := CanReject(SessionPending); err != nil {
		t.Fatalf("pending session should be rejectable: %v", err)
	}
	for _, state := range []SessionState{SessionApproved, SessionRejected, SessionExpired, SessionUsed} {
		if err := CanReject(state); err == nil {
			t.Fatalf("state %s must not reject", state)
		}
	}
}

func TestCanUse(t *testing.T) {
	if err := CanUse(SessionApproved); err != nil {
		t.Fatalf("approved session should be usable: %v", err)
	}
	// used is reachable only from approved
	for _, state := range []SessionState{SessionPending, SessionRejected, SessionExpired, SessionUsed} {
		if err := CanUse(state); KindOf(err) != KindExpiredState {
			t.Fatalf("state %s must not be usable, got %v", state, err)
		}
	}
}

func TestBlocksNewSession(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

	if !BlocksNewSession(SessionPending, now.Add(time.Minute), now) {
		t.Fatal("live pending session must block a new one")
	}
	if BlocksNewSession(SessionPending, now, now) {
		t.Fatal("expired pending session must not block")
	}
	for _, state := range []SessionState{SessionApproved, SessionRejected, SessionExpired, SessionUsed} {
		if BlocksNewSession(state, now.Add(time.Minute), now) {
			t.Fatalf("state %s must not block", state)
		}
	}
}
