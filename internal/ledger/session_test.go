package ledger

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func ts(minute int) time.Time {
	return time.Date(2024, 3, 5, 9, minute, 0, 0, time.UTC)
}

func TestDeriveSessions_CleanAndForcedExits(t *testing.T) {
	t.Parallel()

	logs := []LogEntry{
		{Timestamp: ts(1), UserName: "userA", Action: ActionConnect},
		{Timestamp: ts(2), UserName: "userB", Action: ActionConnect},
		{Timestamp: ts(3), UserName: "userA", Action: ActionDisconnectSave},
		{Timestamp: ts(4), UserName: "userB", Action: ActionForceUnlock},
	}

	got := DeriveSessions(logs, LockState{Status: LockStatusUnlocked})

	t3, t4 := ts(3), ts(4)

	// Newest-first by start time.
	want := []Session{
		{UserName: "userB", StartTime: ts(2), EndTime: &t4, Status: SessionForcedExit},
		{UserName: "userA", StartTime: ts(1), EndTime: &t3, Status: SessionCleanExit},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveSessions_StaleConnectMarksAbnormal(t *testing.T) {
	t.Parallel()

	logs := []LogEntry{
		{Timestamp: ts(1), UserName: "userA", Action: ActionConnect},
		{Timestamp: ts(5), UserName: "userA", Action: ActionConnect},
		{Timestamp: ts(6), UserName: "userA", Action: ActionDisconnectSave},
	}

	got := DeriveSessions(logs, LockState{Status: LockStatusUnlocked})

	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d: %+v", len(got), got)
	}

	// got[0] is the newer session (clean), got[1] the stale one.
	if got[0].Status != SessionCleanExit {
		t.Errorf("expected CLEAN_EXIT for newer session, got %s", got[0].Status)
	}

	if got[1].Status != SessionAbnormalExit {
		t.Errorf("expected ABNORMAL_EXIT for stale session, got %s", got[1].Status)
	}

	if got[1].EndTime != nil {
		t.Errorf("stale session has no recorded end, got %v", got[1].EndTime)
	}
}

func TestDeriveSessions_OpenSessionReconciledAgainstLock(t *testing.T) {
	t.Parallel()

	logs := []LogEntry{
		{Timestamp: ts(1), UserName: "alice", Action: ActionConnect},
		{Timestamp: ts(2), UserName: "bob", Action: ActionConnect},
	}

	start := ts(2)
	lock := LockState{Status: LockStatusLocked, ActiveUser: "bob", StartTime: &start}

	got := DeriveSessions(logs, lock)

	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}

	if got[0].UserName != "bob" || got[0].Status != SessionActive {
		t.Errorf("expected bob ACTIVE, got %+v", got[0])
	}

	// alice connected but neither exited nor holds the lock: crashed.
	if got[1].UserName != "alice" || got[1].Status != SessionAbnormalExit {
		t.Errorf("expected alice ABNORMAL_EXIT, got %+v", got[1])
	}
}

func TestDeriveSessions_CloseWithoutOpenIsNoOp(t *testing.T) {
	t.Parallel()

	logs := []LogEntry{
		{Timestamp: ts(1), UserName: "alice", Action: ActionDisconnectSave},
		{Timestamp: ts(2), UserName: "bob", Action: ActionForceUnlock},
	}

	got := DeriveSessions(logs, LockState{Status: LockStatusUnlocked})

	if len(got) != 0 {
		t.Errorf("expected no sessions, got %+v", got)
	}
}

func TestDeriveSessions_UnsortedInput(t *testing.T) {
	t.Parallel()

	// Entries arrive out of order; derivation sorts before replaying.
	logs := []LogEntry{
		{Timestamp: ts(3), UserName: "alice", Action: ActionDisconnectSave},
		{Timestamp: ts(1), UserName: "alice", Action: ActionConnect},
	}

	got := DeriveSessions(logs, LockState{Status: LockStatusUnlocked})

	if len(got) != 1 || got[0].Status != SessionCleanExit {
		t.Errorf("expected one CLEAN_EXIT session, got %+v", got)
	}
}
