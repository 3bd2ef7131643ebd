package ledger

import (
	"sort"
	"time"
)

// Session status values.
const (
	SessionActive       = "ACTIVE"
	SessionCleanExit    = "CLEAN_EXIT"
	SessionForcedExit   = "FORCED_EXIT"
	SessionAbnormalExit = "ABNORMAL_EXIT"
)

// Session is a derived connect-to-exit interval for one user. Sessions are
// rebuilt from the audit log on demand and never persisted.
type Session struct {
	UserName  string
	StartTime time.Time
	EndTime   *time.Time
	Status    string
}

// DeriveSessions replays the audit log chronologically and reconstructs
// sessions, newest-first by start time.
//
// A CONNECT opens a session for its user; if one is already open the stale
// one is closed as ABNORMAL_EXIT (the log recorded no exit for it). A
// DISCONNECT_SAVE or FORCE_UNLOCK closes the user's open session as
// CLEAN_EXIT or FORCED_EXIT, and is a no-op when none is open. Sessions
// still open after the last entry are reconciled against the live lock:
// the current holder is ACTIVE, anyone else crashed without a closing
// entry and is ABNORMAL_EXIT.
func DeriveSessions(logs []LogEntry, lock LockState) []Session {
	ordered := make([]LogEntry, len(logs))
	copy(ordered, logs)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var sessions []Session

	open := make(map[string]int) // user -> index into sessions

	closeOpen := func(user, status string, end time.Time) {
		idx, ok := open[user]
		if !ok {
			return // closing entry with no open session, tolerated
		}

		endCopy := end
		sessions[idx].EndTime = &endCopy
		sessions[idx].Status = status

		delete(open, user)
	}

	for _, entry := range ordered {
		switch entry.Action {
		case ActionConnect:
			if idx, ok := open[entry.UserName]; ok {
				// Stale open session for the same user: the previous exit
				// never made it into the log.
				sessions[idx].Status = SessionAbnormalExit

				delete(open, entry.UserName)
			}

			sessions = append(sessions, Session{
				UserName:  entry.UserName,
				StartTime: entry.Timestamp,
			})
			open[entry.UserName] = len(sessions) - 1

		case ActionDisconnectSave:
			closeOpen(entry.UserName, SessionCleanExit, entry.Timestamp)

		case ActionForceUnlock:
			closeOpen(entry.UserName, SessionForcedExit, entry.Timestamp)
		}
	}

	// Reconcile sessions left open against the live lock state.
	for user, idx := range open {
		if lock.Status == LockStatusLocked && lock.ActiveUser == user {
			sessions[idx].Status = SessionActive
		} else {
			sessions[idx].Status = SessionAbnormalExit
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})

	return sessions
}
