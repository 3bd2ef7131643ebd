package ledger

import (
	"fmt"
	"time"
)

// The lock protocol is advisory. The shared folder gives us no atomic
// compare-and-swap across clients, so Acquire is a read-check-then-write
// sequence: two clients racing on an unlocked document can both succeed.
// That window is an accepted limitation of the medium, not something to
// paper over with fake atomicity. The flock taken through Folder.Lock only
// serializes processes on the same machine; it does not travel across
// network shares.

// Acquire claims the single-writer lock for userName and returns the
// document as of the claim. If another user holds the lock it fails with a
// [ContentionError] carrying the holder's identity, and the document is
// left untouched.
func Acquire(folder Folder, docName, userName string) (Document, error) {
	if userName == "" {
		return Document{}, ErrEmptyUserName
	}

	var doc Document

	err := withDocument(folder, docName, func() error {
		doc = ReadDocument(folder, docName)

		if doc.Lock.Status == LockStatusLocked {
			since := time.Time{}
			if doc.Lock.StartTime != nil {
				since = *doc.Lock.StartTime
			}

			return &ContentionError{ActiveUser: doc.Lock.ActiveUser, Since: since}
		}

		now := time.Now().UTC()
		doc.Lock = LockState{Status: LockStatusLocked, ActiveUser: userName, StartTime: &now}
		doc.AppendLog(LogEntry{Timestamp: now, UserName: userName, Action: ActionConnect})

		return WriteDocument(folder, docName, doc)
	})
	if err != nil {
		return Document{}, err
	}

	return doc, nil
}

// Release persists records as the new authoritative record set, drops the
// lock, and appends a DISCONNECT_SAVE entry. Records are renumbered so the
// sequence stays dense and date-ordered. The caller must hold the lock.
func Release(folder Folder, docName, userName string, records []Record) (Document, error) {
	var doc Document

	err := withDocument(folder, docName, func() error {
		doc = ReadDocument(folder, docName)

		if doc.Lock.Status != LockStatusLocked || doc.Lock.ActiveUser != userName {
			return fmt.Errorf("%w: %q", ErrLockNotHeld, userName)
		}

		doc.Entries = Renumber(records)
		doc.Lock = LockState{Status: LockStatusUnlocked}
		doc.AppendLog(LogEntry{Timestamp: time.Now().UTC(), UserName: userName, Action: ActionDisconnectSave})

		return WriteDocument(folder, docName, doc)
	})
	if err != nil {
		return Document{}, err
	}

	return doc, nil
}

// ForceRelease unconditionally drops the lock, discarding the previous
// holder's claim, and appends a FORCE_UNLOCK entry. Records are not
// touched: unsaved work by the prior holder is lost. This is the recovery
// path for abandoned or crashed sessions.
func ForceRelease(folder Folder, docName, userName string) error {
	if userName == "" {
		return ErrEmptyUserName
	}

	return withDocument(folder, docName, func() error {
		doc := ReadDocument(folder, docName)

		doc.Lock = LockState{Status: LockStatusUnlocked}
		doc.AppendLog(LogEntry{Timestamp: time.Now().UTC(), UserName: userName, Action: ActionForceUnlock})

		return WriteDocument(folder, docName, doc)
	})
}

// withDocument runs fn while holding the same-machine flock on the
// document file, so read-modify-write cycles from concurrent local
// processes do not interleave.
func withDocument(folder Folder, docName string, fn func() error) error {
	lock, lockErr := folder.Lock(docName)
	if lockErr != nil {
		return fmt.Errorf("acquiring file lock: %w", lockErr)
	}

	defer func() { _ = lock.Close() }()

	return fn()
}
