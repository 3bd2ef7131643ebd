package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_OnUnlockedSucceeds(t *testing.T) {
	t.Parallel()

	folder := newTestFolder(t)

	doc, err := Acquire(folder, testDocName, "alice")
	require.NoError(t, err)

	assert.Equal(t, LockStatusLocked, doc.Lock.Status)
	assert.Equal(t, "alice", doc.Lock.ActiveUser)
	require.NotNil(t, doc.Lock.StartTime)
	assert.Empty(t, doc.Entries)

	// The claim is persisted, with a CONNECT audit entry.
	stored := ReadDocument(folder, testDocName)
	assert.Equal(t, "alice", stored.Lock.ActiveUser)
	require.Len(t, stored.Logs, 1)
	assert.Equal(t, ActionConnect, stored.Logs[0].Action)
}

func TestAcquire_OnLockedFailsWithContention(t *testing.T) {
	t.Parallel()

	folder := newTestFolder(t)

	_, err := Acquire(folder, testDocName, "alice")
	require.NoError(t, err)

	_, err = Acquire(folder, testDocName, "bob")

	cerr, ok := IsContention(err)
	require.True(t, ok, "expected ContentionError, got %v", err)
	assert.Equal(t, "alice", cerr.ActiveUser)
	assert.False(t, cerr.Since.IsZero())

	// The holder's claim is untouched.
	stored := ReadDocument(folder, testDocName)
	assert.Equal(t, "alice", stored.Lock.ActiveUser)
	assert.Len(t, stored.Logs, 1)
}

func TestAcquire_EmptyUserName(t *testing.T) {
	t.Parallel()

	folder := newTestFolder(t)

	_, err := Acquire(folder, testDocName, "")
	assert.ErrorIs(t, err, ErrEmptyUserName)
}

func TestRelease_PersistsRecordsAndUnlocks(t *testing.T) {
	t.Parallel()

	folder := newTestFolder(t)

	_, err := Acquire(folder, testDocName, "alice")
	require.NoError(t, err)

	records := []Record{
		{Date: "2024-05-01", Content: "later"},
		{Date: "2024-01-01", Content: "earlier"},
	}

	doc, releaseErr := Release(folder, testDocName, "alice", records)
	require.NoError(t, releaseErr)

	assert.Equal(t, LockStatusUnlocked, doc.Lock.Status)
	assert.Empty(t, doc.Lock.ActiveUser)
	assert.Nil(t, doc.Lock.StartTime)

	// Records come back renumbered in date order.
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, 1, doc.Entries[0].Seq)
	assert.Equal(t, "earlier", doc.Entries[0].Content)
	assert.Equal(t, 2, doc.Entries[1].Seq)

	stored := ReadDocument(folder, testDocName)
	require.Len(t, stored.Logs, 2)
	assert.Equal(t, ActionDisconnectSave, stored.Logs[1].Action)
}

func TestRelease_WithoutHoldingLock(t *testing.T) {
	t.Parallel()

	folder := newTestFolder(t)

	_, err := Release(folder, testDocName, "alice", nil)
	assert.ErrorIs(t, err, ErrLockNotHeld)

	_, acquireErr := Acquire(folder, testDocName, "alice")
	require.NoError(t, acquireErr)

	_, err = Release(folder, testDocName, "bob", nil)
	assert.ErrorIs(t, err, ErrLockNotHeld)
}

func TestForceRelease_ThenAcquireSucceeds(t *testing.T) {
	t.Parallel()

	folder := newTestFolder(t)

	_, err := Acquire(folder, testDocName, "alice")
	require.NoError(t, err)

	require.NoError(t, ForceRelease(folder, testDocName, "bob"))

	stored := ReadDocument(folder, testDocName)
	assert.Equal(t, LockStatusUnlocked, stored.Lock.Status)
	require.Len(t, stored.Logs, 2)
	assert.Equal(t, ActionForceUnlock, stored.Logs[1].Action)
	assert.Equal(t, "bob", stored.Logs[1].UserName)

	doc, acquireErr := Acquire(folder, testDocName, "bob")
	require.NoError(t, acquireErr)
	assert.Equal(t, "bob", doc.Lock.ActiveUser)
}

func TestForceRelease_DoesNotTouchRecords(t *testing.T) {
	t.Parallel()

	folder := newTestFolder(t)

	_, err := Acquire(folder, testDocName, "alice")
	require.NoError(t, err)

	_, releaseErr := Release(folder, testDocName, "alice", []Record{{Date: "2024-03-05", Content: "kept"}})
	require.NoError(t, releaseErr)

	_, err = Acquire(folder, testDocName, "alice")
	require.NoError(t, err)

	// alice crashes; bob forces the lock open.
	require.NoError(t, ForceRelease(folder, testDocName, "bob"))

	stored := ReadDocument(folder, testDocName)
	require.Len(t, stored.Entries, 1)
	assert.Equal(t, "kept", stored.Entries[0].Content)
}

func TestContentionError_Message(t *testing.T) {
	t.Parallel()

	var err error = &ContentionError{ActiveUser: "alice"}

	var cerr *ContentionError

	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "alice")
}
