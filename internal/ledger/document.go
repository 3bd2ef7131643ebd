package ledger

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"time"
)

// DefaultPassword is the sentinel access password a fresh document starts
// with. The gate is a deterrent, not a security boundary.
const DefaultPassword = "2888"

// MaxLogEntries bounds the audit log. Every write that mutates the log
// first truncates it to the most recent entries; older ones are silently
// discarded.
const MaxLogEntries = 200

// Lock status values.
const (
	LockStatusLocked   = "LOCKED"
	LockStatusUnlocked = "UNLOCKED"
)

// Action is a closed set of audit log actions.
type Action string

// Log actions.
const (
	ActionConnect        Action = "CONNECT"
	ActionDisconnectSave Action = "DISCONNECT_SAVE"
	ActionForceUnlock    Action = "FORCE_UNLOCK"
)

// Folder is the directory grant the coordination layer operates on. It is
// satisfied by [sealbook/internal/share.Dir]; tests may wrap one to inject
// failures on specific operations.
type Folder interface {
	ReadFile(name string) ([]byte, error)
	WriteFileAtomic(name string, data []byte) error
	ReadDir(name string) ([]os.DirEntry, error)
	MkdirAll(name string) error
	Remove(name string) error
	Stat(name string) (os.FileInfo, error)

	// Lock serializes same-machine access to the named file while held.
	Lock(name string) (io.Closer, error)
}

// LockState is the advisory single-writer claim stored in the document.
// UNLOCKED implies ActiveUser and StartTime are both absent.
type LockState struct {
	Status     string     `json:"status"`
	ActiveUser string     `json:"activeUser,omitempty"`
	StartTime  *time.Time `json:"startTime,omitempty"`
}

// LogEntry is one append-only audit event.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	UserName  string    `json:"userName"`
	Action    Action    `json:"action"`
}

// Document is the root aggregate stored as a single JSON file in the shared
// folder. It is read in full and rewritten in full on every state
// transition; there is no partial update.
type Document struct {
	Password string     `json:"password"`
	Lock     LockState  `json:"lock"`
	Logs     []LogEntry `json:"logs"`
	Entries  []Record   `json:"entries"`
}

// DefaultDocument returns a fresh, unlocked document with the sentinel
// password.
func DefaultDocument() Document {
	return Document{
		Password: DefaultPassword,
		Lock:     LockState{Status: LockStatusUnlocked},
		Logs:     []LogEntry{},
		Entries:  []Record{},
	}
}

// AppendLog appends an entry and truncates the log to the retention bound.
func (d *Document) AppendLog(entry LogEntry) {
	d.Logs = append(d.Logs, entry)
	d.Logs = truncateLogs(d.Logs)
}

// truncateLogs keeps the most recent MaxLogEntries entries by timestamp.
func truncateLogs(logs []LogEntry) []LogEntry {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.Before(logs[j].Timestamp)
	})

	if len(logs) > MaxLogEntries {
		logs = logs[len(logs)-MaxLogEntries:]
	}

	return logs
}

// ReadDocument loads the document from the shared folder. An absent,
// unreadable, or malformed file yields a fresh default document instead of
// an error: a corrupt control file must never brick the folder. A valid
// document missing its password field is backfilled with the sentinel.
func ReadDocument(folder Folder, name string) Document {
	data, readErr := folder.ReadFile(name)
	if readErr != nil {
		return DefaultDocument()
	}

	var doc Document

	unmarshalErr := json.Unmarshal(data, &doc)
	if unmarshalErr != nil {
		return DefaultDocument()
	}

	return normalize(doc)
}

// normalize repairs tolerable gaps in a parsed document.
func normalize(doc Document) Document {
	if doc.Password == "" {
		doc.Password = DefaultPassword
	}

	if doc.Lock.Status != LockStatusLocked {
		// Anything other than an explicit LOCKED claim counts as unlocked,
		// and an unlocked state carries no holder fields.
		doc.Lock = LockState{Status: LockStatusUnlocked}
	}

	if doc.Logs == nil {
		doc.Logs = []LogEntry{}
	}

	if doc.Entries == nil {
		doc.Entries = []Record{}
	}

	return doc
}

// WriteDocument serializes the full document and overwrites the backing
// file atomically. The log is truncated to its retention bound first.
func WriteDocument(folder Folder, name string, doc Document) error {
	doc.Logs = truncateLogs(doc.Logs)

	data, marshalErr := json.MarshalIndent(doc, "", "  ")
	if marshalErr != nil {
		return marshalErr
	}

	return folder.WriteFileAtomic(name, append(data, '\n'))
}
