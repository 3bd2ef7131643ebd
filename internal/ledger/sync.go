package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Orchestrator composes the lock manager, document codec, and attachment
// store behind the three workflows the UI layer drives: connect, save &
// exit, and force unlock. Operations take the directory grant, the current
// records, and the user identity explicitly; nothing is kept as ambient
// state between calls.
type Orchestrator struct {
	cfg Config
	log *slog.Logger
}

// NewOrchestrator returns an orchestrator for the given configuration.
// A nil logger discards output.
func NewOrchestrator(cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Orchestrator{cfg: cfg, log: logger}
}

// Connect claims the single-writer lock and hydrates the record set,
// cross-referencing the attachment store for each referenced file. A
// referenced attachment that is missing on disk degrades that record to
// having no payload; it is not an error. If hydration fails outright the
// freshly taken claim is dropped again, best effort, so the caller does not
// end up contending against their own abandoned lock.
func (o *Orchestrator) Connect(ctx context.Context, folder Folder, userName string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, acquireErr := Acquire(folder, o.cfg.DocumentName, userName)
	if acquireErr != nil {
		return nil, acquireErr
	}

	store := NewStore(folder, o.cfg.AttachDir)
	records := doc.Entries

	for i := range records {
		if records[i].FileName == "" {
			continue
		}

		data, getErr := store.Get(records[i].FileName)
		if getErr != nil {
			if dropErr := ForceRelease(folder, o.cfg.DocumentName, userName); dropErr != nil {
				o.log.Warn("could not drop claim after failed hydration", "user", userName, "error", dropErr)
			}

			return nil, getErr
		}

		records[i].Attachment = data
	}

	o.log.Info("connected", "user", userName, "records", len(records))

	return records, nil
}

// SaveAndExit persists records as the new authoritative set, releases the
// lock, and sweeps orphaned attachments. Attachment names are regenerated
// from current field values and payloads are written before the document;
// if any attachment write fails the lock-state write never happens, so the
// lock is not falsely released on a partial failure. The orphan sweep runs
// last, after the new record set is final.
func (o *Orchestrator) SaveAndExit(ctx context.Context, folder Folder, records []Record, userName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Gate on the lock before touching the attachment subfolder.
	doc := ReadDocument(folder, o.cfg.DocumentName)
	if doc.Lock.Status != LockStatusLocked || doc.Lock.ActiveUser != userName {
		return fmt.Errorf("%w: %q", ErrLockNotHeld, userName)
	}

	store := NewStore(folder, o.cfg.AttachDir)

	staged := make([]Record, len(records))
	copy(staged, records)

	valid := make(map[string]struct{})

	for i := range staged {
		name, putErr := o.stageAttachment(store, &staged[i])
		if putErr != nil {
			return putErr
		}

		if name != "" {
			valid[name] = struct{}{}
		}
	}

	if _, releaseErr := Release(folder, o.cfg.DocumentName, userName, staged); releaseErr != nil {
		return releaseErr
	}

	if reconcileErr := store.Reconcile(valid); reconcileErr != nil {
		return fmt.Errorf("sweeping orphaned attachments: %w", reconcileErr)
	}

	o.log.Info("saved and disconnected", "user", userName, "records", len(staged))

	return nil
}

// stageAttachment writes the record's attachment under its regenerated name
// and updates FileName in place. Records without a payload fall back to the
// bytes already on disk under the previous name; if those are gone too the
// record degrades to having no attachment.
func (o *Orchestrator) stageAttachment(store *Store, rec *Record) (string, error) {
	if len(rec.Attachment) == 0 && rec.FileName == "" {
		return "", nil
	}

	data := rec.Attachment
	if len(data) == 0 {
		prior, getErr := store.Get(rec.FileName)
		if getErr != nil {
			return "", getErr
		}

		if prior == nil {
			rec.FileName = ""

			return "", nil
		}

		data = prior
	}

	name := DeterministicName(*rec)

	if putErr := store.Put(name, data); putErr != nil {
		return "", fmt.Errorf("writing attachment %s: %w", name, putErr)
	}

	rec.FileName = name

	return name, nil
}

// ForceUnlockAndRetry discards the current holder's claim and immediately
// re-attempts Connect for userName. The prior holder's unsaved work is lost
// by design; this is the documented recovery path for crashed sessions.
func (o *Orchestrator) ForceUnlockAndRetry(ctx context.Context, folder Folder, userName string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if forceErr := ForceRelease(folder, o.cfg.DocumentName, userName); forceErr != nil {
		return nil, forceErr
	}

	o.log.Warn("lock forcibly released", "user", userName)

	return o.Connect(ctx, folder, userName)
}

// Sessions reads the document and derives the session history, newest
// first.
func (o *Orchestrator) Sessions(folder Folder) []Session {
	doc := ReadDocument(folder, o.cfg.DocumentName)

	return DeriveSessions(doc.Logs, doc.Lock)
}

// Inspect returns the document without taking the lock. Other clients may
// only read the document to discover contention; the returned state is a
// snapshot and may be stale the moment it is returned.
func (o *Orchestrator) Inspect(folder Folder) Document {
	return ReadDocument(folder, o.cfg.DocumentName)
}

// VerifyPassword checks the access password. The gate is a deterrent, not
// a security boundary: the document is plaintext to anyone with the folder.
func (o *Orchestrator) VerifyPassword(folder Folder, password string) error {
	doc := ReadDocument(folder, o.cfg.DocumentName)

	if doc.Password != password {
		return ErrWrongPassword
	}

	return nil
}

// ChangePassword rewrites the document with a new access password. The
// caller must hold the lock and present the current password.
func (o *Orchestrator) ChangePassword(folder Folder, userName, oldPassword, newPassword string) error {
	return withDocument(folder, o.cfg.DocumentName, func() error {
		doc := ReadDocument(folder, o.cfg.DocumentName)

		if doc.Lock.Status != LockStatusLocked || doc.Lock.ActiveUser != userName {
			return fmt.Errorf("%w: %q", ErrLockNotHeld, userName)
		}

		if doc.Password != oldPassword {
			return ErrWrongPassword
		}

		doc.Password = newPassword

		return WriteDocument(folder, o.cfg.DocumentName, doc)
	})
}

// HolderSince formats a contention error's holder age for display.
func HolderSince(cerr *ContentionError) string {
	if cerr.Since.IsZero() {
		return "unknown"
	}

	return time.Since(cerr.Since).Round(time.Second).String()
}
