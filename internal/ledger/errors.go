package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrLockNotHeld     = errors.New("ledger lock is not held by this user")
	ErrWrongPassword   = errors.New("wrong password")
	ErrEmptyUserName   = errors.New("user name cannot be empty")
	ErrInvalidDate     = errors.New("invalid date")
	errDocNameEmpty    = errors.New("document_name cannot be empty")
	errAttachDirEmpty  = errors.New("attach_dir cannot be empty")
	errAttachDirNested = errors.New("attach_dir must be a plain folder name")
	errNotPDF          = errors.New("attachment is not a valid PDF")
	errConfigNotFound  = errors.New("config file not found")
	errConfigInvalid   = errors.New("invalid config file")
)

// ContentionError reports that the ledger is already claimed by another
// client. It carries the holder's identity so the caller can surface it and
// offer the force-unlock recovery path.
type ContentionError struct {
	ActiveUser string
	Since      time.Time
}

func (e *ContentionError) Error() string {
	if e.Since.IsZero() {
		return fmt.Sprintf("ledger is in use by %q", e.ActiveUser)
	}

	return fmt.Sprintf("ledger is in use by %q since %s", e.ActiveUser, e.Since.Format(time.RFC3339))
}

// IsContention reports whether err is a [ContentionError] and returns it.
func IsContention(err error) (*ContentionError, bool) {
	var cerr *ContentionError
	if errors.As(err, &cerr) {
		return cerr, true
	}

	return nil, false
}
