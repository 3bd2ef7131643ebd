package share

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// locksDirName is the subdirectory for flock lock files. A subdirectory
// keeps lock churn from touching the shared folder's own mtime.
const locksDirName = ".locks"

// LockTimeout is the timeout for acquiring a file lock.
const LockTimeout = 2 * time.Second

// maxBackoff caps the retry sleep between non-blocking lock attempts.
const maxBackoff = 25 * time.Millisecond

// Lock errors.
var (
	errLockTimeout  = errors.New("lock timeout")
	errLockFileOpen = errors.New("failed to open lock file")
)

// Lock acquires an exclusive flock on a lock file shadowing the named file.
// This serializes read-modify-write cycles between processes on the same
// machine. It is NOT the ledger's advisory lock: flock does not travel
// across network shares, so the cross-client race window on the document
// remains and is handled at the protocol level.
//
// Call Close on the returned handle to release.
func (d *Dir) Lock(name string) (io.Closer, error) {
	path, err := d.resolve(name)
	if err != nil {
		return nil, err
	}

	return acquireLockWithTimeout(path, LockTimeout)
}

// fileLock represents a held flock.
type fileLock struct {
	path string
	file *os.File
}

// Close releases the lock and removes the lock file.
// Order matters: remove while holding lock, then unlock, then close.
func (l *fileLock) Close() error {
	if l.file != nil {
		_ = os.Remove(l.path)
		_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		err := l.file.Close()
		l.file = nil

		return err
	}

	return nil
}

// acquireLockWithTimeout polls a non-blocking exclusive flock on the given
// path's shadow lock file until the deadline, with exponential backoff.
// Polling keeps everything on the calling goroutine; a blocking flock would
// need a helper goroutine that the timeout path cannot safely abandon.
func acquireLockWithTimeout(path string, timeout time.Duration) (*fileLock, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	locksDir := filepath.Join(dir, locksDirName)
	lockPath := filepath.Join(locksDir, base+".lock")

	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond

	for {
		mkdirErr := os.MkdirAll(locksDir, dirPerms)
		if mkdirErr != nil {
			return nil, fmt.Errorf("creating locks dir: %w", mkdirErr)
		}

		file, openErr := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerms) //nolint:gosec // confined path
		if openErr != nil {
			return nil, fmt.Errorf("%w: %w", errLockFileOpen, openErr)
		}

		locked, tryErr := tryFlock(file, lockPath)
		if tryErr != nil {
			_ = file.Close()

			return nil, tryErr
		}

		if locked {
			return &fileLock{path: lockPath, file: file}, nil
		}

		_ = file.Close()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: %s", errLockTimeout, path)
		}

		time.Sleep(min(backoff, remaining))

		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// tryFlock attempts a non-blocking exclusive flock on file and then verifies
// that lockPath still names the inode we locked. A held lock and a lock file
// deleted-and-recreated underneath us (Close removes while holding) both
// return false for the caller to retry.
func tryFlock(file *os.File, lockPath string) (bool, error) {
	fd := int(file.Fd())

	flockErr := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB)
	if flockErr != nil {
		if errors.Is(flockErr, syscall.EWOULDBLOCK) {
			return false, nil
		}

		return false, fmt.Errorf("flock: %w", flockErr)
	}

	var openStat, pathStat syscall.Stat_t

	fstatErr := syscall.Fstat(fd, &openStat)
	if fstatErr != nil {
		_ = syscall.Flock(fd, syscall.LOCK_UN)

		return false, fmt.Errorf("fstat lock file: %w", fstatErr)
	}

	statErr := syscall.Stat(lockPath, &pathStat)
	if statErr != nil || pathStat.Ino != openStat.Ino {
		_ = syscall.Flock(fd, syscall.LOCK_UN)

		return false, nil
	}

	return true, nil
}
