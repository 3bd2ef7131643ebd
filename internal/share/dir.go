// Package share provides the capability-style handle over the user-selected
// shared folder. All reads and writes of the ledger document and its
// attachment subfolder go through a [Dir], which confines access to paths
// inside the granted directory.
package share

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
)

var (
	errNotDirectory = errors.New("not a directory")
	errPathEscapes  = errors.New("path escapes shared folder")
)

// Dir is a handle on a granted directory. Once obtained it is reusable for
// all subsequent reads and writes until the underlying directory goes away.
// Relative names passed to its methods are resolved inside the root; names
// that would escape the root are rejected.
type Dir struct {
	root string
}

// Grant opens a handle on path. The path must name an existing directory;
// NotFound and PermissionDenied errors are returned verbatim.
func Grant(path string) (*Dir, error) {
	abs, absErr := filepath.Abs(path)
	if absErr != nil {
		return nil, fmt.Errorf("resolving shared folder: %w", absErr)
	}

	info, statErr := os.Stat(abs)
	if statErr != nil {
		return nil, statErr
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", errNotDirectory, abs)
	}

	return &Dir{root: abs}, nil
}

// Path returns the absolute path of the granted directory.
func (d *Dir) Path() string {
	return d.root
}

// resolve joins name onto the root and rejects escapes.
func (d *Dir) resolve(name string) (string, error) {
	joined := filepath.Join(d.root, filepath.FromSlash(name))

	rel, relErr := filepath.Rel(d.root, joined)
	if relErr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errPathEscapes, name)
	}

	return joined, nil
}

// ReadFile reads the named file inside the folder.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	path, err := d.resolve(name)
	if err != nil {
		return nil, err
	}

	return os.ReadFile(path) //nolint:gosec // confined by resolve
}

// WriteFileAtomic writes data to the named file inside the folder.
// Parent directories are created as needed. The write goes through a temp
// file and rename, so a partially written file is never observable.
func (d *Dir) WriteFileAtomic(name string, data []byte) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}

	mkdirErr := os.MkdirAll(filepath.Dir(path), dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating parent directory: %w", mkdirErr)
	}

	writeErr := atomic.WriteFile(path, strings.NewReader(string(data)))
	if writeErr != nil {
		return fmt.Errorf("writing %s: %w", name, writeErr)
	}

	return nil
}

// ReadDir lists the named subdirectory. Listing a missing subdirectory is
// not an error; it returns an empty slice.
func (d *Dir) ReadDir(name string) ([]os.DirEntry, error) {
	path, err := d.resolve(name)
	if err != nil {
		return nil, err
	}

	entries, readErr := os.ReadDir(path)
	if os.IsNotExist(readErr) {
		return []os.DirEntry{}, nil
	}

	if readErr != nil {
		return nil, fmt.Errorf("reading directory %s: %w", name, readErr)
	}

	return entries, nil
}

// MkdirAll creates the named subdirectory and any parents.
func (d *Dir) MkdirAll(name string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}

	mkdirErr := os.MkdirAll(path, dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating directory %s: %w", name, mkdirErr)
	}

	return nil
}

// Remove deletes the named file.
func (d *Dir) Remove(name string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}

	return os.Remove(path)
}

// Stat returns file info for the named file.
func (d *Dir) Stat(name string) (os.FileInfo, error) {
	path, err := d.resolve(name)
	if err != nil {
		return nil, err
	}

	return os.Stat(path)
}

// Exists reports whether the named file exists.
// Returns (false, nil) if not found, (false, err) on other errors.
func (d *Dir) Exists(name string) (bool, error) {
	_, err := d.Stat(name)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}
