package ledger

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Field truncation bounds for deterministic attachment names.
const (
	nameContentRunes   = 20
	nameRecipientRunes = 10
	nameAuthorRunes    = 10
)

// unsafeNameChars are replaced with underscores in attachment names.
const unsafeNameChars = `\/:*?"<>|`

// DeterministicName computes the attachment file name for a record purely
// from its current field values. It is regenerated on every save and never
// trusted from a previously stored value, so editing any source field
// automatically renames the attachment: the file is addressed by current
// content, not by a persisted identifier.
func DeterministicName(r Record) string {
	date := strings.NewReplacer("-", "", ".", "", "/", "").Replace(strings.TrimSpace(r.Date))

	parts := []string{
		sanitizeName(date),
		sanitizeName(truncateRunes(r.Content, nameContentRunes)),
		sanitizeName(truncateRunes(r.Recipient, nameRecipientRunes)),
		sanitizeName(truncateRunes(r.Author, nameAuthorRunes)),
	}

	return strings.Join(parts, "_") + ".pdf"
}

// sanitizeName replaces filesystem-unsafe characters with underscores.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeNameChars, r) {
			return '_'
		}

		return r
	}, s)
}

// truncateRunes limits s to n runes. Truncation counts runes, not bytes;
// record fields are routinely Korean.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}

// Store manages attachment blobs inside a subfolder of the shared folder.
type Store struct {
	folder Folder
	subdir string
}

// NewStore returns a store over the named subfolder.
func NewStore(folder Folder, subdir string) *Store {
	return &Store{folder: folder, subdir: subdir}
}

// Put writes data under name inside the attachment subfolder, creating the
// subfolder if absent. The write is skipped when a file of the same name
// and byte length already exists; content is reproducible from the same
// record, so a false negative on that check only costs a rewrite.
func (s *Store) Put(name string, data []byte) error {
	target := path.Join(s.subdir, name)

	info, statErr := s.folder.Stat(target)
	if statErr == nil && info.Size() == int64(len(data)) {
		return nil
	}

	mkdirErr := s.folder.MkdirAll(s.subdir)
	if mkdirErr != nil {
		return mkdirErr
	}

	return s.folder.WriteFileAtomic(target, data)
}

// Get reads the named attachment. A missing file is not an error: it
// returns (nil, nil) and the record degrades to having no attachment.
func (s *Store) Get(name string) ([]byte, error) {
	data, readErr := s.folder.ReadFile(path.Join(s.subdir, name))
	if os.IsNotExist(readErr) {
		return nil, nil
	}

	if readErr != nil {
		return nil, fmt.Errorf("reading attachment %s: %w", name, readErr)
	}

	return data, nil
}

// Reconcile deletes every file in the attachment subfolder whose name is
// not in validNames. Destructive and irreversible: callers must run it only
// after the new authoritative record set has been persisted, never before.
// Running it twice with the same names is a no-op the second time.
func (s *Store) Reconcile(validNames map[string]struct{}) error {
	entries, readErr := s.folder.ReadDir(s.subdir)
	if readErr != nil {
		return readErr
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if _, ok := validNames[entry.Name()]; ok {
			continue
		}

		removeErr := s.folder.Remove(path.Join(s.subdir, entry.Name()))
		if removeErr != nil {
			return fmt.Errorf("removing orphan %s: %w", entry.Name(), removeErr)
		}
	}

	return nil
}

// ValidatePDF checks that data parses as a PDF with at least one page.
// Validation is relaxed: scanner output and odd producers are common.
func ValidatePDF(data []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("%w: %w", errNotPDF, err)
	}

	if pages < 1 {
		return errNotPDF
	}

	return nil
}
