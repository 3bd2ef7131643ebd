package share

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGrant_RequiresDirectory(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.txt")

	writeErr := os.WriteFile(file, []byte("x"), filePerms)
	if writeErr != nil {
		t.Fatalf("failed to create test file: %v", writeErr)
	}

	_, err := Grant(file)
	if err == nil {
		t.Error("expected error granting a plain file")
	}
}

func TestGrant_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := Grant(filepath.Join(t.TempDir(), "nope"))
	if !os.IsNotExist(err) {
		t.Errorf("expected NotExist error, got %v", err)
	}
}

func TestDir_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	dir, grantErr := Grant(t.TempDir())
	if grantErr != nil {
		t.Fatalf("grant failed: %v", grantErr)
	}

	content := []byte(`{"hello":"world"}`)

	writeErr := dir.WriteFileAtomic("sub/data.json", content)
	if writeErr != nil {
		t.Fatalf("write failed: %v", writeErr)
	}

	got, readErr := dir.ReadFile("sub/data.json")
	if readErr != nil {
		t.Fatalf("read failed: %v", readErr)
	}

	if string(got) != string(content) {
		t.Errorf("expected %q, got %q", content, got)
	}
}

func TestDir_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	dir, grantErr := Grant(t.TempDir())
	if grantErr != nil {
		t.Fatalf("grant failed: %v", grantErr)
	}

	for _, name := range []string{"../outside.txt", "sub/../../outside.txt"} {
		_, err := dir.ReadFile(name)
		if err == nil {
			t.Errorf("expected escape rejection for %q", name)
		}

		writeErr := dir.WriteFileAtomic(name, []byte("x"))
		if writeErr == nil {
			t.Errorf("expected escape rejection writing %q", name)
		}
	}
}

func TestDir_ReadDirMissingIsEmpty(t *testing.T) {
	t.Parallel()

	dir, grantErr := Grant(t.TempDir())
	if grantErr != nil {
		t.Fatalf("grant failed: %v", grantErr)
	}

	entries, err := dir.ReadDir("attachments")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("expected empty listing, got %d entries", len(entries))
	}
}

func TestDir_Exists(t *testing.T) {
	t.Parallel()

	dir, grantErr := Grant(t.TempDir())
	if grantErr != nil {
		t.Fatalf("grant failed: %v", grantErr)
	}

	ok, err := dir.Exists("missing.json")
	if err != nil || ok {
		t.Errorf("expected (false, nil), got (%v, %v)", ok, err)
	}

	writeErr := dir.WriteFileAtomic("present.json", []byte("{}"))
	if writeErr != nil {
		t.Fatalf("write failed: %v", writeErr)
	}

	ok, err = dir.Exists("present.json")
	if err != nil || !ok {
		t.Errorf("expected (true, nil), got (%v, %v)", ok, err)
	}
}
