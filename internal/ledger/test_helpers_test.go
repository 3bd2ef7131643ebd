package ledger

import (
	"testing"

	"sealbook/internal/share"
)

const testDocName = "sealbook.json"

// newTestFolder grants a handle on a fresh temp directory.
func newTestFolder(t *testing.T) *share.Dir {
	t.Helper()

	folder, err := share.Grant(t.TempDir())
	if err != nil {
		t.Fatalf("granting test folder: %v", err)
	}

	return folder
}

func testConfig() Config {
	return Config{DocumentName: testDocName, AttachDir: "attachments"}
}
