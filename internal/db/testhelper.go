package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTest opens a migrated write/read pair in t.TempDir() and closes it on cleanup.
func OpenTest(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenPair(filepath.Join(t.TempDir(), "jobs.sqlite"), 4)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})
	if err := Migrate(writeDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return writeDB, readDB
}
