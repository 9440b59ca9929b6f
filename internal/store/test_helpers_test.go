package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/hpmdl/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCompilation creates a compilation with minimal required fields.
func createTestCompilation(sourcePath, source, program string) Compilation {
	return Compilation{
		SourcePath:      sourcePath,
		SourceHash:      ir.SourceHash(source),
		IRHash:          program,
		EntryPoint:      ir.EntryModule,
		OperatorCount:   2,
		JobID:           "job-" + program,
		OutputDir:       "build",
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.IRVersion,
		Artifacts: []Artifact{
			{Name: "ir.json", Format: "json", Size: 120, Checksum: "blake2b:aa"},
			{Name: "job.json", Format: "json", Size: 80, Checksum: "blake2b:bb"},
		},
	}
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
