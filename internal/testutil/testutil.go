// Package testutil provides shared test helpers for setting up state
// stores over temporary storage.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/studyflow/internal/storage"
	"github.com/starford/studyflow/internal/store"
)

// TestFileProvider creates a file provider over a temp directory that
// is automatically cleaned up.
func TestFileProvider(t *testing.T) *storage.File {
	t.Helper()
	p, err := storage.NewFile(filepath.Join(t.TempDir(), "studyflow.json"))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// TestSQLiteProvider creates a temporary SQLite provider.
func TestSQLiteProvider(t *testing.T) *storage.SQLite {
	t.Helper()
	p, err := storage.NewSQLite(filepath.Join(t.TempDir(), "studyflow.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

// TestStore creates a loaded store over a temporary file provider.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(TestFileProvider(t))
	st.Load()
	return st
}
