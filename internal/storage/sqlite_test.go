package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/starford/studyflow/internal/apperr"
)

func tempSQLite(t *testing.T) *SQLite {
	t.Helper()
	p, err := NewSQLite(filepath.Join(t.TempDir(), "studyflow.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	p := tempSQLite(t)
	content := []byte(`{"exams":[]}`)
	if err := p.Save(content); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := p.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestSQLiteLoadAbsent(t *testing.T) {
	p := tempSQLite(t)
	_, err := p.Load()
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	p := tempSQLite(t)
	_ = p.Save([]byte("one"))
	if err := p.Save([]byte("two")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := p.Load()
	if string(got) != "two" {
		t.Errorf("content = %q, want %q", got, "two")
	}
}
