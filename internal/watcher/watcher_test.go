package watcher

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/studyflow/internal/storage"
	"github.com/starford/studyflow/internal/store"
)

func TestWatchReloadsOnExternalWrite(t *testing.T) {
	p := testProvider(t)
	st := store.New(p)
	st.Load()

	reloaded := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, st, p.Path(), discardLogger(), func() {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	external := store.DefaultData()
	external.Preferences.MaxHoursPerDay = 2
	raw, err := json.Marshal(external)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Save(raw); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not pick up the external write")
	}

	data, _ := st.Snapshot()
	if data.Preferences.MaxHoursPerDay != 2 {
		t.Errorf("MaxHoursPerDay = %d, want 2", data.Preferences.MaxHoursPerDay)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}

func TestWatchIgnoresIdenticalContent(t *testing.T) {
	p := testProvider(t)
	st := store.New(p)
	st.Load()

	// Persist the current state once so a rewrite has identical bytes.
	raw, err := json.Marshal(store.DefaultData())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Save(raw); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Reload(); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = Watch(ctx, st, p.Path(), discardLogger(), func() {
			reloaded <- struct{}{}
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// Same bytes again: an event fires, the checksum matches, no callback.
	if err := p.Save(raw); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("identical content must not trigger the callback")
	case <-time.After(1 * time.Second):
	}
}

func testProvider(t *testing.T) *storage.File {
	t.Helper()
	p, err := storage.NewFile(t.TempDir() + "/studyflow.json")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
