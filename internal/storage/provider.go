// Package storage persists the single application-state document.
package storage

// Provider stores one opaque JSON blob under one fixed key.
type Provider interface {
	// Load returns the persisted blob, or apperr.ErrNotFound if none
	// has ever been saved.
	Load() ([]byte, error)
	// Save atomically replaces the persisted blob.
	Save(data []byte) error
	// Close releases driver resources. Safe to call once.
	Close() error
}
