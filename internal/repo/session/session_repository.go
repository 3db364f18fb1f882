// Package session stores per-browser-session key/value entries. It is the
// server-side stand-in for browser storage: entries are opaque bytes addressed by
// session id and key, with no versioning or expiry metadata.
package session

import (
	"context"
)

// Keys used by the web front.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// Repository defines the storage of session entries.
type Repository interface {
	// Get returns the value stored for key in session sid and whether it exists.
	Get(ctx context.Context, sid, key string) ([]byte, bool, error)

	// Set creates or replaces the value for key in session sid.
	Set(ctx context.Context, sid, key string, value []byte) error

	// Delete removes key from session sid. Deleting a missing key is not an error.
	Delete(ctx context.Context, sid, key string) error

	// Purge removes every entry of session sid.
	Purge(ctx context.Context, sid string) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
