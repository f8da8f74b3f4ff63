// Package storage provides the per-user file store that backs avatar
// caching. A Provider scopes access to a single user's folder; folders
// hold flat, named entries of raw bytes.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested entry does not exist. A lookup
	// miss is an ordinary branch for callers, not a failure.
	ErrNotFound = errors.New("storage: not found")

	// ErrNotPermitted indicates the store denied a write or delete.
	ErrNotPermitted = errors.New("storage: not permitted")
)

// Provider grants access to per-user folders. Implementations own the
// lifecycle of the underlying storage; callers only invoke operations.
type Provider interface {
	// Folder returns the folder for the given user. The folder need not
	// exist yet; it is materialized on the first Create.
	Folder(userID string) Folder
}

// Folder is a flat, per-user container of named entries.
type Folder interface {
	// List returns every entry in the folder. A folder that has never
	// been written to lists as empty, not as an error.
	List(ctx context.Context) ([]Entry, error)

	// Entry returns the named entry, or ErrNotFound when it does not
	// exist.
	Entry(ctx context.Context, name string) (Entry, error)

	// Create returns a handle for the named entry, creating the folder
	// path as required. Create is idempotent: when the entry already
	// exists (including an entry created concurrently by another
	// request) the existing entry is returned rather than an error.
	Create(ctx context.Context, name string) (Entry, error)
}

// Entry is a single named blob within a folder.
type Entry interface {
	// Name returns the entry's name within its folder.
	Name() string

	// Path returns the store-assigned path, for diagnostics.
	Path() string

	// Read returns the entry's content.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the entry's content. Writes are atomic with
	// respect to concurrent readers and overwrite idempotently when two
	// writers race on the same entry.
	Write(ctx context.Context, data []byte) error

	// Delete removes the entry. Deleting an entry that is already gone
	// returns ErrNotFound.
	Delete(ctx context.Context) error
}
