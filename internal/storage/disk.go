package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Disk is a filesystem-backed Provider. Each user's entries live in a
// directory named after the user under the configured root.
//
// Layout:
//
//	root/
//	  <user-id>/
//	    avatar-placeholder.64.png
//	    avatar-placeholder-dark.64.png
//
// The afero abstraction keeps the implementation testable against an
// in-memory filesystem.
type Disk struct {
	fs   afero.Fs
	root string
}

// NewDisk creates a disk provider rooted at the given directory.
func NewDisk(fs afero.Fs, root string) *Disk {
	return &Disk{fs: fs, root: root}
}

func (d *Disk) Folder(userID string) Folder {
	// user IDs are path components supplied by callers; anything that
	// would escape the root is flattened into a plain name
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '_'
		}
		return r
	}, userID)

	return &diskFolder{fs: d.fs, path: path.Join(d.root, name)}
}

type diskFolder struct {
	fs   afero.Fs
	path string
}

func (f *diskFolder) List(ctx context.Context) ([]Entry, error) {
	infos, err := afero.ReadDir(f.fs, f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", f.path, mapFsError(err))
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		entries = append(entries, f.entry(info.Name()))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return entries, nil
}

func (f *diskFolder) Entry(ctx context.Context, name string) (Entry, error) {
	_, err := f.fs.Stat(path.Join(f.path, name))
	if err != nil {
		return nil, mapFsError(err)
	}
	return f.entry(name), nil
}

func (f *diskFolder) Create(ctx context.Context, name string) (Entry, error) {
	if err := f.fs.MkdirAll(f.path, 0o755); err != nil {
		return nil, mapFsError(err)
	}

	// Create-or-open: an entry that already exists (possibly written by
	// a concurrent request) is returned as-is. Content is only
	// established by Write.
	return f.entry(name), nil
}

func (f *diskFolder) entry(name string) *diskEntry {
	return &diskEntry{fs: f.fs, name: name, path: path.Join(f.path, name)}
}

type diskEntry struct {
	fs   afero.Fs
	name string
	path string
}

func (e *diskEntry) Name() string { return e.name }
func (e *diskEntry) Path() string { return e.path }

func (e *diskEntry) Read(ctx context.Context) ([]byte, error) {
	data, err := afero.ReadFile(e.fs, e.path)
	if err != nil {
		return nil, mapFsError(err)
	}
	return data, nil
}

func (e *diskEntry) Write(ctx context.Context, data []byte) error {
	// write-then-rename so concurrent readers never observe a partial
	// file, and racing writers overwrite idempotently
	tmp := e.path + ".tmp"
	if err := afero.WriteFile(e.fs, tmp, data, 0o644); err != nil {
		return mapFsError(err)
	}
	if err := e.fs.Rename(tmp, e.path); err != nil {
		_ = e.fs.Remove(tmp)
		return mapFsError(err)
	}
	return nil
}

func (e *diskEntry) Delete(ctx context.Context) error {
	if err := e.fs.Remove(e.path); err != nil {
		return mapFsError(err)
	}
	return nil
}

// mapFsError translates filesystem failures into the store's error
// taxonomy, keeping OS-level detail out of callers.
func mapFsError(err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return ErrNotFound
	case os.IsPermission(err):
		return ErrNotPermitted
	default:
		return err
	}
}
