package avatar_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/glyphd/glyphd/internal/identity"
	"github.com/glyphd/glyphd/internal/storage"
	"github.com/glyphd/glyphd/internal/theme"
)

// fakeStore is an in-memory storage.Provider that counts writes and
// can be primed to fail or to simulate a lookup/create race.
type fakeStore struct {
	mu      sync.Mutex
	folders map[string]*fakeFolder
}

func newFakeStore() *fakeStore {
	return &fakeStore{folders: map[string]*fakeFolder{}}
}

func (s *fakeStore) Folder(userID string) storage.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[userID]
	if !ok {
		f = &fakeFolder{entries: map[string][]byte{}}
		s.folders[userID] = f
	}
	return f
}

type fakeFolder struct {
	mu      sync.Mutex
	entries map[string][]byte

	writes    int
	writeErr  error
	deleteErr error

	// missOnce makes the next Entry call report a miss even when the
	// entry exists, simulating a concurrent creator winning the race
	// between lookup and create.
	missOnce bool
}

func (f *fakeFolder) List(ctx context.Context) ([]storage.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]storage.Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, &fakeEntry{folder: f, name: name})
	}
	return entries, nil
}

func (f *fakeFolder) Entry(ctx context.Context, name string) (storage.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.missOnce {
		f.missOnce = false
		return nil, storage.ErrNotFound
	}

	if _, ok := f.entries[name]; !ok {
		return nil, storage.ErrNotFound
	}
	return &fakeEntry{folder: f, name: name}, nil
}

func (f *fakeFolder) Create(ctx context.Context, name string) (storage.Entry, error) {
	return &fakeEntry{folder: f, name: name}, nil
}

func (f *fakeFolder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeEntry struct {
	folder *fakeFolder
	name   string
}

func (e *fakeEntry) Name() string { return e.name }
func (e *fakeEntry) Path() string { return "fake://" + e.name }

func (e *fakeEntry) Read(ctx context.Context) ([]byte, error) {
	e.folder.mu.Lock()
	defer e.folder.mu.Unlock()

	data, ok := e.folder.entries[e.name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (e *fakeEntry) Write(ctx context.Context, data []byte) error {
	e.folder.mu.Lock()
	defer e.folder.mu.Unlock()

	if e.folder.writeErr != nil {
		return e.folder.writeErr
	}

	e.folder.entries[e.name] = data
	e.folder.writes++
	return nil
}

func (e *fakeEntry) Delete(ctx context.Context) error {
	e.folder.mu.Lock()
	defer e.folder.mu.Unlock()

	if e.folder.deleteErr != nil {
		return e.folder.deleteErr
	}
	if _, ok := e.folder.entries[e.name]; !ok {
		return storage.ErrNotFound
	}
	delete(e.folder.entries, e.name)
	return nil
}

type renderCall struct {
	name string
	size int
	t    theme.Theme
}

// fakeRenderer records invocations and replies with fixed output. A
// nil data with nil err declines, like a vector renderer without a
// conversion service.
type fakeRenderer struct {
	mu    sync.Mutex
	data  []byte
	err   error
	seq   bool
	calls []renderCall
}

func (r *fakeRenderer) Render(ctx context.Context, displayName string, size int, t theme.Theme) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, renderCall{name: displayName, size: size, t: t})

	if r.err != nil {
		return nil, r.err
	}
	if r.data == nil {
		return nil, nil
	}
	if r.seq {
		// distinct bytes per call, for regeneration assertions
		return []byte(fmt.Sprintf("%s-%d", r.data, len(r.calls))), nil
	}
	return r.data, nil
}

func (r *fakeRenderer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// declining returns a renderer that always declines.
func declining() *fakeRenderer {
	return &fakeRenderer{}
}

// fakeResolver maps every user to a fixed display name.
type fakeResolver struct {
	name    string
	lookups int
}

func (r *fakeResolver) Lookup(ctx context.Context, userID string) (identity.Identity, error) {
	r.lookups++
	return identity.User{UserID: userID, Name: r.name}, nil
}
