// Package avatar implements the placeholder avatar: a deterministic
// initials image generated on first request and cached in the user's
// file store. Every avatar kind (custom upload, guest, placeholder)
// shares the Avatar capability set; only the placeholder kind lives
// here.
package avatar

import (
	"context"
	"errors"

	"github.com/glyphd/glyphd/internal/cache"
	"github.com/glyphd/glyphd/internal/identity"
	"github.com/glyphd/glyphd/internal/render"
	"github.com/glyphd/glyphd/internal/storage"
)

var (
	// ErrNotFound indicates the requested artifact does not exist and
	// cannot or will not be generated.
	ErrNotFound = errors.New("avatar: not found")

	// ErrNotPermitted indicates the backing store denied an operation.
	// Never returned from File; Remove propagates it because there is
	// no safe fallback for a failed deletion.
	ErrNotPermitted = errors.New("avatar: not permitted")
)

// SizeOriginal requests the native-size artifact. It is a lookup-only
// sentinel: a miss at this size is terminal, never a generation.
const SizeOriginal = -1

// Artifact is a cached avatar image.
type Artifact struct {
	// Name is the canonical cache filename.
	Name string

	// Path is the store-assigned location, for diagnostics.
	Path string

	// Data holds the PNG bytes.
	Data []byte
}

// Avatar is the capability set shared by all avatar kinds.
type Avatar interface {
	// Exists reports whether the avatar can be served.
	Exists(ctx context.Context) bool

	// IsCustom reports whether the avatar was uploaded by the user.
	IsCustom() bool

	// Set replaces the avatar image with user-provided data, where the
	// kind supports it.
	Set(ctx context.Context, data []byte) error

	// Remove deletes every cached artifact for the user.
	Remove(ctx context.Context) error

	// File returns the artifact for the requested size and theme,
	// generating and caching it on first miss.
	File(ctx context.Context, size int, dark bool) (Artifact, error)

	// UserChanged reacts to a change of a user feature that may affect
	// rendering.
	UserChanged(ctx context.Context, feature, oldValue, newValue string) error
}

// Service creates Avatar instances backed by the shared collaborators.
type Service struct {
	store  storage.Provider
	names  identity.Resolver
	vector render.Renderer
	raster render.Renderer
	hot    cache.ByteCache
}

// Option configures a Service.
type Option func(*Service)

// WithHotCache installs an in-memory byte cache in front of the store.
func WithHotCache(hot cache.ByteCache) Option {
	return func(s *Service) { s.hot = hot }
}

// NewService creates the avatar service. The vector renderer may
// decline individual renders; the raster renderer must not.
func NewService(store storage.Provider, names identity.Resolver, vector, raster render.Renderer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		names:  names,
		vector: vector,
		raster: raster,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// For returns the avatar for the given user. Users without a custom
// upload always resolve to the placeholder kind.
func (s *Service) For(userID string) Avatar {
	return &Placeholder{
		userID: userID,
		folder: s.store.Folder(userID),
		svc:    s,
	}
}
