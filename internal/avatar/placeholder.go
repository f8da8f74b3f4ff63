package avatar

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/glyphd/glyphd/internal/storage"
	"github.com/glyphd/glyphd/internal/theme"
)

const (
	placeholderBase = "avatar-placeholder"
	placeholderExt  = ".png"
)

// Placeholder serves the generated initials avatar for one user.
// Generation happens at most once per (size, theme) until the cache is
// invalidated; every later request is served from the store.
type Placeholder struct {
	userID string
	folder storage.Folder
	svc    *Service
}

// resolvePath maps (size, theme) to the canonical cache filename:
//
//	avatar-placeholder.png          native size, light
//	avatar-placeholder-dark.png     native size, dark
//	avatar-placeholder.64.png       64px, light
//	avatar-placeholder-dark.64.png  64px, dark
//
// Pure name derivation; size validity is the orchestrator's concern.
func resolvePath(size int, dark bool) string {
	name := placeholderBase
	if dark {
		name += "-dark"
	}
	if size == SizeOriginal {
		return name + placeholderExt
	}
	return fmt.Sprintf("%s.%d%s", name, size, placeholderExt)
}

// Exists is always true: a placeholder can be generated for any user.
func (p *Placeholder) Exists(ctx context.Context) bool { return true }

// IsCustom is always false for the placeholder kind.
func (p *Placeholder) IsCustom() bool { return false }

// Set is deliberately inert: placeholders are derived from the user's
// identity and cannot be replaced with uploaded data.
func (p *Placeholder) Set(ctx context.Context, data []byte) error { return nil }

// File returns the cached artifact for (size, dark), generating it on
// first miss.
func (p *Placeholder) File(ctx context.Context, size int, dark bool) (Artifact, error) {
	name := resolvePath(size, dark)
	hotKey := p.userID + "/" + name

	if p.svc.hot != nil {
		if data, ok, err := p.svc.hot.Get(ctx, hotKey); err == nil && ok {
			return Artifact{Name: name, Data: data}, nil
		}
	}

	entry, err := p.folder.Entry(ctx, name)
	switch {
	case err == nil:
		// cache hit: serve the stored bytes, no staleness checking
		data, readErr := entry.Read(ctx)
		if readErr != nil {
			return Artifact{}, fmt.Errorf("cached avatar read for %s: %w", p.userID, readErr)
		}
		p.hotSet(ctx, hotKey, data)
		return Artifact{Name: name, Path: entry.Path(), Data: data}, nil

	case !errors.Is(err, storage.ErrNotFound):
		return Artifact{}, fmt.Errorf("avatar lookup for %s: %w", p.userID, err)
	}

	// cache miss. The native-size sentinel is lookup-only, and sizes
	// below 1 cannot be rendered: both are terminal misses.
	if size <= 0 {
		return Artifact{}, ErrNotFound
	}

	data, err := p.generate(ctx, size, dark)
	if err != nil {
		return Artifact{}, err
	}

	stored, err := p.persist(ctx, name, data)
	if err != nil {
		if errors.Is(err, storage.ErrNotPermitted) {
			// store failures must not leak to the caller as anything
			// other than a missing avatar
			log.Warn().Err(err).Str("user", p.userID).Str("entry", name).
				Msg("placeholder write denied by store")
			return Artifact{}, ErrNotFound
		}
		return Artifact{}, fmt.Errorf("placeholder store for %s: %w", p.userID, err)
	}

	p.hotSet(ctx, hotKey, data)

	return Artifact{Name: name, Path: stored.Path(), Data: data}, nil
}

// hotSet stores freshly read or generated bytes in the hot cache.
// Cache failures are not fatal; the store remains authoritative.
func (p *Placeholder) hotSet(ctx context.Context, key string, data []byte) {
	if p.svc.hot == nil {
		return
	}
	if err := p.svc.hot.Set(ctx, key, data); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("hot cache store failed")
	}
}

// generate renders the placeholder bytes: vector first, raster when
// the vector renderer declines. Raster failures are fatal and
// propagate unchanged.
func (p *Placeholder) generate(ctx context.Context, size int, dark bool) ([]byte, error) {
	id, err := p.svc.names.Lookup(ctx, p.userID)
	if err != nil {
		return nil, fmt.Errorf("identity lookup for %s: %w", p.userID, err)
	}

	t := theme.FromDark(dark)

	data, err := p.svc.vector.Render(ctx, id.DisplayName(), size, t)
	if err != nil {
		return nil, fmt.Errorf("vector render for %s: %w", p.userID, err)
	}
	if data != nil {
		return data, nil
	}

	data, err = p.svc.raster.Render(ctx, id.DisplayName(), size, t)
	if err != nil {
		return nil, fmt.Errorf("raster render for %s: %w", p.userID, err)
	}

	return data, nil
}

// persist writes the generated bytes under the canonical name. Create
// is create-or-open, so a concurrent generator winning the race is
// fine: both writers store identical content and the write overwrites
// idempotently.
func (p *Placeholder) persist(ctx context.Context, name string, data []byte) (storage.Entry, error) {
	entry, err := p.folder.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := entry.Write(ctx, data); err != nil {
		return nil, err
	}

	return entry, nil
}

// Remove deletes every cached artifact for the user, regardless of
// size and theme. Removing an empty cache is a no-op.
func (p *Placeholder) Remove(ctx context.Context) error {
	entries, err := p.folder.List(ctx)
	if err != nil {
		return fmt.Errorf("avatar cache listing for %s: %w", p.userID, err)
	}

	for _, entry := range entries {
		if p.svc.hot != nil {
			_ = p.svc.hot.Invalidate(ctx, p.userID+"/"+entry.Name())
		}

		if err := entry.Delete(ctx); err != nil {
			// a concurrent invalidation may have beaten us to it
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if errors.Is(err, storage.ErrNotPermitted) {
				return fmt.Errorf("%w: delete of %s denied", ErrNotPermitted, entry.Name())
			}
			return fmt.Errorf("avatar invalidation for %s: %w", p.userID, err)
		}
	}

	return nil
}

// UserChanged invalidates the whole cache whenever a rendering input
// may have changed. The cached artifacts carry no record of the inputs
// that produced them, so any feature change forces full invalidation.
func (p *Placeholder) UserChanged(ctx context.Context, feature, oldValue, newValue string) error {
	log.Debug().Str("user", p.userID).Str("feature", feature).
		Msg("user feature changed, invalidating placeholder cache")

	return p.Remove(ctx)
}
