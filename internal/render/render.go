// Package render produces the PNG bytes for placeholder avatars. Two
// renderers share one contract: the vector renderer delegates to an
// external rasterization service and may decline, the raster renderer
// draws locally and must succeed. All output is PNG regardless of
// which renderer produced it.
package render

import (
	"context"

	"github.com/glyphd/glyphd/internal/theme"
)

// Renderer produces image bytes for a display name at the requested
// square pixel size.
//
// A (nil, nil) return means "cannot render, try the next renderer"
// and is not a failure. A non-nil error is fatal for the request.
type Renderer interface {
	Render(ctx context.Context, displayName string, size int, t theme.Theme) ([]byte, error)
}
