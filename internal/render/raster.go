package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/glyphd/glyphd/internal/identity"
	"github.com/glyphd/glyphd/internal/theme"
)

// initials take up just under half the avatar's height
const glyphScale = 0.45

// Raster draws the avatar locally: a solid themed background with the
// user's initials centered in the embedded Go Regular face. It is the
// fallback of last resort and does not decline; any error it returns
// is a fatal rendering failure.
type Raster struct {
	palette *theme.Palette
	font    *sfnt.Font
}

// NewRaster creates a raster renderer using the given palette.
func NewRaster(palette *theme.Palette) (*Raster, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("embedded font parse failed: %w", err)
	}

	return &Raster{palette: palette, font: f}, nil
}

func (r *Raster) Render(ctx context.Context, displayName string, size int, t theme.Theme) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("raster render: invalid size %d", size)
	}

	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(size) * glyphScale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("face construction failed: %w", err)
	}
	defer face.Close()

	scheme := r.palette.Scheme(displayName, t)

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(rgba(scheme.Background)), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(rgba(scheme.Foreground)),
		Face: face,
	}

	text := identity.Initials(displayName)

	width := drawer.MeasureString(text)
	metrics := face.Metrics()

	drawer.Dot = fixed.Point26_6{
		X: (fixed.I(size) - width) / 2,
		Y: (fixed.I(size) + metrics.Ascent - metrics.Descent) / 2,
	}
	drawer.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encoding failed: %w", err)
	}

	return buf.Bytes(), nil
}

func rgba(c theme.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}
