package render_test

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphd/glyphd/internal/render"
	"github.com/glyphd/glyphd/internal/theme"
)

func TestRasterProducesDecodablePNG(t *testing.T) {
	r, err := render.NewRaster(theme.DefaultPalette())
	require.NoError(t, err)

	data, err := r.Render(context.Background(), "Ada Lovelace", 64, theme.Light)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestRasterIsDeterministic(t *testing.T) {
	r, err := render.NewRaster(theme.DefaultPalette())
	require.NoError(t, err)

	first, err := r.Render(context.Background(), "Ada Lovelace", 32, theme.Light)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), "Ada Lovelace", 32, theme.Light)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRasterThemesDiffer(t *testing.T) {
	r, err := render.NewRaster(theme.DefaultPalette())
	require.NoError(t, err)

	light, err := r.Render(context.Background(), "Ada Lovelace", 32, theme.Light)
	require.NoError(t, err)
	dark, err := r.Render(context.Background(), "Ada Lovelace", 32, theme.Dark)
	require.NoError(t, err)

	assert.NotEqual(t, light, dark)
}

func TestRasterRejectsInvalidSize(t *testing.T) {
	r, err := render.NewRaster(theme.DefaultPalette())
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "Ada Lovelace", 0, theme.Light)
	assert.Error(t, err)
}

func TestRasterEmptyDisplayName(t *testing.T) {
	r, err := render.NewRaster(theme.DefaultPalette())
	require.NoError(t, err)

	// blank names render the "?" placeholder rather than failing
	data, err := r.Render(context.Background(), "", 48, theme.Light)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
