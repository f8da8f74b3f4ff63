package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"text/template"

	"github.com/rs/zerolog/log"

	"github.com/glyphd/glyphd/internal/identity"
	"github.com/glyphd/glyphd/internal/theme"
)

// svgDocument is the vector form of the placeholder: a colored square
// with centered initials. The rasterization service converts it to PNG
// at the requested pixel size.
var svgDocument = template.Must(template.New("avatar").Parse(
	`<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="{{.Size}}" height="{{.Size}}" viewBox="0 0 {{.Size}} {{.Size}}">` +
		`<rect width="100%" height="100%" fill="#{{.Background}}"/>` +
		`<text x="50%" y="53%" style="font-weight:normal;font-size:{{.FontSize}}px;font-family:sans-serif" fill="#{{.Foreground}}" text-anchor="middle" dominant-baseline="middle">{{.Text}}</text>` +
		`</svg>`))

type svgInput struct {
	Size       int
	FontSize   int
	Background string
	Foreground string
	Text       string
}

// Vector renders through an external SVG-to-PNG conversion service.
// It declines (nil, nil) when no service is configured or the service
// fails: the caller falls back to local rasterization, and a degraded
// conversion service must never fail avatar requests.
type Vector struct {
	convertURL string
	palette    *theme.Palette
	client     *http.Client
}

// NewVector creates a vector renderer posting to convertURL. An empty
// URL produces a renderer that always declines.
func NewVector(convertURL string, palette *theme.Palette, client *http.Client) *Vector {
	if client == nil {
		client = http.DefaultClient
	}
	return &Vector{convertURL: convertURL, palette: palette, client: client}
}

func (v *Vector) Render(ctx context.Context, displayName string, size int, t theme.Theme) ([]byte, error) {
	if v.convertURL == "" {
		return nil, nil
	}

	svg, err := v.document(displayName, size, t)
	if err != nil {
		return nil, fmt.Errorf("svg build failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.convertURL, bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("conversion request: %w", err)
	}
	req.Header.Set("Content-Type", "image/svg+xml")
	req.Header.Set("Accept", "image/png")

	resp, err := v.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("svg conversion service unreachable, falling back to raster")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).
			Msg("svg conversion service refused document, falling back to raster")
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Msg("svg conversion response truncated, falling back to raster")
		return nil, nil
	}

	return data, nil
}

func (v *Vector) document(displayName string, size int, t theme.Theme) ([]byte, error) {
	scheme := v.palette.Scheme(displayName, t)

	var buf bytes.Buffer
	err := svgDocument.Execute(&buf, svgInput{
		Size:       size,
		FontSize:   int(float64(size) * glyphScale),
		Background: scheme.Background.Hex(),
		Foreground: scheme.Foreground.Hex(),
		Text:       html.EscapeString(identity.Initials(displayName)),
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
