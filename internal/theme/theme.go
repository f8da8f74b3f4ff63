// Package theme maps a display name deterministically to the avatar's
// colors. The palette can be replaced from a YAML file; the selection
// for a given name is stable across restarts so cached artifacts and
// regenerated artifacts always agree.
package theme

import (
	"fmt"
	"hash/fnv"
)

// Theme selects the light or dark rendering variant.
type Theme int

const (
	Light Theme = iota
	Dark
)

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// FromDark converts the wire-level boolean into a Theme.
func FromDark(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

// Color is an opaque RGB color.
type Color struct {
	R, G, B uint8
}

// Hex renders the color as rrggbb without a leading hash.
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// Scheme is the resolved color pair for one rendering.
type Scheme struct {
	Background Color
	Foreground Color
}

// Scheme returns the colors for the given display name and theme. The
// background is picked from the palette by a hash of the name; the
// dark variant dims the background so the avatar doesn't glare on dark
// UIs.
func (p *Palette) Scheme(name string, t Theme) Scheme {
	bg := p.pick(name)

	if t == Dark {
		return Scheme{
			Background: dim(bg),
			Foreground: Color{R: 0xee, G: 0xee, B: 0xee},
		}
	}

	return Scheme{
		Background: bg,
		Foreground: Color{R: 0xff, G: 0xff, B: 0xff},
	}
}

func (p *Palette) pick(name string) Color {
	h := fnv.New32a()
	h.Write([]byte(name))
	return p.Colors[int(h.Sum32())%len(p.Colors)]
}

func dim(c Color) Color {
	// keep 60% of each channel; enough contrast for near-white text
	return Color{
		R: uint8(uint16(c.R) * 6 / 10),
		G: uint8(uint16(c.G) * 6 / 10),
		B: uint8(uint16(c.B) * 6 / 10),
	}
}
