package theme

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Palette is the set of candidate background colors.
type Palette struct {
	Colors []Color `yaml:"colors"`
}

// DefaultPalette returns the built-in color set.
func DefaultPalette() *Palette {
	return &Palette{Colors: []Color{
		{0x00, 0x82, 0xc9},
		{0x1e, 0x78, 0xc1},
		{0x31, 0xcc, 0x7c},
		{0x5b, 0x64, 0xb3},
		{0x7c, 0x31, 0xcc},
		{0x9c, 0x27, 0xb0},
		{0xb1, 0x70, 0x0f},
		{0xc9, 0x82, 0x00},
		{0xcc, 0x31, 0x7c},
		{0xd0, 0x91, 0xe6},
		{0xdb, 0x44, 0x35},
		{0xe6, 0x7e, 0x22},
		{0x00, 0x96, 0x88},
		{0x60, 0x7d, 0x8b},
	}}
}

// LoadPalette reads a palette override from a YAML file.
func LoadPalette(path string) (*Palette, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("palette read failed: %w", err)
	}

	return ParsePalette(content)
}

// ParsePalette parses and validates YAML palette content.
func ParsePalette(content []byte) (*Palette, error) {
	var p Palette
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("palette parse failed: %w", err)
	}

	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("palette defines no colors")
	}

	return &p, nil
}

// UnmarshalYAML parses a color from "#rrggbb" or "rrggbb" notation.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if len(raw) > 0 && raw[0] == '#' {
		raw = raw[1:]
	}
	if len(raw) != 6 {
		return fmt.Errorf("invalid color %q: expected rrggbb", raw)
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(raw, "%02x%02x%02x", &r, &g, &b); err != nil {
		return fmt.Errorf("invalid color %q: %w", raw, err)
	}

	*c = Color{R: r, G: g, B: b}
	return nil
}
