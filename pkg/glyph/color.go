package glyph

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// SpecialColor is the tint applied to the special glyph.
const SpecialColor = "#4A90E2"

// White is the default glyph color.
var White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// ParseColor parses a #rgb or #rrggbb string. Invalid input yields ok=false
// and the default white.
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return White, false
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return White, false
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, true
}

// MustColor is ParseColor for constants known to be valid.
func MustColor(s string) color.NRGBA {
	c, _ := ParseColor(s)
	return c
}

// ColorOf returns the parsed Params color, white when invalid or unset.
func (p Params) ColorOf() color.NRGBA {
	c, _ := ParseColor(p.Color)
	return c
}

// Hex formats c as #rrggbb.
func Hex(c color.NRGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}
