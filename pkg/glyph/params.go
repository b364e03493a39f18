package glyph

import (
	"math"
	"strings"

	"github.com/matzehuels/overlay3d/pkg/geom"
)

// Defaults applied when a field is absent or out of range.
const (
	DefaultText     = " "
	DefaultColor    = "#ffffff"
	DefaultFontSize = 1.0
	DefaultRadius   = 4.0

	// MinRadius is the smallest magnitude a circular radius may take.
	MinRadius = 0.001

	// OffsetScale converts caller offset units to world units.
	OffsetScale = 100.0
)

// Mode selects the layout engine.
type Mode string

const (
	ModeCircular Mode = "circular"
	ModeLinear   Mode = "linear"
)

// Params is the caller-supplied text style. Optional numbers are pointers so an
// explicit zero can be told apart from an absent field.
type Params struct {
	Text          string   `json:"text" toml:"text"`
	ReverseText   bool     `json:"reverseText,omitempty" toml:"reverse_text"`
	Color         string   `json:"color,omitempty" toml:"color"`
	FontSize      float64  `json:"fontSize,omitempty" toml:"font_size"`
	FontWeight    string   `json:"fontWeight,omitempty" toml:"font_weight"`
	FontFamily    string   `json:"fontFamily,omitempty" toml:"font_family"`
	LetterSpacing float64  `json:"letterSpacing,omitempty" toml:"letter_spacing"`
	RadiusValue   *float64 `json:"radius,omitempty" toml:"radius"`
	TiltX         float64  `json:"tiltX,omitempty" toml:"tilt_x"`
	TiltY         float64  `json:"tiltY,omitempty" toml:"tilt_y"`
	RotationY     *float64 `json:"rotationY,omitempty" toml:"rotation_y"`
	XOffset       float64  `json:"xOffset,omitempty" toml:"x_offset"`
	YOffset       float64  `json:"yOffset,omitempty" toml:"y_offset"`
	FaceOutward   bool     `json:"faceOutward,omitempty" toml:"face_outward"`
	FrontHalfOnly bool     `json:"frontHalfOnly,omitempty" toml:"front_half_only"`
	Mode          Mode     `json:"mode,omitempty" toml:"mode"`
}

// Float returns a pointer to v, for filling optional fields.
func Float(v float64) *float64 { return &v }

// RawText returns the text with empty or whitespace-only input replaced by a
// single space.
func (p Params) RawText() string {
	if strings.TrimSpace(p.Text) == "" {
		return DefaultText
	}
	return p.Text
}

// Graphemes returns the display sequence: user-perceived characters of RawText,
// reversed when ReverseText is set.
func (p Params) Graphemes() []string {
	g := Split(p.RawText())
	if p.ReverseText {
		Reverse(g)
	}
	return g
}

// Content is Graphemes joined back into a string.
func (p Params) Content() string {
	return strings.Join(p.Graphemes(), "")
}

// Size returns the font size, defaulting non-positive or non-finite values.
func (p Params) Size() float64 {
	if p.FontSize <= 0 || math.IsNaN(p.FontSize) || math.IsInf(p.FontSize, 0) {
		return DefaultFontSize
	}
	return p.FontSize
}

// Spacing returns the letter spacing as a fraction of the font size.
func (p Params) Spacing() float64 {
	if math.IsNaN(p.LetterSpacing) || math.IsInf(p.LetterSpacing, 0) {
		return 0
	}
	return p.LetterSpacing
}

// Radius returns the circle radius. The sign selects the winding and the
// magnitude is clamped to at least MinRadius.
func (p Params) Radius() float64 {
	if p.RadiusValue == nil || math.IsNaN(*p.RadiusValue) || math.IsInf(*p.RadiusValue, 0) {
		return DefaultRadius
	}
	r := *p.RadiusValue
	if math.Abs(r) < MinRadius {
		if r < 0 {
			return -MinRadius
		}
		return MinRadius
	}
	return r
}

// Weight returns the font weight, "normal" when unset.
func (p Params) Weight() string {
	if p.FontWeight == "" {
		return "normal"
	}
	return p.FontWeight
}

// LayoutMode returns the requested engine, circular when unset or unknown.
func (p Params) LayoutMode() Mode {
	if p.Mode == ModeLinear {
		return ModeLinear
	}
	return ModeCircular
}

// GroupRotation returns the group's X and Y rotation in radians. RotationY, when
// present, overrides TiltY.
func (p Params) GroupRotation() (x, y float64) {
	x = geom.DegToRad(p.TiltX)
	if p.RotationY != nil {
		return x, *p.RotationY
	}
	return x, geom.DegToRad(p.TiltY)
}

// GroupOffset returns the group translation in world units.
func (p Params) GroupOffset() geom.Vec3 {
	return geom.Vec3{p.XOffset / OffsetScale, p.YOffset / OffsetScale, 0}
}
