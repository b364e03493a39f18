package layout

import (
	"strings"

	"github.com/matzehuels/overlay3d/pkg/geom"
	"github.com/matzehuels/overlay3d/pkg/glyph"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

// Linear layout constants.
const (
	// AdvanceFactor is the fixed per-glyph advance as a fraction of the font size.
	// Letter spacing does not affect the per-glyph variant.
	AdvanceFactor = 0.45

	// SpecialScaleLinear is the size multiplier of the special glyph on a line.
	SpecialScaleLinear = 1.8

	// SpecialOutlineWidth is the outline width of the special glyph as a fraction
	// of its font size.
	SpecialOutlineWidth = 0.03
)

// Variant is the linear rendering strategy chosen for one update.
type Variant int

const (
	// VariantSimple renders the whole string as one centered block.
	VariantSimple Variant = iota
	// VariantPerGlyph renders one node per grapheme with manual advances.
	VariantPerGlyph
)

func (v Variant) String() string {
	if v == VariantPerGlyph {
		return "per-glyph"
	}
	return "simple"
}

// ChooseVariant selects the per-glyph variant when any grapheme needs its own style.
func ChooseVariant(chars []string) Variant {
	if glyph.ContainsSpecial(chars) {
		return VariantPerGlyph
	}
	return VariantSimple
}

// Linear lays text out along the group's X axis.
type Linear struct {
	group   *scene.Node
	pool    *glyph.Pool
	variant Variant
}

// NewLinear creates the engine and attaches its group to parent, which may be nil.
func NewLinear(parent *scene.Node) *Linear {
	g := scene.NewGroup("linear")
	if parent != nil {
		parent.Add(g)
	}
	return &Linear{group: g, pool: glyph.NewPool(g, "linear-glyph-")}
}

// Group returns the engine's root node.
func (l *Linear) Group() *scene.Node { return l.group }

// Glyphs returns snapshots of the pooled glyphs.
func (l *Linear) Glyphs() []glyph.Glyph { return l.pool.Snapshots() }

// Variant returns the strategy used by the last Update.
func (l *Linear) Variant() Variant { return l.variant }

// Update lays out p on a line.
func (l *Linear) Update(p glyph.Params) {
	chars := p.Graphemes()
	l.variant = ChooseVariant(chars)

	switch l.variant {
	case VariantPerGlyph:
		l.layoutPerGlyph(p, chars)
	default:
		l.layoutSimple(p, chars)
	}

	applyGroup(l.group, p)
	l.group.UpdateWorld()
}

func (l *Linear) layoutSimple(p glyph.Params, chars []string) {
	l.pool.Resize(1)
	node := l.pool.At(0)

	t := node.Text
	t.Content = strings.Join(chars, "")
	t.Size = p.Size()
	t.LetterSpacing = p.Spacing()
	t.Color = p.ColorOf()
	t.Weight = p.Weight()
	t.Family = p.FontFamily
	t.AnchorX = scene.AnchorCenter
	t.Outline = nil

	node.Position = geom.Origin
	node.Rotation = geom.Identity()
	node.Visible = true
}

func (l *Linear) layoutPerGlyph(p glyph.Params, chars []string) {
	l.pool.Resize(len(chars))

	var (
		size    = p.Size()
		advance = size * AdvanceFactor
		color   = p.ColorOf()
		weight  = p.Weight()
		special = glyph.MustColor(glyph.SpecialColor)
		x       = 0.0
	)

	for i, ch := range chars {
		node := l.pool.At(i)
		t := node.Text
		t.Content = ch
		t.Weight = weight
		t.Family = p.FontFamily
		t.LetterSpacing = 0
		t.AnchorX = scene.AnchorLeft
		if glyph.IsSpecial(ch) {
			t.Size = size * SpecialScaleLinear
			t.Color = special
			t.Outline = &scene.Outline{Width: SpecialOutlineWidth, Color: special}
		} else {
			t.Size = size
			t.Color = color
			t.Outline = nil
		}

		node.Position = geom.Vec3{x, 0, 0}
		node.Rotation = geom.Identity()
		node.Visible = true
		x += advance
	}

	// The last glyph's advance is not part of the measured width.
	shift := -(x - advance) / 2
	for _, node := range l.pool.Nodes() {
		node.Position[0] += shift
	}
}
