package raster

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/overlay3d/pkg/fonts"
)

// Sprite size limits in pixels per em.
const (
	minSpritePx = 8
	maxSpritePx = 256

	// maxSpriteWidth caps the drawn width of one text block; graphemes past it
	// are dropped.
	maxSpriteWidth = 4096

	maxSprites = 1024
)

// sprite is a rasterized, tinted text block.
type sprite struct {
	img *image.RGBA
	// ax, ay is the pixel that maps to the text node's local origin.
	ax, ay float64
	// em is the number of sprite pixels per em.
	em float64
}

type spriteKey struct {
	content string
	px      int
	family  string
	weight  string
	color   color.NRGBA
	outline Outline
	spacing float64
	anchor  Anchor
}

type faceKey struct {
	face *fonts.Face
	px   int
}

// spriteFor returns the cached sprite for t at px pixels per em.
func (r *Renderer) spriteFor(ctx context.Context, t *Text, px int) (*sprite, error) {
	key := spriteKey{
		content: t.Content,
		px:      px,
		family:  t.Family,
		weight:  t.Weight,
		color:   t.Color,
		spacing: t.LetterSpacing,
		anchor:  t.AnchorX,
	}
	if t.Outline != nil {
		key.outline = *t.Outline
	}
	if s, ok := r.sprites[key]; ok {
		return s, nil
	}

	s, err := r.rasterize(ctx, t, px)
	if err != nil {
		return nil, err
	}
	if len(r.sprites) >= maxSprites {
		r.sprites = make(map[spriteKey]*sprite)
	}
	r.sprites[key] = s
	return s, nil
}

func (r *Renderer) face(f *fonts.Face, px int) (font.Face, error) {
	k := faceKey{f, px}
	if ff, ok := r.faces[k]; ok {
		return ff, nil
	}
	ff, err := f.NewFace(float64(px))
	if err != nil {
		return nil, err
	}
	r.faces[k] = ff
	return ff, nil
}

type run struct {
	text    string
	face    font.Face
	advance fixed.Int26_6
}

func (r *Renderer) rasterize(ctx context.Context, t *Text, px int) (*sprite, error) {
	chain, err := r.fonts.Chain(ctx, t.Family, t.Weight)
	if err != nil {
		return nil, err
	}
	primary, err := r.face(chain[0], px)
	if err != nil {
		return nil, err
	}

	var (
		runs    []run
		width   fixed.Int26_6
		spacing = fixed.Int26_6(math.Round(t.LetterSpacing * float64(px) * 64))
	)
	g := uniseg.NewGraphemes(t.Content)
	for g.Next() {
		s := g.Str()
		ff, err := r.face(fonts.Pick(chain, s), px)
		if err != nil {
			return nil, err
		}
		adv := font.MeasureString(ff, s)
		next := width + adv
		if len(runs) > 0 {
			next += spacing
		}
		if next.Ceil() > maxSpriteWidth {
			break
		}
		runs = append(runs, run{text: s, face: ff, advance: adv})
		width = next
	}
	if width < 0 {
		width = 0
	}

	m := primary.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()

	outlinePx := 0.0
	if t.Outline != nil && t.Outline.Width > 0 {
		outlinePx = t.Outline.Width * float64(px)
	}
	pad := int(math.Ceil(outlinePx)) + 2

	w := width.Ceil() + 2*pad
	h := ascent + descent + 2*pad
	mask := image.NewAlpha(image.Rect(0, 0, w, h))

	x := fixed.I(pad)
	for i, rn := range runs {
		if i > 0 {
			x += spacing
		}
		d := font.Drawer{
			Dst:  mask,
			Src:  image.Opaque,
			Face: rn.face,
			Dot:  fixed.Point26_6{X: x, Y: fixed.I(pad + ascent)},
		}
		d.DrawString(rn.text)
		x += rn.advance
	}

	s := &sprite{
		img: tint(mask, t.Color, t.Outline, outlinePx),
		ay:  float64(pad) + float64(ascent+descent)/2,
		em:  float64(px),
	}
	switch t.AnchorX {
	case AnchorLeft:
		s.ax = float64(pad)
	default:
		s.ax = float64(w) / 2
	}
	return s, nil
}

// tint colors mask with fill and, when outline is set, a dilated stroke drawn
// underneath. The result is premultiplied.
func tint(mask *image.Alpha, fill color.NRGBA, outline *Outline, outlinePx float64) *image.RGBA {
	b := mask.Bounds()
	out := image.NewRGBA(b)

	var stroke *image.RGBA
	if outline != nil && outlinePx > 0 {
		white := image.NewRGBA(b)
		for i, a := range mask.Pix {
			white.Pix[i*4+0] = a
			white.Pix[i*4+1] = a
			white.Pix[i*4+2] = a
			white.Pix[i*4+3] = a
		}
		stroke = effect.Dilate(white, outlinePx)
	}

	fa := float64(fill.A) / 255
	for i, a := range mask.Pix {
		cov := float64(a) / 255 * fa
		r := float64(fill.R) * cov
		g := float64(fill.G) * cov
		bl := float64(fill.B) * cov
		alpha := 255 * cov
		if stroke != nil {
			sc := float64(stroke.Pix[i*4+3]) / 255 * float64(outline.Color.A) / 255
			rest := sc * (1 - cov)
			r += float64(outline.Color.R) * rest
			g += float64(outline.Color.G) * rest
			bl += float64(outline.Color.B) * rest
			alpha += 255 * rest
		}
		j := i * 4
		out.Pix[j+0] = clamp8(r)
		out.Pix[j+1] = clamp8(g)
		out.Pix[j+2] = clamp8(bl)
		out.Pix[j+3] = clamp8(alpha)
	}
	return out
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
