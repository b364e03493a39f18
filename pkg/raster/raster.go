// Package raster is a small software renderer for the overlay scene.
//
// It draws two kinds of items into a transparent premultiplied RGBA buffer:
// text blocks, rasterized from font outlines and mapped onto the screen with an
// affine approximation of their projected quad, and depth-only volumes, which are
// ray cast per pixel into a depth buffer. Volumes are drawn first; text is drawn
// back to front and blended source-over, skipping pixels that a volume covers
// nearer to the camera.
package raster

import (
	"context"
	"image"
	"image/draw"
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"

	"github.com/matzehuels/overlay3d/pkg/fonts"
	"github.com/matzehuels/overlay3d/pkg/geom"
)

// Options configures a Renderer.
type Options struct {
	// PixelRatio scales the buffer relative to the logical size. Zero means 1.
	PixelRatio float64
	// PreserveBuffer keeps the buffer contents after Present. Without it the
	// buffer is cleared once presented.
	PreserveBuffer bool
	Logger         *log.Logger
}

// Renderer owns a color buffer, a depth buffer and a sprite cache. It is not safe
// for concurrent use.
type Renderer struct {
	opts  Options
	fonts *fonts.Cache

	width, height int
	buf           *image.RGBA
	depth         []float64
	scratch       *image.RGBA

	sprites map[spriteKey]*sprite
	faces   map[faceKey]font.Face
	logger  *log.Logger
}

// New returns a renderer for a logical w×h viewport.
func New(w, h int, fc *fonts.Cache, opts Options) *Renderer {
	if fc == nil {
		fc = fonts.NewCache()
	}
	if opts.PixelRatio <= 0 {
		opts.PixelRatio = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Renderer{
		opts:    opts,
		fonts:   fc,
		sprites: make(map[spriteKey]*sprite),
		faces:   make(map[faceKey]font.Face),
		logger:  logger,
	}
	r.SetSize(w, h)
	return r
}

// SetSize resizes the buffers for a logical w×h viewport.
func (r *Renderer) SetSize(w, h int) {
	bw := int(math.Round(float64(max(w, 1)) * r.opts.PixelRatio))
	bh := int(math.Round(float64(max(h, 1)) * r.opts.PixelRatio))
	if bw == r.width && bh == r.height && r.buf != nil {
		return
	}
	r.width, r.height = bw, bh
	r.buf = image.NewRGBA(image.Rect(0, 0, bw, bh))
	r.scratch = image.NewRGBA(image.Rect(0, 0, bw, bh))
	r.depth = make([]float64, bw*bh)
	r.Clear()
}

// SetPixelRatio changes the buffer scale, keeping the logical size.
func (r *Renderer) SetPixelRatio(ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	lw, lh := r.LogicalSize()
	r.opts.PixelRatio = ratio
	r.SetSize(lw, lh)
}

// Size returns the buffer size in pixels.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// LogicalSize returns the viewport size before the pixel ratio is applied.
func (r *Renderer) LogicalSize() (int, int) {
	return int(math.Round(float64(r.width) / r.opts.PixelRatio)),
		int(math.Round(float64(r.height) / r.opts.PixelRatio))
}

// Image returns the color buffer.
func (r *Renderer) Image() *image.RGBA { return r.buf }

// Clear resets color to transparent and depth to infinity.
func (r *Renderer) Clear() {
	clear(r.buf.Pix)
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}
}

// Render clears the buffers and draws items as seen by cam.
func (r *Renderer) Render(ctx context.Context, items []Item, cam Camera) *image.RGBA {
	r.Clear()

	var volumes, texts []Item
	for _, it := range items {
		switch {
		case it.Volume != nil:
			volumes = append(volumes, it)
		case it.Text != nil:
			texts = append(texts, it)
		}
	}
	sort.SliceStable(volumes, func(i, j int) bool {
		return volumes[i].RenderOrder < volumes[j].RenderOrder
	})
	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].RenderOrder != texts[j].RenderOrder {
			return texts[i].RenderOrder < texts[j].RenderOrder
		}
		return cam.Depth(geom.MatrixPosition(texts[i].World)) > cam.Depth(geom.MatrixPosition(texts[j].World))
	})

	for _, it := range volumes {
		r.drawVolume(it, cam)
	}
	for _, it := range texts {
		if err := r.drawText(ctx, it, cam); err != nil {
			r.logger.Debug("text skipped", "content", it.Text.Content, "err", err)
		}
	}
	return r.buf
}

// Present copies the buffer onto dst, scaling when sizes differ. Unless
// PreserveBuffer is set the buffer is cleared afterwards.
func (r *Renderer) Present(dst draw.Image) {
	if dst != nil {
		db := dst.Bounds()
		if db.Dx() == r.width && db.Dy() == r.height {
			draw.Draw(dst, db, r.buf, image.Point{}, draw.Src)
		} else {
			xdraw.ApproxBiLinear.Scale(dst, db, r.buf, r.buf.Bounds(), xdraw.Src, nil)
		}
	}
	if !r.opts.PreserveBuffer {
		r.Clear()
	}
}

// DepthAt returns the depth buffer value at buffer pixel (x, y).
func (r *Renderer) DepthAt(x, y int) float64 {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return math.Inf(1)
	}
	return r.depth[y*r.width+x]
}

func (r *Renderer) drawVolume(it Item, cam Camera) {
	if !it.Volume.DepthWrite {
		return
	}
	inv := it.World.Inv()
	rect := r.bounds()

	// Restrict the ray cast to the projected bounding box when fully in front.
	var pts []geom.Vec3
	inFront := true
	for _, c := range (geom.UnitCylinder{}).Corners() {
		x, y, _, ok := cam.Project(geom.TransformPoint(it.World, c), r.width, r.height)
		if !ok {
			inFront = false
			break
		}
		pts = append(pts, geom.Vec3{x, y, 0})
	}
	if inFront {
		rect = screenRect(pts).Intersect(rect)
	}

	var cyl geom.UnitCylinder
	unproject := cam.Projection.Mul4(cam.View).Inv()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			ray := rayThrough(unproject, float64(x)+0.5, float64(y)+0.5, r.width, r.height)
			local := geom.Ray{
				Origin: geom.TransformPoint(inv, ray.Origin),
				Dir:    geom.TransformDir(inv, ray.Dir),
			}
			t, ok := cyl.IntersectFront(local, 0)
			if !ok {
				continue
			}
			d := cam.Depth(ray.At(t))
			i := y*r.width + x
			if d >= cam.Near && d < r.depth[i] {
				r.depth[i] = d
			}
		}
	}
}

func (r *Renderer) drawText(ctx context.Context, it Item, cam Camera) error {
	t := it.Text
	if t.Size <= 0 || t.Content == "" {
		return nil
	}

	origin := geom.TransformPoint(it.World, geom.Origin)
	x0, y0, depth, ok := cam.Project(origin, r.width, r.height)
	if !ok {
		return nil
	}
	xx, xy, _, okx := cam.Project(geom.TransformPoint(it.World, geom.Vec3{t.Size, 0, 0}), r.width, r.height)
	yx, yy, _, oky := cam.Project(geom.TransformPoint(it.World, geom.Vec3{0, t.Size, 0}), r.width, r.height)
	if !okx || !oky {
		return nil
	}

	ex := geom.Vec3{xx - x0, xy - y0, 0}
	ey := geom.Vec3{yx - x0, yy - y0, 0}
	emPx := math.Max(ex.Len(), ey.Len())
	if !finite(emPx) || emPx < 0.5 {
		return nil
	}
	px := int(math.Ceil(emPx))
	px = min(max(px, minSpritePx), maxSpritePx)

	s, err := r.spriteFor(ctx, t, px)
	if err != nil {
		return err
	}

	// One sprite pixel along u moves ex/em on screen; along v (downwards) it
	// moves -ey/em.
	du := ex.Mul(1 / s.em)
	dv := ey.Mul(-1 / s.em)
	aff := f64.Aff3{
		du[0], dv[0], x0 - s.ax*du[0] - s.ay*dv[0],
		du[1], dv[1], y0 - s.ax*du[1] - s.ay*dv[1],
	}

	sb := s.img.Bounds()
	var corners []geom.Vec3
	for _, p := range []image.Point{sb.Min, {sb.Max.X, sb.Min.Y}, {sb.Min.X, sb.Max.Y}, sb.Max} {
		u, v := float64(p.X), float64(p.Y)
		corners = append(corners, geom.Vec3{aff[0]*u + aff[1]*v + aff[2], aff[3]*u + aff[4]*v + aff[5], 0})
	}
	rect := screenRect(corners).Intersect(r.bounds())
	if rect.Empty() {
		return nil
	}

	layer := r.scratch.SubImage(rect).(*image.RGBA)
	clearRect(layer)
	xdraw.BiLinear.Transform(layer, aff, s.img, sb, xdraw.Over, nil)
	r.composite(layer, rect, depth)
	return nil
}

// composite blends layer over the buffer inside rect where the layer is not
// hidden by nearer depth.
func (r *Renderer) composite(layer *image.RGBA, rect image.Rectangle, depth float64) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			si := layer.PixOffset(x, y)
			sa := layer.Pix[si+3]
			if sa == 0 {
				continue
			}
			if r.depth[y*r.width+x] < depth {
				continue
			}
			di := r.buf.PixOffset(x, y)
			blendOver(r.buf.Pix[di:di+4:di+4], layer.Pix[si:si+4:si+4])
		}
	}
}

// blendOver composites premultiplied src over dst.
func blendOver(dst, src []uint8) {
	inv := 255 - uint32(src[3])
	for i := 0; i < 4; i++ {
		dst[i] = uint8(min(uint32(src[i])+(uint32(dst[i])*inv+127)/255, 255))
	}
}

func clearRect(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		clear(img.Pix[i : i+b.Dx()*4])
	}
}

func (r *Renderer) bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

func screenRect(pts []geom.Vec3) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	if !finite(minX) || !finite(minY) || !finite(maxX) || !finite(maxY) {
		return image.Rectangle{}
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}
