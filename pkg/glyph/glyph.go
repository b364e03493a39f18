package glyph

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/matzehuels/overlay3d/pkg/geom"
	"github.com/matzehuels/overlay3d/pkg/scene"
)

// Glyph is a read-only snapshot of one displayed glyph.
type Glyph struct {
	Char        string
	Position    geom.Vec3
	Orientation geom.Quat
	Visible     bool
	Color       color.NRGBA
	Size        float64
	Anchor      scene.Anchor
	Outline     *scene.Outline
}

// Snapshot captures the state of a pooled text node.
func Snapshot(n *scene.Node) Glyph {
	g := Glyph{
		Position:    n.Position,
		Orientation: n.Rotation,
		Visible:     n.Visible,
	}
	if t := n.Text; t != nil {
		g.Char = t.Content
		g.Color = t.Color
		g.Size = t.Size
		g.Anchor = t.AnchorX
		g.Outline = t.Outline
	}
	return g
}

// Pool is an arena of text nodes attached to a parent group.
type Pool struct {
	parent *scene.Node
	prefix string
	nodes  []*scene.Node
}

// NewPool returns an empty pool whose nodes are attached to parent.
func NewPool(parent *scene.Node, prefix string) *Pool {
	return &Pool{parent: parent, prefix: prefix}
}

// Resize grows or shrinks the pool to exactly n nodes. New nodes hold a single
// space; removed nodes are disposed.
func (p *Pool) Resize(n int) {
	if n < 0 {
		n = 0
	}
	for len(p.nodes) < n {
		node := scene.NewText(p.prefix+strconv.Itoa(len(p.nodes)), scene.Text{
			Content: DefaultText,
			Size:    DefaultFontSize,
			Color:   White,
		})
		p.parent.Add(node)
		p.nodes = append(p.nodes, node)
	}
	for len(p.nodes) > n {
		last := p.nodes[len(p.nodes)-1]
		last.Dispose()
		p.nodes = p.nodes[:len(p.nodes)-1]
	}
}

// Len returns the number of pooled nodes.
func (p *Pool) Len() int { return len(p.nodes) }

// At returns the i-th node.
func (p *Pool) At(i int) *scene.Node {
	if i < 0 || i >= len(p.nodes) {
		panic(fmt.Sprintf("glyph: pool index %d out of range [0,%d)", i, len(p.nodes)))
	}
	return p.nodes[i]
}

// Nodes returns the pooled nodes in order. The slice must not be modified.
func (p *Pool) Nodes() []*scene.Node { return p.nodes }

// Snapshots returns a Glyph for every pooled node.
func (p *Pool) Snapshots() []Glyph {
	out := make([]Glyph, len(p.nodes))
	for i, n := range p.nodes {
		out[i] = Snapshot(n)
	}
	return out
}
