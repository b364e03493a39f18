package scene

import (
	"image/color"

	"github.com/matzehuels/overlay3d/pkg/geom"
	"github.com/matzehuels/overlay3d/pkg/raster"
)

// Kind identifies what a [Node] draws.
type Kind int

const (
	KindGroup Kind = iota
	KindText
	KindVolume
	KindLight
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindVolume:
		return "volume"
	case KindLight:
		return "light"
	default:
		return "group"
	}
}

// Drawable payloads are defined by the rasterizer.
type (
	Anchor  = raster.Anchor
	Outline = raster.Outline
	Text    = raster.Text
	Volume  = raster.Volume
)

const (
	AnchorCenter = raster.AnchorCenter
	AnchorLeft   = raster.AnchorLeft
)

// LightKind distinguishes ambient from directional lights.
type LightKind int

const (
	LightAmbient LightKind = iota
	LightDirectional
)

// Light is carried in the graph for completeness; text materials are unlit.
type Light struct {
	Kind      LightKind
	Color     color.NRGBA
	Intensity float64
}

// Node is an element of the scene graph. Transforms are local to the parent.
type Node struct {
	Name        string
	Kind        Kind
	Position    geom.Vec3
	Rotation    geom.Quat
	Scale       geom.Vec3
	Visible     bool
	RenderOrder int

	Text   *Text
	Volume *Volume
	Light  *Light

	parent   *Node
	children []*Node
	world    geom.Mat4
	disposed bool
}

// NewGroup returns an empty visible group.
func NewGroup(name string) *Node {
	return &Node{
		Name:     name,
		Kind:     KindGroup,
		Rotation: geom.Identity(),
		Scale:    geom.Vec3{1, 1, 1},
		Visible:  true,
		world:    identity(),
	}
}

// NewText returns a text node with the given content.
func NewText(name string, t Text) *Node {
	n := NewGroup(name)
	n.Kind = KindText
	n.Text = &t
	return n
}

// NewVolume returns a volume node.
func NewVolume(name string, v Volume) *Node {
	n := NewGroup(name)
	n.Kind = KindVolume
	n.Volume = &v
	return n
}

// NewLight returns a light node.
func NewLight(name string, l Light) *Node {
	n := NewGroup(name)
	n.Kind = KindLight
	n.Light = &l
	return n
}

// Add attaches children, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		if c.parent != nil {
			c.parent.Remove(c)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Remove detaches child. It is a no-op when child is not a direct child.
func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Parent returns the parent or nil.
func (n *Node) Parent() *Node { return n.parent }

// Dispose detaches the node and releases its payload.
func (n *Node) Dispose() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
	n.Text = nil
	n.Volume = nil
	n.disposed = true
}

// Disposed reports whether Dispose was called.
func (n *Node) Disposed() bool { return n.disposed }

// SetEuler sets the rotation from XYZ Euler angles in radians.
func (n *Node) SetEuler(x, y, z float64) {
	n.Rotation = geom.EulerXYZ(x, y, z)
}

// LocalMatrix composes the node's position, rotation and scale.
func (n *Node) LocalMatrix() geom.Mat4 {
	return geom.Transform{Position: n.Position, Rotation: n.Rotation, Scale: n.Scale}.Matrix()
}

// UpdateWorld recomputes the world matrices of n and its descendants from the
// parent chain.
func (n *Node) UpdateWorld() {
	parent := identity()
	if n.parent != nil {
		parent = n.parent.chainMatrix()
	}
	n.updateWorld(parent)
}

func (n *Node) updateWorld(parent geom.Mat4) {
	n.world = parent.Mul4(n.LocalMatrix())
	for _, c := range n.children {
		c.updateWorld(n.world)
	}
}

func (n *Node) chainMatrix() geom.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// WorldMatrix returns the matrix computed by the last UpdateWorld.
func (n *Node) WorldMatrix() geom.Mat4 { return n.world }

// WorldPosition returns the node's current world position, computed from the
// parent chain without relying on a previous UpdateWorld.
func (n *Node) WorldPosition() geom.Vec3 {
	return geom.MatrixPosition(n.chainMatrix())
}

// EffectivelyVisible reports whether n and all its ancestors are visible.
func (n *Node) EffectivelyVisible() bool {
	for p := n; p != nil; p = p.parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// Traverse walks n depth-first. Returning false from fn skips the subtree.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

func identity() geom.Mat4 {
	return geom.Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}
