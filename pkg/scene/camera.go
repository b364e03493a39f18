package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/overlay3d/pkg/geom"
	"github.com/matzehuels/overlay3d/pkg/raster"
)

// Camera defaults.
const (
	DefaultFOV     = 35.0
	DefaultNear    = 0.1
	DefaultFar     = 100.0
	DefaultCameraZ = 10.0

	// minViewDistance keeps ViewSizeAtZ finite at or beyond the camera plane.
	minViewDistance = 0.001
)

// Camera is a perspective camera looking down -Z.
type Camera struct {
	FOV      float64 // vertical, degrees
	Aspect   float64
	Near     float64
	Far      float64
	Position geom.Vec3
}

// NewCamera returns the default camera for aspect.
func NewCamera(aspect float64) Camera {
	if aspect <= 0 || !finite(aspect) {
		aspect = 1
	}
	return Camera{
		FOV:      DefaultFOV,
		Aspect:   aspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
		Position: geom.Vec3{0, 0, DefaultCameraZ},
	}
}

// View returns the world-to-camera matrix.
func (c Camera) View() geom.Mat4 {
	target := c.Position.Sub(geom.UnitZ)
	return mgl64.LookAtV(c.Position, target, geom.UnitY)
}

// Projection returns the perspective matrix.
func (c Camera) Projection() geom.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Raster returns the matrices used by the rasterizer.
func (c Camera) Raster() raster.Camera {
	return raster.Camera{View: c.View(), Projection: c.Projection(), Near: c.Near}
}

// ViewSizeAtZ returns the world-space width and height visible on the plane z.
// The distance to the plane is clamped to a small positive value.
func (c Camera) ViewSizeAtZ(z float64) (w, h float64) {
	dist := math.Max(minViewDistance, c.Position.Z()-z)
	h = 2 * math.Tan(mgl64.DegToRad(c.FOV)/2) * dist
	return h * c.Aspect, h
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
