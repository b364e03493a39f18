package geom

import "math"

// Ray is a half line starting at Origin.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float64) Vec3 { return r.Origin.Add(r.Dir.Mul(t)) }

// UnitCylinder is an open-ended cylinder of radius 1 and height 1 centered on the
// origin with its axis along Y. Occluders scale it through their world matrix.
type UnitCylinder struct{}

// IntersectFront returns the smallest t > minT where r enters the side surface
// from outside, that is where the outward normal faces against the ray. Only the
// front faces of the wall are considered.
func (UnitCylinder) IntersectFront(r Ray, minT float64) (float64, bool) {
	ox, oz := r.Origin[0], r.Origin[2]
	dx, dz := r.Dir[0], r.Dir[2]

	a := dx*dx + dz*dz
	if a < Epsilon {
		return 0, false
	}
	b := 2 * (ox*dx + oz*dz)
	c := ox*ox + oz*oz - 1
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if t <= minT {
			continue
		}
		p := r.At(t)
		if p[1] < -0.5 || p[1] > 0.5 {
			continue
		}
		// Outward normal is (x, 0, z); entering hits face the ray.
		if p[0]*dx+p[2]*dz < 0 {
			return t, true
		}
	}
	return 0, false
}

// Corners returns the eight corners of the cylinder's bounding box.
func (UnitCylinder) Corners() [8]Vec3 {
	var out [8]Vec3
	i := 0
	for _, x := range [2]float64{-1, 1} {
		for _, y := range [2]float64{-0.5, 0.5} {
			for _, z := range [2]float64{-1, 1} {
				out[i] = Vec3{x, y, z}
				i++
			}
		}
	}
	return out
}
