// Package geom provides the 3D math used by the overlay scene.
//
// Vectors, quaternions and matrices are the [mgl64] types; this package adds the
// conventions the scene relies on:
//
//   - [LookAt] builds an absolute rotation basis from a position, a target and an
//     up vector. Orientation is always derived from position, never accumulated.
//   - [EulerXYZ] composes group tilts in X-then-Y-then-Z order.
//   - [Transform] composes position, rotation and scale into a local matrix.
//   - [Cylinder] answers ray queries for depth-only occluders.
//
// [mgl64]: https://pkg.go.dev/github.com/go-gl/mathgl/mgl64
package geom
