package geom

import (
	"math"
	"testing"
)

func TestLookAtBasis(t *testing.T) {
	tests := []struct {
		name string
		eye  Vec3
	}{
		{"on +x", Vec3{4, 0, 0}},
		{"on +z", Vec3{0, 0, 4}},
		{"on -x", Vec3{-4, 0, 0}},
		{"diagonal", Vec3{3, 0, -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := LookAt(tt.eye, Origin, UnitY)
			z := Vec3{m[8], m[9], m[10]}
			want := tt.eye.Normalize()
			if !ApproxVec(z, want, 1e-9) {
				t.Errorf("z axis = %v, want %v", z, want)
			}
			x := Vec3{m[0], m[1], m[2]}
			y := Vec3{m[4], m[5], m[6]}
			if math.Abs(x.Dot(y)) > 1e-9 || math.Abs(x.Dot(z)) > 1e-9 {
				t.Errorf("basis not orthogonal: x=%v y=%v z=%v", x, y, z)
			}
			if math.Abs(x.Len()-1) > 1e-9 {
				t.Errorf("x not unit: %v", x.Len())
			}
		})
	}
}

func TestLookAtDegenerate(t *testing.T) {
	m := LookAt(Origin, Origin, UnitY)
	if !ApproxVec(Vec3{m[8], m[9], m[10]}, UnitZ, 1e-9) {
		t.Errorf("coincident eye/target should face +Z, got %v", Vec3{m[8], m[9], m[10]})
	}

	m = LookAt(Vec3{0, 5, 0}, Origin, UnitY)
	for _, v := range m {
		if math.IsNaN(v) {
			t.Fatalf("parallel up produced NaN: %v", m)
		}
	}
}

func TestLookAtQuatMatchesMatrix(t *testing.T) {
	eye := Vec3{2, 0, 3}
	q := LookAtQuat(eye, Origin, UnitY)
	got := q.Rotate(UnitZ)
	if !ApproxVec(got, eye.Normalize(), 1e-9) {
		t.Errorf("rotated +Z = %v, want %v", got, eye.Normalize())
	}
}

func TestEulerXYZ(t *testing.T) {
	q := EulerXYZ(0, math.Pi/2, 0)
	if got := q.Rotate(UnitX); !ApproxVec(got, Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("Y quarter turn of +X = %v", got)
	}

	// X is applied outermost: a Y turn then an X turn.
	q = EulerXYZ(math.Pi/2, math.Pi/2, 0)
	if got := q.Rotate(UnitX); !ApproxVec(got, Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("XY rotation of +X = %v, want +Y", got)
	}
}

func TestTransformMatrix(t *testing.T) {
	tr := NewTransform()
	tr.Position = Vec3{1, 2, 3}
	tr.Rotation = AxisAngle(UnitY, math.Pi)
	tr.Scale = Vec3{2, 2, 2}

	got := TransformPoint(tr.Matrix(), UnitX)
	if !ApproxVec(got, Vec3{-1, 2, 3}, 1e-9) {
		t.Errorf("TransformPoint = %v", got)
	}
	if got := MatrixPosition(tr.Matrix()); !ApproxVec(got, tr.Position, 1e-12) {
		t.Errorf("MatrixPosition = %v", got)
	}
}

func TestUnitCylinderIntersectFront(t *testing.T) {
	var c UnitCylinder

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float64
	}{
		{"outside hits near wall", Ray{Vec3{0, 0, 10}, Vec3{0, 0, -1}}, true, 9},
		{"inside sees no front face", Ray{Vec3{0, 0, 0}, Vec3{0, 0, -1}}, false, 0},
		{"above the wall", Ray{Vec3{0, 2, 10}, Vec3{0, 0, -1}}, false, 0},
		{"miss to the side", Ray{Vec3{3, 0, 10}, Vec3{0, 0, -1}}, false, 0},
		{"parallel to axis", Ray{Vec3{0, 10, 0}, Vec3{0, -1, 0}}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.IntersectFront(tt.ray, 0)
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
			if ok && math.Abs(got-tt.wantT) > 1e-9 {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}
}
