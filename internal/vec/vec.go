// Package vec provides the 3D vector value type used for positions and
// directions throughout the simulation. All coordinates are in Angstrom.
package vec

import "math"

// Vec3 is a 3D vector. Backing the type with an array keeps component
// access by index cheap in the collision-frame construction.
type Vec3 [3]float64

// New creates a Vec3 from components.
func New(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns c * v.
func (v Vec3) Scale(c float64) Vec3 {
	return Vec3{c * v[0], c * v[1], c * v[2]}
}

// MulAdd returns v + c*w, the free-flight advance operation.
func (v Vec3) MulAdd(c float64, w Vec3) Vec3 {
	return Vec3{v[0] + c*w[0], v[1] + c*w[1], v[2] + c*w[2]}
}

// Dot returns the scalar product v . w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Norm2 returns the squared L2 norm.
func (v Vec3) Norm2() float64 {
	return v.Dot(v)
}

// Norm returns the L2 norm.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Norm2())
}

// Normalized returns v scaled to unit length. ok is false when v has zero
// norm, in which case the zero vector is returned and the caller must apply
// its degenerate-case policy.
func (v Vec3) Normalized() (unit Vec3, ok bool) {
	n := v.Norm()
	if n == 0 {
		return Vec3{}, false
	}
	return v.Scale(1 / n), true
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}
