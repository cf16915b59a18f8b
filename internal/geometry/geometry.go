// Package geometry defines the target volumes an ion can travel through.
//
// A Target is a closed set of shape variants behind one containment
// predicate. The variant set is deliberately a tagged union with an
// exhaustive switch instead of an interface: Contains sits in the hot loop
// of every trajectory and the shapes never grow at runtime.
//
// All range checks are inclusive on both ends. Tests depend on this
// boundary convention bit-for-bit.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gotrim/gotrim/internal/vec"
)

// ErrInvalid marks a geometry that cannot describe a physical target,
// e.g. inverted bounds or a non-positive radius. It is reported at
// construction time, before any trajectory runs.
var ErrInvalid = errors.New("invalid geometry")

// Kind identifies the shape variant of a Target.
type Kind int

const (
	KindPlanar Kind = iota
	KindBox
	KindCylinder
	KindSphere
	KindMultiLayer
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPlanar:
		return "planar"
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	case KindSphere:
		return "sphere"
	case KindMultiLayer:
		return "multilayer"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Target is an immutable target volume. One instance is shared read-only
// across all concurrently running trajectories.
type Target struct {
	kind Kind

	// z extent, used by every variant except Sphere.
	zMin, zMax float64

	// lateral bounds for Box and MultiLayer (±Inf = unbounded).
	xMin, xMax, yMin, yMax float64

	// Cylinder axis / Sphere center.
	centerX, centerY float64
	center           vec.Vec3
	radiusSq         float64

	// MultiLayer boundaries, ascending, len >= 2.
	layers []float64
}

// Kind returns the shape variant.
func (t Target) Kind() Kind { return t.kind }

// Planar builds an infinite slab bounded only in z.
func Planar(zMin, zMax float64) (Target, error) {
	if zMax < zMin {
		return Target{}, fmt.Errorf("%w: planar z range [%g, %g]", ErrInvalid, zMin, zMax)
	}
	return Target{kind: KindPlanar, zMin: zMin, zMax: zMax}, nil
}

// Box builds an axis-aligned rectangular target.
func Box(xMin, xMax, yMin, yMax, zMin, zMax float64) (Target, error) {
	if xMax < xMin || yMax < yMin || zMax < zMin {
		return Target{}, fmt.Errorf("%w: box bounds x[%g,%g] y[%g,%g] z[%g,%g]",
			ErrInvalid, xMin, xMax, yMin, yMax, zMin, zMax)
	}
	return Target{
		kind: KindBox,
		xMin: xMin, xMax: xMax,
		yMin: yMin, yMax: yMax,
		zMin: zMin, zMax: zMax,
	}, nil
}

// Cylinder builds a z-axis-aligned cylinder.
func Cylinder(radius, zMin, zMax, centerX, centerY float64) (Target, error) {
	if radius <= 0 {
		return Target{}, fmt.Errorf("%w: cylinder radius %g", ErrInvalid, radius)
	}
	if zMax < zMin {
		return Target{}, fmt.Errorf("%w: cylinder z range [%g, %g]", ErrInvalid, zMin, zMax)
	}
	return Target{
		kind:     KindCylinder,
		zMin:     zMin,
		zMax:     zMax,
		centerX:  centerX,
		centerY:  centerY,
		radiusSq: radius * radius,
	}, nil
}

// Sphere builds a spherical target around center.
func Sphere(radius float64, center vec.Vec3) (Target, error) {
	if radius <= 0 {
		return Target{}, fmt.Errorf("%w: sphere radius %g", ErrInvalid, radius)
	}
	return Target{kind: KindSphere, center: center, radiusSq: radius * radius}, nil
}

// MultiLayer builds a stack of layers separated by the given z boundaries.
// n boundaries describe n-1 layers. Boundaries are sorted ascending.
// Lateral bounds of ±Inf leave the stack unbounded in x/y.
func MultiLayer(boundaries []float64, xMin, xMax, yMin, yMax float64) (Target, error) {
	if len(boundaries) < 2 {
		return Target{}, fmt.Errorf("%w: multilayer needs at least 2 boundaries, got %d",
			ErrInvalid, len(boundaries))
	}
	if xMax < xMin || yMax < yMin {
		return Target{}, fmt.Errorf("%w: multilayer lateral bounds x[%g,%g] y[%g,%g]",
			ErrInvalid, xMin, xMax, yMin, yMax)
	}
	layers := make([]float64, len(boundaries))
	copy(layers, boundaries)
	sort.Float64s(layers)
	return Target{
		kind: KindMultiLayer,
		zMin: layers[0],
		zMax: layers[len(layers)-1],
		xMin: xMin, xMax: xMax,
		yMin: yMin, yMax: yMax,
		layers: layers,
	}, nil
}

// UnboundedMultiLayer builds a MultiLayer with infinite lateral extent.
func UnboundedMultiLayer(boundaries []float64) (Target, error) {
	inf := math.Inf(1)
	return MultiLayer(boundaries, -inf, inf, -inf, inf)
}

// Contains reports whether pos lies inside the target volume. It is a total
// function over all real inputs and has no side effects.
func (t Target) Contains(pos vec.Vec3) bool {
	switch t.kind {
	case KindPlanar:
		return t.zMin <= pos[2] && pos[2] <= t.zMax
	case KindBox:
		return t.xMin <= pos[0] && pos[0] <= t.xMax &&
			t.yMin <= pos[1] && pos[1] <= t.yMax &&
			t.zMin <= pos[2] && pos[2] <= t.zMax
	case KindCylinder:
		if pos[2] < t.zMin || pos[2] > t.zMax {
			return false
		}
		dx := pos[0] - t.centerX
		dy := pos[1] - t.centerY
		return dx*dx+dy*dy <= t.radiusSq
	case KindSphere:
		return pos.Sub(t.center).Norm2() <= t.radiusSq
	case KindMultiLayer:
		if pos[0] < t.xMin || pos[0] > t.xMax ||
			pos[1] < t.yMin || pos[1] > t.yMax {
			return false
		}
		return t.zMin <= pos[2] && pos[2] <= t.zMax
	}
	return false
}

// LayerIndex returns the index of the layer interval [layers[i], layers[i+1])
// containing z. Intervals are half-open except the last layer, which is
// closed at its upper boundary. Returns -1 outside the stack and for
// non-multilayer targets.
func (t Target) LayerIndex(z float64) int {
	if t.kind != KindMultiLayer {
		return -1
	}
	if z < t.zMin || z > t.zMax {
		return -1
	}
	for i := 0; i < len(t.layers)-1; i++ {
		if t.layers[i] <= z && z < t.layers[i+1] {
			return i
		}
	}
	// z sits exactly on the top boundary.
	if z == t.zMax {
		return len(t.layers) - 2
	}
	return -1
}

// Layers returns the number of layers (0 for non-multilayer targets).
func (t Target) Layers() int {
	if t.kind != KindMultiLayer {
		return 0
	}
	return len(t.layers) - 1
}

// ZRange returns the z extent of the target. For spheres it derives the
// extent from center and radius.
func (t Target) ZRange() (zMin, zMax float64) {
	if t.kind == KindSphere {
		r := math.Sqrt(t.radiusSq)
		return t.center[2] - r, t.center[2] + r
	}
	return t.zMin, t.zMax
}
