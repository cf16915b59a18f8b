// Package trajectory drives a single ion through the target: free flight,
// electronic stopping, containment check, binary collision, repeated until
// the ion either drops below the tracking cutoff or leaves the target.
package trajectory

import (
	"math/rand"

	"github.com/gotrim/gotrim/internal/damage"
	"github.com/gotrim/gotrim/internal/geometry"
	"github.com/gotrim/gotrim/internal/physics"
	"github.com/gotrim/gotrim/internal/vec"
)

// DefaultEMin is the tracking cutoff: an ion at or below this energy is
// considered stopped, in eV.
const DefaultEMin = 5.0

// Engine traces ions through one projectile/target configuration. The
// fields are read-only during tracing, so a single Engine is shared by all
// workers.
type Engine struct {
	Consts *physics.Constants
	Target geometry.Target

	// EMin is the tracking cutoff; zero or negative selects DefaultEMin.
	EMin float64

	// ApsisIterations overrides the Newton-refinement count of the
	// scattering kernel; zero or negative selects the kernel default.
	ApsisIterations int
}

// New returns an Engine with default cutoff and apsis refinement.
func New(c *physics.Constants, tgt geometry.Target) *Engine {
	return &Engine{
		Consts:          c,
		Target:          tgt,
		EMin:            DefaultEMin,
		ApsisIterations: physics.DefaultApsisIterations,
	}
}

// Result is the outcome of one traced ion.
type Result struct {
	Ion int // ion index assigned by the driver

	Pos    vec.Vec3
	Dir    vec.Vec3
	Energy float64

	// StoppedInside is true when the ion came to rest in the target,
	// false when it crossed the boundary mid-flight.
	StoppedInside bool

	// Path holds every position visited, starting at the entry point.
	// Nil unless recording was requested.
	Path []vec.Vec3

	Collisions int
	Fallbacks  int // degenerate-direction fallbacks in the scattering kernel
}

// Trace follows one ion from pos along the unit direction dir with initial
// energy e (eV). rng is the per-ion random stream; rec may be nil when
// damage accounting is off. Trace is deterministic given rng's state.
func (en *Engine) Trace(pos, dir vec.Vec3, e float64, rng *rand.Rand, recordPath bool, rec *damage.Recorder) Result {
	emin := en.EMin
	if emin <= 0 {
		emin = DefaultEMin
	}
	iters := en.ApsisIterations
	if iters <= 0 {
		iters = physics.DefaultApsisIterations
	}

	res := Result{StoppedInside: true}
	if recordPath {
		res.Path = append(res.Path, pos)
	}

	for e > emin {
		col := en.Consts.SampleCollision(pos, dir, rng)
		e -= en.Consts.EnergyLoss(e, col.FreePath)
		pos = col.Position
		if recordPath {
			res.Path = append(res.Path, pos)
		}
		if !en.Target.Contains(pos) {
			res.StoppedInside = false
			break
		}

		var recoilDir vec.Vec3
		var recoilE float64
		var degenerate bool
		before := e
		dir, e, recoilDir, recoilE, degenerate = en.Consts.Scatter(e, dir, col.Impact, col.RecoilDir, iters)
		res.Collisions++
		if degenerate {
			res.Fallbacks++
		}
		rec.RecordCollision(col.RecoilSite, before, recoilE, recoilDir)
	}

	res.Pos = pos
	res.Dir = dir
	res.Energy = e
	return res
}
