package physics

import (
	"math"

	"github.com/gotrim/gotrim/internal/vec"
)

// DefaultApsisIterations is the number of Newton-Raphson refinements of the
// distance of closest approach. One iteration is the calibrated default;
// the magic-formula fit constants were tuned against cheap apsis estimates,
// so raising it buys little (see the sensitivity test).
const DefaultApsisIterations = 1

// Fitted constants of Biersack's magic formula for the scattering angle.
const (
	magicC1 = 0.99229
	magicC2 = 0.011615
	magicC3 = 0.0071222
	magicC4 = 14.813
	magicC5 = 9.3066
)

// Initial-guess regimes for the apsis search, thresholds on the squared
// reduced impact parameter.
const (
	apsisNearB2 = 1e-8 // below: head-on collision
	apsisFarB2  = 16.0 // above: grazing collision, apsis barely exceeds b
)

// apsis returns the reduced distance of closest approach for reduced energy
// eps and reduced impact parameter b, after iters bounded Newton-Raphson
// refinements of a case-selected initial guess.
//
// The root never lies below b (repulsive potential) nor above the
// unscreened-Coulomb closest approach; each Newton step is kept inside that
// shrinking bracket and replaced by its midpoint when it escapes.
func apsis(eps, b float64, iters int) float64 {
	b2 := b * b

	// Unscreened Coulomb closest approach, an upper bound for the root.
	inv2e := 1 / (2 * eps)
	coulomb := inv2e + math.Sqrt(inv2e*inv2e+b2)

	lo, hi := b, coulomb

	var r float64
	switch {
	case b2 > apsisFarB2:
		// Grazing: expanding the orbit equation around R=b gives a direct
		// square-root formula, already accurate to a few percent out here.
		phi, _ := screening(b)
		r = math.Sqrt(b2 + b*phi/eps)
	case b2 > apsisNearB2:
		// Intermediate: same expansion, capped by the Coulomb bound which
		// is tighter when the potential is barely screened at distance b.
		phi, _ := screening(b)
		r = math.Min(coulomb, math.Sqrt(b2+b*phi/eps))
	default:
		// Head-on. At low reduced energy the Coulomb form badly
		// overshoots the screened root; take the closed-form low-energy
		// estimate when it is the smaller of the two.
		r = math.Min(coulomb, lowEnergyApsis(eps))
	}
	if r < lo || r > hi || math.IsNaN(r) {
		r = 0.5 * (lo + hi)
	}

	for i := 0; i < iters; i++ {
		phi, dphi := screening(r)
		f := 1 - phi/(r*eps) - b2/(r*r)
		// f is increasing in r; tighten the bracket with its sign.
		if f > 0 {
			hi = r
		} else {
			lo = r
		}
		df := (phi-r*dphi)/(r*r*eps) + 2*b2/(r*r*r)
		r -= f / df
		if r <= lo || r >= hi || math.IsNaN(r) {
			r = 0.5 * (lo + hi)
		}
	}
	return r
}

// lowEnergyApsis estimates the head-on closest approach from the
// longest-range term of the screening function: amp*exp(-decay*R)/R = eps.
// Two Newton steps on the logarithmic form give a closed-form estimate.
// Returns +Inf when the reduced energy is too high for the tail term to
// dominate (callers fall back to the Coulomb form via min).
func lowEnergyApsis(eps float64) float64 {
	amp, decay := zblAmp[3], zblDecay[3]
	l := math.Log(amp / eps)
	if l <= 0 {
		return math.Inf(1)
	}
	r := l / decay
	for i := 0; i < 2; i++ {
		g := decay*r + math.Log(r) - l
		r -= g / (decay + 1/r)
		if r <= 0 {
			return math.Inf(1)
		}
	}
	return r
}

// cosHalfTheta evaluates Biersack's magic formula: a closed-form
// approximation to cos(theta/2) of the center-of-mass scattering angle,
// given reduced energy eps, reduced impact parameter b, and the reduced
// apsis r0. The result is clamped into [0, 1] against apsis-estimate noise.
func cosHalfTheta(eps, b, r0 float64) float64 {
	phi, dphi := screening(r0)
	v := phi / r0              // reduced potential at the apsis
	dv := (dphi - v) / r0      // its radial derivative
	roc := -2 * (eps - v) / dv // radius of curvature of the orbit at the apsis

	sqe := math.Sqrt(eps)
	alpha := 1 + magicC1/sqe
	beta := (magicC2 + sqe) / (magicC3 + sqe)
	gamma := (magicC4 + eps) / (magicC5 + eps)

	a := 2 * alpha * eps * math.Pow(b, beta)
	g := gamma / (math.Sqrt(1+a*a) - a)
	delta := a * (r0 - b) / (1 + g)

	// A coarse apsis estimate well inside the true apsis makes roc negative
	// enough to flip the denominator; the physical limit there is a
	// hard, maximum-transfer collision.
	den := r0 + roc
	if den <= 0 {
		return 0
	}

	ct2 := (b + roc + delta) / den
	switch {
	case ct2 < 0:
		return 0
	case ct2 > 1:
		return 1
	}
	return ct2
}

// Scatter computes one elastic binary collision. Inputs are the
// pre-collision energy e (eV), the unit flight direction dir, the impact
// parameter p (Angstrom), and the unit vector dirToRecoil pointing from the
// flight path toward the struck atom (perpendicular to dir).
//
// It returns the post-collision projectile direction and energy together
// with the recoil direction and energy. Both direction vectors are unit
// norm. In the degenerate case where a resultant vector has zero norm, the
// pre-collision dir is reused for that output to keep the step defined;
// degenerate reports the occurrence so callers can count it.
func (c *Constants) Scatter(e float64, dir vec.Vec3, p float64, dirToRecoil vec.Vec3, apsisIters int) (
	newDir vec.Vec3, newE float64, recoilDir vec.Vec3, recoilE float64, degenerate bool) {

	eps := e / c.EnergyNorm
	b := p / c.ScreeningLength

	r0 := apsis(eps, b, apsisIters)
	ct2 := cosHalfTheta(eps, b, r0)
	st2 := math.Sqrt(1 - ct2*ct2)

	recoilE = c.DenFac * e * st2 * st2
	newE = e - recoilE

	// Lab-frame kinematics. The momentum transferred to the recoil points
	// at angle (pi-theta)/2 from the flight direction, toward the struck
	// atom; the projectile keeps the remainder. Both are normalized
	// independently below.
	rawRecoil := dir.Scale(st2).Add(dirToRecoil.Scale(ct2))
	rawNew := dir.Scale(1 - c.DirFac*st2*st2).Sub(dirToRecoil.Scale(c.DirFac * st2 * ct2))

	var ok bool
	if newDir, ok = rawNew.Normalized(); !ok {
		newDir = dir
		degenerate = true
	}
	if recoilDir, ok = rawRecoil.Normalized(); !ok {
		recoilDir = dir
		degenerate = true
	}
	return newDir, newE, recoilDir, recoilE, degenerate
}
