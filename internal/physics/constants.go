// Package physics implements the binary-collision kernels of the simulation:
// the ZBL screened-Coulomb scattering (apsis search plus Biersack's magic
// formula), Lindhard electronic stopping, and the free-flight collision
// sampler.
//
// All derived quantities live in Constants, built once per run and shared
// read-only across every worker. Nothing in this package mutates a Constants
// after construction; that freeze is what makes lock-free parallel
// trajectories safe.
package physics

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid marks simulation parameters that cannot describe a physical
// projectile/target combination. Reported synchronously at setup.
var ErrInvalid = errors.New("invalid physics parameters")

const (
	// e2 is the Coulomb constant e^2/(4 pi eps0) in eV*Angstrom.
	e2 = 14.399645

	// bohrRadius in Angstrom.
	bohrRadius = 0.529177

	// firsovFactor scales the Bohr radius into the ZBL universal
	// screening length.
	firsovFactor = 0.88534
)

// Projectile describes the incident ion species.
type Projectile struct {
	Z int     // atomic number
	M float64 // mass, amu
}

// Material describes the (amorphous, single-species) target.
type Material struct {
	Z       int     // atomic number
	M       float64 // mass, amu
	Density float64 // atomic density, atoms/Angstrom^3
}

// Constants holds every derived quantity the kernels need. Energies are in
// eV, lengths in Angstrom.
type Constants struct {
	Z1, Z2 int
	M1, M2 float64

	Density      float64
	CorrLindhard float64

	// ScreeningLength is the ZBL universal screening length (reduced-length
	// normalization of the scattering integral).
	ScreeningLength float64

	// EnergyNorm converts lab energy to ZBL reduced energy: eps = E/EnergyNorm.
	EnergyNorm float64

	// DirFac weights the momentum transferred to the recoil in the
	// lab-frame direction update: 2*m2/(m1+m2).
	DirFac float64

	// DenFac is the maximum fractional energy transfer 4*m1*m2/(m1+m2)^2.
	DenFac float64

	// FacLindhard is the electronic stopping prefactor; energy loss per
	// path length is FacLindhard * Density * sqrt(E).
	FacLindhard float64

	// MeanFreePath is the constant flight length between collisions,
	// Density^(-1/3).
	MeanFreePath float64

	// PMax bounds the sampled impact parameter so that one target atom
	// occupies the swept disk per free path: MeanFreePath/sqrt(pi).
	PMax float64
}

// NewConstants validates the species parameters and derives the shared
// kernel constants. corrLindhard is the empirical stopping correction
// (typically 1.0-2.0).
func NewConstants(proj Projectile, tgt Material, corrLindhard float64) (*Constants, error) {
	switch {
	case proj.Z < 1:
		return nil, fmt.Errorf("%w: projectile Z=%d", ErrInvalid, proj.Z)
	case tgt.Z < 1:
		return nil, fmt.Errorf("%w: target Z=%d", ErrInvalid, tgt.Z)
	case proj.M <= 0:
		return nil, fmt.Errorf("%w: projectile mass %g amu", ErrInvalid, proj.M)
	case tgt.M <= 0:
		return nil, fmt.Errorf("%w: target mass %g amu", ErrInvalid, tgt.M)
	case tgt.Density <= 0:
		return nil, fmt.Errorf("%w: target density %g atoms/A^3", ErrInvalid, tgt.Density)
	case corrLindhard <= 0:
		return nil, fmt.Errorf("%w: Lindhard correction %g", ErrInvalid, corrLindhard)
	}

	z1 := float64(proj.Z)
	z2 := float64(tgt.Z)
	m1 := proj.M
	m2 := tgt.M

	a := firsovFactor * bohrRadius / (math.Pow(z1, 0.23) + math.Pow(z2, 0.23))
	mfp := math.Pow(tgt.Density, -1.0/3.0)

	c := &Constants{
		Z1: proj.Z, Z2: tgt.Z,
		M1: m1, M2: m2,
		Density:         tgt.Density,
		CorrLindhard:    corrLindhard,
		ScreeningLength: a,
		EnergyNorm:      z1 * z2 * e2 * (m1 + m2) / (m2 * a),
		DirFac:          2 * m2 / (m1 + m2),
		DenFac:          4 * m1 * m2 / ((m1 + m2) * (m1 + m2)),
		FacLindhard: corrLindhard * 1.212 * math.Pow(z1, 7.0/6.0) * z2 /
			(math.Pow(math.Pow(z1, 2.0/3.0)+math.Pow(z2, 2.0/3.0), 1.5) * math.Sqrt(m1)),
		MeanFreePath: mfp,
		PMax:         mfp / math.Sqrt(math.Pi),
	}
	return c, nil
}
