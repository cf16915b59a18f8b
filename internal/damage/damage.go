// Package damage accumulates lattice-damage bookkeeping from the recoil
// energies computed during transport. Recoils are counted, never propagated:
// cascade transport stays out of the core loop.
package damage

import (
	"math"

	"github.com/gotrim/gotrim/internal/vec"
)

// Defaults for the recording thresholds, in eV.
const (
	DefaultDisplacementEnergy = 25.0
	DefaultMinRecoilEnergy    = 10.0
)

// DisplacementEnergies lists threshold energies Ed to displace a lattice
// atom for common target materials, in eV.
var DisplacementEnergies = map[string]float64{
	"Si":   15.0,
	"GaAs": 10.0,
	"SiO2": 20.0,
	"W":    90.0,
	"Cu":   30.0,
	"Fe":   40.0,
	"Al":   25.0,
	"Ni":   40.0,
	"Ti":   30.0,
	"C":    28.0, // diamond
}

// SurfaceBindingEnergies lists surface binding energies used by the
// sputtering estimate, in eV.
var SurfaceBindingEnergies = map[string]float64{
	"Si": 4.7,
	"W":  8.8,
	"Cu": 3.5,
	"Fe": 4.3,
	"Al": 3.4,
	"Ti": 4.9,
	"C":  7.4,
}

// Event is one recorded recoil with enough energy to matter beyond the
// vacancy count.
type Event struct {
	Pos           vec.Vec3
	Energy        float64 // kinetic energy handed to the struck atom, eV
	Dir           vec.Vec3
	PrimaryEnergy float64 // projectile energy before the collision, eV
}

// Recorder collects damage events for a single ion. It is not safe for
// concurrent use: the driver gives each worker its own Recorder and merges
// them afterwards.
type Recorder struct {
	// DisplacementEnergy is the threshold Ed above which a recoil leaves
	// a vacancy behind.
	DisplacementEnergy float64

	// MinRecoilEnergy is the threshold above which the full recoil event
	// is retained, not just counted.
	MinRecoilEnergy float64

	vacancies []vec.Vec3
	events    []Event
}

// NewRecorder returns a Recorder with the given displacement threshold;
// ed <= 0 selects DefaultDisplacementEnergy.
func NewRecorder(ed float64) *Recorder {
	if ed <= 0 {
		ed = DefaultDisplacementEnergy
	}
	return &Recorder{
		DisplacementEnergy: ed,
		MinRecoilEnergy:    DefaultMinRecoilEnergy,
	}
}

// RecordCollision accounts for one binary collision at pos. It returns true
// when the recoil displaces the struck atom (recoilE above the threshold).
func (r *Recorder) RecordCollision(pos vec.Vec3, primaryE, recoilE float64, recoilDir vec.Vec3) bool {
	if r == nil || recoilE <= r.DisplacementEnergy {
		return false
	}
	r.vacancies = append(r.vacancies, pos)
	if recoilE > r.MinRecoilEnergy {
		r.events = append(r.events, Event{
			Pos:           pos,
			Energy:        recoilE,
			Dir:           recoilDir,
			PrimaryEnergy: primaryE,
		})
	}
	return true
}

// Merge folds other into r. Used by the driver to combine per-worker
// recorders; other is left unchanged.
func (r *Recorder) Merge(other *Recorder) {
	if other == nil {
		return
	}
	r.vacancies = append(r.vacancies, other.vacancies...)
	r.events = append(r.events, other.events...)
}

// Profile returns the accumulated damage.
func (r *Recorder) Profile() Profile {
	if r == nil {
		return Profile{}
	}
	return Profile{Vacancies: r.vacancies, Events: r.events}
}

// Profile is the damage outcome of a run: one vacancy per displacing
// collision, plus the retained high-energy recoil events.
type Profile struct {
	Vacancies []vec.Vec3
	Events    []Event
}

// TotalVacancies returns the Frenkel-pair count produced by the run.
func (p Profile) TotalVacancies() int { return len(p.Vacancies) }

// DPA bins the vacancies by depth and returns bin centers together with
// displacements-per-atom values, assuming unit lateral cross-section.
// density is the target atomic density in atoms/Angstrom^3.
func (p Profile) DPA(density, zMin, zMax float64, bins int) (centers, dpa []float64) {
	if bins <= 0 || zMax <= zMin || density <= 0 {
		return nil, nil
	}
	centers = make([]float64, bins)
	dpa = make([]float64, bins)
	width := (zMax - zMin) / float64(bins)
	for i := range centers {
		centers[i] = zMin + (float64(i)+0.5)*width
	}

	atomsPerBin := density * width // unit-area slab of one bin depth
	for _, v := range p.Vacancies {
		i := int((v.Z() - zMin) / width)
		if i < 0 || i >= bins {
			continue
		}
		dpa[i] += 1 / atomsPerBin
	}
	return centers, dpa
}

// SputteringYield estimates sputtered atoms per ion with a simplified
// Sigmund formula. ionEnergy and surfaceBinding in eV, masses in amu.
func SputteringYield(ionEnergy, m1, m2, surfaceBinding float64) float64 {
	if ionEnergy < surfaceBinding || surfaceBinding <= 0 {
		return 0
	}
	alpha := 0.3 * math.Pow(m2/m1, 0.67)
	return alpha * m1 / (m1 + m2) * ionEnergy / surfaceBinding
}
