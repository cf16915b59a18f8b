package physics

import (
	"math"
	"math/rand"

	"github.com/gotrim/gotrim/internal/vec"
)

// minSinAlpha is the threshold below which the flight direction is treated
// as lying on the frame axis and the azimuthal plane degenerates to a fixed
// pair of coordinate axes.
const minSinAlpha = 1e-12

// Collision describes one sampled binary encounter: where the free flight
// ends, how far off-axis the target atom sits, and where it sits.
type Collision struct {
	FreePath   float64  // path length flown before the encounter, in angstrom
	Impact     float64  // impact parameter, in angstrom
	Position   vec.Vec3 // end of the free flight
	RecoilDir  vec.Vec3 // unit vector from Position toward the target atom
	RecoilSite vec.Vec3 // lattice site of the struck atom
}

// SampleCollision draws the next encounter for a projectile at pos moving
// along the unit vector dir. The free path is the constant mean free path of
// the material; the impact parameter is drawn uniform in area up to PMax and
// placed at a uniform azimuth around the flight axis. rng must not be shared
// across goroutines.
func (c *Constants) SampleCollision(pos, dir vec.Vec3, rng *rand.Rand) Collision {
	freePath := c.MeanFreePath
	impact := c.PMax * math.Sqrt(rng.Float64())
	phi := 2 * math.Pi * rng.Float64()

	position := pos.MulAdd(freePath, dir)
	recoilDir := perpendicular(dir, phi)
	return Collision{
		FreePath:   freePath,
		Impact:     impact,
		Position:   position,
		RecoilDir:  recoilDir,
		RecoilSite: position.MulAdd(impact, recoilDir),
	}
}

// perpendicular returns a unit vector orthogonal to dir at azimuth phi. The
// frame axis is the coordinate along which dir has the smallest component,
// which keeps the construction well conditioned for any flight direction.
func perpendicular(dir vec.Vec3, phi float64) vec.Vec3 {
	k := 0
	if math.Abs(dir[1]) < math.Abs(dir[k]) {
		k = 1
	}
	if math.Abs(dir[2]) < math.Abs(dir[k]) {
		k = 2
	}
	i, j := (k+1)%3, (k+2)%3

	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
	cosA := dir[k]
	sinA := math.Sqrt(dir[i]*dir[i] + dir[j]*dir[j])

	var out vec.Vec3
	if sinA < minSinAlpha {
		// dir has no component off axis k, which for the argmin choice of
		// k means a zero vector; any direction in the ij plane will do.
		out[i] = cosPhi
		out[j] = sinPhi
		return out
	}

	cosF := dir[i] / sinA
	sinF := dir[j] / sinA
	out[i] = cosPhi*cosA*cosF - sinPhi*sinF
	out[j] = cosPhi*cosA*sinF + sinPhi*cosF
	out[k] = -cosPhi * sinA

	unit, ok := out.Normalized()
	if !ok {
		out[i] = cosPhi
		out[j] = sinPhi
		return out
	}
	return unit
}
