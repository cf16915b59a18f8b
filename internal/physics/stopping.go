package physics

import "math"

// EnergyLoss returns the continuous electronic energy loss (Lindhard model)
// over a free flight of pathLength at energy e. The loss is clamped to e:
// on the final step of a trajectory, stopping would otherwise drive the
// energy negative.
func (c *Constants) EnergyLoss(e, pathLength float64) float64 {
	loss := c.FacLindhard * c.Density * math.Sqrt(e) * pathLength
	if loss > e {
		return e
	}
	return loss
}
