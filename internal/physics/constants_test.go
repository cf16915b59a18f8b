package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boronOnSilicon is the reference species pair used throughout the physics
// tests: 50 keV boron implantation into amorphous silicon.
func boronOnSilicon(t *testing.T) *Constants {
	t.Helper()
	c, err := NewConstants(
		Projectile{Z: 5, M: 11.009},
		Material{Z: 14, M: 28.086, Density: 0.04994},
		1.0,
	)
	require.NoError(t, err)
	return c
}

func TestNewConstantsDerivations(t *testing.T) {
	c := boronOnSilicon(t)

	// Reference values computed independently from the defining formulas.
	assert.InEpsilon(t, 0.14271, c.ScreeningLength, 1e-3)
	assert.InEpsilon(t, 9831.6, c.EnergyNorm, 1e-3)
	assert.InEpsilon(t, 1.43681, c.DirFac, 1e-4)
	assert.InEpsilon(t, 0.80921, c.DenFac, 1e-4)
	assert.InEpsilon(t, 1.2955, c.FacLindhard, 1e-3)
	assert.InEpsilon(t, 2.71552, c.MeanFreePath, 1e-4)
	assert.InEpsilon(t, c.MeanFreePath/math.Sqrt(math.Pi), c.PMax, 1e-12)
}

func TestNewConstantsLindhardCorrection(t *testing.T) {
	base := boronOnSilicon(t)
	scaled, err := NewConstants(
		Projectile{Z: 5, M: 11.009},
		Material{Z: 14, M: 28.086, Density: 0.04994},
		1.5,
	)
	require.NoError(t, err)

	// The correction scales only the stopping prefactor.
	assert.InEpsilon(t, 1.5*base.FacLindhard, scaled.FacLindhard, 1e-12)
	assert.Equal(t, base.EnergyNorm, scaled.EnergyNorm)
	assert.Equal(t, base.MeanFreePath, scaled.MeanFreePath)
}

func TestNewConstantsInvalid(t *testing.T) {
	proj := Projectile{Z: 5, M: 11.009}
	tgt := Material{Z: 14, M: 28.086, Density: 0.04994}

	tests := []struct {
		name string
		proj Projectile
		tgt  Material
		corr float64
	}{
		{"zero projectile Z", Projectile{Z: 0, M: 11.009}, tgt, 1.0},
		{"negative target Z", proj, Material{Z: -1, M: 28.086, Density: 0.04994}, 1.0},
		{"zero projectile mass", Projectile{Z: 5, M: 0}, tgt, 1.0},
		{"negative target mass", proj, Material{Z: 14, M: -1, Density: 0.04994}, 1.0},
		{"zero density", proj, Material{Z: 14, M: 28.086, Density: 0}, 1.0},
		{"zero correction", proj, tgt, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConstants(tt.proj, tt.tgt, tt.corr)
			require.ErrorIs(t, err, ErrInvalid)
			assert.Nil(t, c)
		})
	}
}

func TestEnergyLossProportionality(t *testing.T) {
	c := boronOnSilicon(t)

	loss := c.EnergyLoss(50000, c.MeanFreePath)
	assert.Greater(t, loss, 0.0)
	assert.InEpsilon(t, 2*loss, c.EnergyLoss(50000, 2*c.MeanFreePath), 1e-12,
		"loss is linear in path length before the clamp")
	assert.InEpsilon(t, 2*loss, c.EnergyLoss(4*50000, c.MeanFreePath), 1e-12,
		"loss scales with sqrt(energy)")
}

func TestEnergyLossClamped(t *testing.T) {
	c := boronOnSilicon(t)

	// A flight long enough to overdraw the remaining energy loses exactly
	// the remaining energy, never more.
	assert.Equal(t, 5.0, c.EnergyLoss(5.0, 1e9))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		e := math.Exp(rng.Float64()*12 - 2) // ~0.13 eV .. 22 keV
		path := rng.Float64() * 100
		loss := c.EnergyLoss(e, path)
		require.GreaterOrEqual(t, loss, 0.0)
		require.LessOrEqual(t, loss, e)
	}
}
