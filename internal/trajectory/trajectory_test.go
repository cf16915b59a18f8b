package trajectory

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrim/gotrim/internal/damage"
	"github.com/gotrim/gotrim/internal/geometry"
	"github.com/gotrim/gotrim/internal/physics"
	"github.com/gotrim/gotrim/internal/vec"
)

func testEngine(t *testing.T, zMax float64) *Engine {
	t.Helper()
	c, err := physics.NewConstants(
		physics.Projectile{Z: 5, M: 11.009},
		physics.Material{Z: 14, M: 28.086, Density: 0.04994},
		1.0,
	)
	require.NoError(t, err)
	tgt, err := geometry.Planar(0, zMax)
	require.NoError(t, err)
	return New(c, tgt)
}

func TestTraceStopsInside(t *testing.T) {
	en := testEngine(t, 1e6)
	rng := rand.New(rand.NewSource(11))

	res := en.Trace(vec.New(0, 0, 0), vec.New(0, 0, 1), 50000, rng, false, nil)

	assert.True(t, res.StoppedInside)
	assert.True(t, en.Target.Contains(res.Pos))
	assert.LessOrEqual(t, res.Energy, DefaultEMin, "tracking ends at the cutoff")
	assert.GreaterOrEqual(t, res.Energy, 0.0)
	assert.Greater(t, res.Collisions, 100, "a 50 keV ion survives many collisions")
	assert.Greater(t, res.Pos.Z(), 0.0)
	assert.Nil(t, res.Path)
}

func TestTraceEscapesThinTarget(t *testing.T) {
	en := testEngine(t, 10)
	rng := rand.New(rand.NewSource(12))

	res := en.Trace(vec.New(0, 0, 0), vec.New(0, 0, 1), 50000, rng, false, nil)

	assert.False(t, res.StoppedInside)
	assert.False(t, en.Target.Contains(res.Pos))
	assert.Greater(t, res.Energy, DefaultEMin, "a 50 keV ion punches through 10 A")
}

func TestTraceBelowCutoff(t *testing.T) {
	en := testEngine(t, 1e6)
	rng := rand.New(rand.NewSource(13))
	start := vec.New(1, 2, 3)

	res := en.Trace(start, vec.New(0, 0, 1), DefaultEMin, rng, true, nil)

	assert.True(t, res.StoppedInside)
	assert.Equal(t, start, res.Pos)
	assert.Equal(t, DefaultEMin, res.Energy)
	assert.Zero(t, res.Collisions)
	assert.Equal(t, []vec.Vec3{start}, res.Path)
}

func TestTraceDeterministic(t *testing.T) {
	en := testEngine(t, 1e6)

	a := en.Trace(vec.New(0, 0, 0), vec.New(0, 0, 1), 50000, rand.New(rand.NewSource(99)), true, nil)
	b := en.Trace(vec.New(0, 0, 0), vec.New(0, 0, 1), 50000, rand.New(rand.NewSource(99)), true, nil)

	assert.Equal(t, a, b, "identical seeds reproduce the trajectory bit for bit")
}

func TestTraceRecordsPath(t *testing.T) {
	en := testEngine(t, 1e6)
	rng := rand.New(rand.NewSource(14))
	start := vec.New(0, 0, 0)

	res := en.Trace(start, vec.New(0, 0, 1), 2000, rng, true, nil)

	require.True(t, res.StoppedInside)
	require.NotEmpty(t, res.Path)
	assert.Equal(t, start, res.Path[0])
	assert.Equal(t, res.Pos, res.Path[len(res.Path)-1])
	assert.Equal(t, res.Collisions+1, len(res.Path),
		"entry point plus one position per flight")

	// Successive positions are one mean free path apart.
	for i := 1; i < len(res.Path); i++ {
		step := res.Path[i].Sub(res.Path[i-1]).Norm()
		assert.InDelta(t, en.Consts.MeanFreePath, step, 1e-9, "segment %d", i)
	}
}

func TestTraceDamageRecording(t *testing.T) {
	en := testEngine(t, 1e6)
	rng := rand.New(rand.NewSource(15))
	rec := damage.NewRecorder(damage.DisplacementEnergies["Si"])

	res := en.Trace(vec.New(0, 0, 0), vec.New(0, 0, 1), 50000, rng, false, rec)

	require.True(t, res.StoppedInside)
	p := rec.Profile()
	assert.Greater(t, p.TotalVacancies(), 10,
		"a 50 keV ion displaces many silicon atoms")
	assert.LessOrEqual(t, p.TotalVacancies(), res.Collisions)
}
