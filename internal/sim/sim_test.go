package sim

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrim/gotrim/internal/geometry"
	"github.com/gotrim/gotrim/internal/physics"
	"github.com/gotrim/gotrim/internal/trajectory"
	"github.com/gotrim/gotrim/internal/vec"
)

// testRunner wires the reference scenario: 50 keV B-11 into amorphous
// silicon bounded at 0..4000 A.
func testRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := physics.NewConstants(
		physics.Projectile{Z: 5, M: 11.009},
		physics.Material{Z: 14, M: 28.086, Density: 0.04994},
		1.0,
	)
	require.NoError(t, err)
	tgt, err := geometry.Planar(0, 4000)
	require.NoError(t, err)

	r, err := NewRunner(trajectory.New(c, tgt), zerolog.Nop())
	require.NoError(t, err)
	return r
}

func baseParams(nIon int) Params {
	return Params{
		NIon:  nIon,
		EInit: 50000,
		Pos:   vec.New(0, 0, 0),
		Dir:   vec.New(0, 0, 1),
		Seed:  42,
	}
}

func TestRunValidation(t *testing.T) {
	r := testRunner(t)

	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"negative ion count", func(p *Params) { p.NIon = -1 }, "nIon"},
		{"zero energy", func(p *Params) { p.EInit = 0 }, "eInit"},
		{"zero direction", func(p *Params) { p.Dir = vec.Vec3{} }, "dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams(10)
			tt.mutate(&p)
			rep, err := r.Run(context.Background(), p)
			assert.Nil(t, rep)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestRunZeroIons(t *testing.T) {
	r := testRunner(t)
	rep, err := r.Run(context.Background(), baseParams(0))
	require.NoError(t, err)
	assert.Empty(t, rep.Results)
	assert.Equal(t, 0, rep.Summary.CountInside)
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	r := testRunner(t)

	seq := baseParams(300)
	seq.Workers = 1
	par := baseParams(300)
	par.Workers = 4

	a, err := r.Run(context.Background(), seq)
	require.NoError(t, err)
	b, err := r.Run(context.Background(), par)
	require.NoError(t, err)

	require.Len(t, a.Results, 300)
	assert.Equal(t, a.Results, b.Results,
		"per-ion seeding makes the ensemble independent of scheduling")
	assert.Equal(t, a.Summary, b.Summary)
}

func TestRunOrdersAndRecordsPaths(t *testing.T) {
	r := testRunner(t)
	p := baseParams(10)
	p.MaxTrajectories = 3

	rep, err := r.Run(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, rep.Results, 10)

	for i, res := range rep.Results {
		assert.Equal(t, i, res.Ion)
		if i < 3 {
			assert.NotEmpty(t, res.Path, "ion %d records its path", i)
		} else {
			assert.Nil(t, res.Path, "ion %d", i)
		}
	}
}

func TestRunProgressSequential(t *testing.T) {
	r := testRunner(t)
	p := baseParams(5)
	p.Workers = 1

	var mu sync.Mutex
	var calls [][2]int
	p.Progress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	}

	_, err := r.Run(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, calls, 5, "per-ion callbacks when sequential")
	for i, c := range calls {
		assert.Equal(t, [2]int{i + 1, 5}, c)
	}
}

func TestRunCancellation(t *testing.T) {
	r := testRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := baseParams(500)
	p.Workers = 4
	rep, err := r.Run(ctx, p)

	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep, "partial report on cancellation")
	assert.Less(t, len(rep.Results), 500)
}

func TestRunDamageAccounting(t *testing.T) {
	r := testRunner(t)
	p := baseParams(5)
	p.RecordDamage = true
	p.DisplacementEnergy = 15 // silicon

	rep, err := r.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Greater(t, rep.Damage.TotalVacancies(), 50,
		"five 50 keV ions displace many atoms")
}

// TestRunImplantationProfile checks the physics end to end: 50 keV boron
// into silicon has a projected range around 2000 A with most ions stopping
// inside a 4000 A slab.
func TestRunImplantationProfile(t *testing.T) {
	if testing.Short() {
		t.Skip("ensemble run")
	}
	r := testRunner(t)
	rep, err := r.Run(context.Background(), baseParams(1000))
	require.NoError(t, err)

	s := rep.Summary
	assert.Equal(t, 1000, s.TotalIons)
	assert.GreaterOrEqual(t, s.CountInside, 900)
	assert.Greater(t, s.MeanZ, 1500.0)
	assert.Less(t, s.MeanZ, 2800.0)
	assert.Greater(t, s.StdZ, 0.0)
	assert.Less(t, s.StdZ, s.MeanZ)
	assert.InDelta(t, 0.0, s.MeanX, 100.0, "no preferred lateral direction")
	assert.InDelta(t, 0.0, s.MeanY, 100.0)
	assert.Greater(t, s.MeanR, 0.0)
	assert.Zero(t, rep.FailedIons)
}
