package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrim/gotrim/internal/trajectory"
	"github.com/gotrim/gotrim/internal/vec"
)

func stopped(x, y, z float64) trajectory.Result {
	return trajectory.Result{Pos: vec.New(x, y, z), StoppedInside: true}
}

func TestSummarizeKnownValues(t *testing.T) {
	results := []trajectory.Result{
		stopped(3, 0, 100),
		stopped(-3, 4, 300),
		{Pos: vec.New(0, 0, 5000), StoppedInside: false}, // escaped, excluded
	}

	s := Summarize(results)

	assert.Equal(t, 3, s.TotalIons)
	assert.Equal(t, 2, s.CountInside)
	assert.InDelta(t, 0.0, s.MeanX, 1e-12)
	assert.InDelta(t, 2.0, s.MeanY, 1e-12)
	assert.InDelta(t, 200.0, s.MeanZ, 1e-12)
	assert.InDelta(t, 3.0, s.StdX, 1e-12)
	assert.InDelta(t, 2.0, s.StdY, 1e-12)
	assert.InDelta(t, 100.0, s.StdZ, 1e-12)
	assert.InDelta(t, 4.0, s.MeanR, 1e-12, "r = 3 and 5")
	assert.InDelta(t, 1.0, s.StdR, 1e-12)
}

func TestSummarizeMatchesTwoPassFormula(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	results := make([]trajectory.Result, 500)
	for i := range results {
		results[i] = stopped(rng.NormFloat64()*50, rng.NormFloat64()*50, 1800+rng.NormFloat64()*400)
	}

	s := Summarize(results)

	// Independent two-pass computation of the z moments.
	var mean float64
	for _, r := range results {
		mean += r.Pos.Z()
	}
	mean /= float64(len(results))
	var variance float64
	for _, r := range results {
		d := r.Pos.Z() - mean
		variance += d * d
	}
	variance /= float64(len(results))

	require.Equal(t, 500, s.CountInside)
	assert.InDelta(t, mean, s.MeanZ, 1e-10*math.Abs(mean))
	assert.InDelta(t, math.Sqrt(variance), s.StdZ, 1e-8)
}

func TestSummarizeEmpty(t *testing.T) {
	for _, results := range [][]trajectory.Result{
		nil,
		{{Pos: vec.New(0, 0, 1), StoppedInside: false}},
	} {
		s := Summarize(results)
		assert.Equal(t, 0, s.CountInside)
		assert.True(t, math.IsNaN(s.MeanZ))
		assert.True(t, math.IsNaN(s.StdZ))
		assert.True(t, math.IsNaN(s.MeanR))
	}
}

func TestSummarizeConstantSamples(t *testing.T) {
	results := []trajectory.Result{
		stopped(7, 7, 7),
		stopped(7, 7, 7),
		stopped(7, 7, 7),
	}
	s := Summarize(results)
	assert.InDelta(t, 7.0, s.MeanZ, 1e-12)
	assert.Equal(t, 0.0, s.StdZ, "no negative variance from rounding")
}
