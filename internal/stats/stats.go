// Package stats reduces a set of traced ions to implantation statistics:
// how many stopped in the target, where on average, and with what spread
// (range and straggling).
package stats

import (
	"math"

	"github.com/gotrim/gotrim/internal/trajectory"
)

// Summary aggregates the ions that stopped inside the target. All means and
// standard deviations are over that subset only; with zero stopped ions the
// moments are NaN.
type Summary struct {
	TotalIons   int `json:"totalIons"`
	CountInside int `json:"countInside"`

	MeanX float64 `json:"meanX"`
	MeanY float64 `json:"meanY"`
	MeanZ float64 `json:"meanZ"` // mean projected range

	StdX float64 `json:"stdX"`
	StdY float64 `json:"stdY"`
	StdZ float64 `json:"stdZ"` // range straggling

	// MeanR and StdR describe the lateral spread r = sqrt(x^2+y^2).
	MeanR float64 `json:"meanR"`
	StdR  float64 `json:"stdR"`
}

// Summarize computes the implantation summary from traced ions.
func Summarize(results []trajectory.Result) Summary {
	s := Summary{TotalIons: len(results)}

	var sx, sy, sz, sr float64
	var sx2, sy2, sz2, sr2 float64
	for _, res := range results {
		if !res.StoppedInside {
			continue
		}
		s.CountInside++
		x, y, z := res.Pos.X(), res.Pos.Y(), res.Pos.Z()
		r := math.Hypot(x, y)
		sx, sx2 = sx+x, sx2+x*x
		sy, sy2 = sy+y, sy2+y*y
		sz, sz2 = sz+z, sz2+z*z
		sr, sr2 = sr+r, sr2+r*r
	}

	n := float64(s.CountInside)
	s.MeanX, s.StdX = moments(sx, sx2, n)
	s.MeanY, s.StdY = moments(sy, sy2, n)
	s.MeanZ, s.StdZ = moments(sz, sz2, n)
	s.MeanR, s.StdR = moments(sr, sr2, n)
	return s
}

// moments converts running sums into mean and population standard
// deviation. n == 0 yields NaN for both.
func moments(sum, sum2, n float64) (mean, std float64) {
	mean = sum / n
	variance := sum2/n - mean*mean
	if variance < 0 {
		variance = 0 // rounding noise on near-constant samples
	}
	return mean, math.Sqrt(variance)
}
