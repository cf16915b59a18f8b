package physics

import "math"

// Ziegler-Biersack-Littmark universal screening function coefficients.
var (
	zblAmp   = [4]float64{0.18175, 0.50986, 0.28022, 0.02817}
	zblDecay = [4]float64{3.19980, 0.94229, 0.40290, 0.20162}
)

// screening evaluates the ZBL universal screening function and its analytic
// derivative at reduced distance x (units of the screening length).
func screening(x float64) (phi, dphi float64) {
	for i := range zblAmp {
		t := zblAmp[i] * math.Exp(-zblDecay[i]*x)
		phi += t
		dphi -= zblDecay[i] * t
	}
	return phi, dphi
}
