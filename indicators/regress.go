package indicators

import "math"

// linreg fits y = a + b*x by least squares over x = 0..len(y)-1 and
// returns the slope b together with the Pearson correlation r.
// ok is false for degenerate inputs: fewer than two points or zero
// variance in y.
func linreg(y []float64) (slope, r float64, ok bool) {
	if len(y) < 2 {
		return 0, 0, false
	}
	if flat(y) {
		return 0, 0, false
	}

	n := float64(len(y))
	meanX := (n - 1) / 2
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= n

	var sxx, sxy, syy float64
	for i, v := range y {
		dx := float64(i) - meanX
		dy := v - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, 0, false
	}
	return sxy / sxx, sxy / math.Sqrt(sxx*syy), true
}

func flat(y []float64) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}
