package analysis

import "math"

// Quantile returns the p-quantile of sorted (ascending) using linear
// interpolation between the closest ranks at h = (n-1)p. It returns NaN for
// an empty slice.
//
// gonum's stat.Quantile only offers the empirical and LinInterp estimators,
// neither of which matches this definition, so it is computed here.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
