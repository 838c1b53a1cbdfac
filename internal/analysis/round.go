package analysis

import "gonum.org/v1/gonum/floats/scalar"

// Round rounds x to the given number of decimal places, half to even.
func Round(x float64, places int) float64 {
	return scalar.RoundEven(x, places)
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, places)
	return &r
}

func intPtr(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}
