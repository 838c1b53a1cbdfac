package analysis

import (
	"fmt"
	"math"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SignificanceLevel is the p-value below which a relationship is reported
// as significant.
const SignificanceLevel = 0.05

// MinCorrelationRows is the fewest complete rows a correlation needs.
const MinCorrelationRows = 3

// Interpretations of a population-size versus care-quality correlation.
const (
	InterpretationNone   = "No significant relationship between population size and care quality."
	InterpretationBetter = "Larger populations tend to have better care quality."
	InterpretationWorse  = "Larger populations tend to have worse care quality."
	InterpretationWeak   = "Weak relationship between population size and care quality."
)

// Correlation is the Pearson correlation between area population
// (denominator) and indicator value.
type Correlation struct {
	R              float64 `json:"r"`
	PValue         float64 `json:"p_value"`
	Significant    bool    `json:"significant"`
	Interpretation string  `json:"interpretation"`
	N              int     `json:"n"`
}

// Correlate computes the correlation between denominator and value over the
// records that carry both.
func Correlate(records []domain.IndicatorRecord) (Correlation, error) {
	xs, ys := CompletePairs(records)
	if len(xs) < MinCorrelationRows {
		return Correlation{}, fmt.Errorf("%w: correlation needs at least %d complete rows, got %d",
			domain.ErrInsufficientData, MinCorrelationRows, len(xs))
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return Correlation{}, fmt.Errorf("%w: correlation is undefined for constant input", domain.ErrInsufficientData)
	}
	r = clampUnit(r)
	p := pearsonPValue(r, len(xs))

	return Correlation{
		R:              Round(r, 4),
		PValue:         Round(p, 4),
		Significant:    p < SignificanceLevel,
		Interpretation: Interpret(r, p),
		N:              len(xs),
	}, nil
}

// Interpret maps a correlation and its p-value to a plain-language reading.
func Interpret(r, p float64) string {
	switch {
	case p >= SignificanceLevel:
		return InterpretationNone
	case r > 0.3:
		return InterpretationBetter
	case r < -0.3:
		return InterpretationWorse
	default:
		return InterpretationWeak
	}
}

// CompletePairs returns the (denominator, value) pairs of records carrying
// both, in record order.
func CompletePairs(records []domain.IndicatorRecord) (xs, ys []float64) {
	xs = make([]float64, 0, len(records))
	ys = make([]float64, 0, len(records))
	for _, r := range records {
		if !r.Complete() {
			continue
		}
		xs = append(xs, *r.Denominator)
		ys = append(ys, *r.Value)
	}
	return xs, ys
}

// Regression is an ordinary least squares fit y = Intercept + Slope*x.
type Regression struct {
	Slope     float64
	Intercept float64
	R         float64
	PValue    float64
}

// At evaluates the fitted line at x.
func (g Regression) At(x float64) float64 {
	return g.Intercept + g.Slope*x
}

// LinearFit fits an ordinary least squares line through the points. It needs
// at least two points with distinct x values.
func LinearFit(xs, ys []float64) (Regression, error) {
	if len(xs) != len(ys) {
		return Regression{}, fmt.Errorf("mismatched inputs: %d x values, %d y values", len(xs), len(ys))
	}
	n := len(xs)
	if n < 2 {
		return Regression{}, fmt.Errorf("%w: regression needs at least 2 points, got %d", domain.ErrInsufficientData, n)
	}
	if stat.Variance(xs, nil) == 0 {
		return Regression{}, fmt.Errorf("%w: regression is undefined when all x values are equal", domain.ErrInsufficientData)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	r := 0.0
	if stat.Variance(ys, nil) != 0 {
		r = clampUnit(stat.Correlation(xs, ys, nil))
	}

	var p float64
	if n == 2 {
		if ys[0] == ys[1] {
			p = 1
		}
	} else {
		p = pearsonPValue(r, n)
	}

	return Regression{Slope: slope, Intercept: intercept, R: r, PValue: p}, nil
}

// pearsonPValue is the two-sided p-value of r under Student's t with n-2
// degrees of freedom.
func pearsonPValue(r float64, n int) float64 {
	df := float64(n - 2)
	denom := 1 - r*r
	if denom <= 0 {
		return 0
	}
	t := r * math.Sqrt(df/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	return math.Min(math.Max(p, 0), 1)
}

func clampUnit(r float64) float64 {
	return math.Max(-1, math.Min(1, r))
}
