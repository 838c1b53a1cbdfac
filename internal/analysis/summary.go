package analysis

import (
	"slices"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Statistics are descriptive statistics over indicator values, rounded to 2
// decimals. Fields are nil when there are too few values to define them.
type Statistics struct {
	Mean         *float64 `json:"mean"`
	Std          *float64 `json:"std"`
	Min          *float64 `json:"min"`
	Percentile25 *float64 `json:"percentile_25"`
	Median       *float64 `json:"median"`
	Percentile75 *float64 `json:"percentile_75"`
	Max          *float64 `json:"max"`
}

// Summary describes the value distribution of a filtered record set.
type Summary struct {
	AreasCount    int        `json:"areas_count"`
	TotalPatients *int64     `json:"total_patients"`
	Statistics    Statistics `json:"statistics"`
}

// Summarize computes the summary of records. Missing values are ignored;
// TotalPatients sums every present denominator.
func Summarize(records []domain.IndicatorRecord) Summary {
	values := make([]float64, 0, len(records))
	var patients float64
	havePatients := false
	for _, r := range records {
		if r.HasValue() {
			values = append(values, *r.Value)
		}
		if r.Denominator != nil {
			patients += *r.Denominator
			havePatients = true
		}
	}

	s := Summary{AreasCount: len(values)}
	if havePatients {
		s.TotalPatients = intPtr(&patients)
	}
	if len(values) == 0 {
		return s
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s.Statistics = Statistics{
		Mean:         rounded(stat.Mean(values, nil)),
		Min:          rounded(sorted[0]),
		Percentile25: rounded(Quantile(sorted, 0.25)),
		Median:       rounded(Quantile(sorted, 0.5)),
		Percentile75: rounded(Quantile(sorted, 0.75)),
		Max:          rounded(sorted[len(sorted)-1]),
	}
	if len(values) > 1 {
		s.Statistics.Std = rounded(stat.StdDev(values, nil))
	}
	return s
}

func rounded(x float64) *float64 {
	r := Round(x, 2)
	return &r
}
