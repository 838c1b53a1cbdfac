package analysis

import (
	"fmt"
	"slices"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
)

// Order selects the best or worst performers.
type Order string

const (
	OrderTop    Order = "top"
	OrderBottom Order = "bottom"
)

// Bounds on the number of ranked areas a caller may request.
const (
	MinRankings = 1
	MaxRankings = 100
)

// Ranking is one ranked area.
type Ranking struct {
	Rank         int     `json:"rank"`
	AreaCode     string  `json:"area_code"`
	AreaName     string  `json:"area_name"`
	Value        float64 `json:"value"`
	PatientCount *int64  `json:"patient_count"`
}

// Rank returns the n highest (OrderTop) or lowest (OrderBottom) valued
// records, numbered from 1. Records without a value are skipped and ties keep
// their original order.
func Rank(records []domain.IndicatorRecord, n int, order Order) ([]Ranking, error) {
	if n < MinRankings || n > MaxRankings {
		return nil, fmt.Errorf("n must be between %d and %d, got %d", MinRankings, MaxRankings, n)
	}

	valued := make([]domain.IndicatorRecord, 0, len(records))
	for _, r := range records {
		if r.HasValue() {
			valued = append(valued, r)
		}
	}

	switch order {
	case OrderTop:
		slices.SortStableFunc(valued, compareValueDesc)
	case OrderBottom:
		slices.SortStableFunc(valued, func(a, b domain.IndicatorRecord) int {
			return compareValueDesc(b, a)
		})
	default:
		return nil, fmt.Errorf("unknown order %q", order)
	}

	if len(valued) > n {
		valued = valued[:n]
	}

	out := make([]Ranking, len(valued))
	for i, r := range valued {
		out[i] = Ranking{
			Rank:         i + 1,
			AreaCode:     r.AreaCode,
			AreaName:     r.AreaName,
			Value:        Round(*r.Value, 2),
			PatientCount: intPtr(r.Denominator),
		}
	}
	return out, nil
}
