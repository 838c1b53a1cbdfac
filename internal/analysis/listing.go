package analysis

import (
	"slices"
	"strings"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
)

// ListOptions narrows a record listing. Zero values disable each filter.
type ListOptions struct {
	AreaNameContains string
	MinValue         *float64
	MaxValue         *float64
	Limit            int
}

// RecordView is the client-facing form of an IndicatorRecord.
type RecordView struct {
	AreaCode    string   `json:"area_code"`
	AreaName    string   `json:"area_name"`
	Value       *float64 `json:"value"`
	Count       *int64   `json:"count"`
	Denominator *int64   `json:"denominator"`
}

// ListRecords filters records by name and value range, sorts them by value
// descending (rows without a value last) and applies the limit.
func ListRecords(records []domain.IndicatorRecord, opts ListOptions) []RecordView {
	needle := strings.ToLower(opts.AreaNameContains)

	kept := make([]domain.IndicatorRecord, 0, len(records))
	for _, r := range records {
		if needle != "" && !strings.Contains(strings.ToLower(r.AreaName), needle) {
			continue
		}
		if opts.MinValue != nil && (!r.HasValue() || *r.Value < *opts.MinValue) {
			continue
		}
		if opts.MaxValue != nil && (!r.HasValue() || *r.Value > *opts.MaxValue) {
			continue
		}
		kept = append(kept, r)
	}

	slices.SortStableFunc(kept, compareValueDesc)

	if opts.Limit > 0 && len(kept) > opts.Limit {
		kept = kept[:opts.Limit]
	}

	views := make([]RecordView, len(kept))
	for i, r := range kept {
		views[i] = RecordView{
			AreaCode:    r.AreaCode,
			AreaName:    r.AreaName,
			Value:       roundPtr(r.Value, 2),
			Count:       intPtr(r.Count),
			Denominator: intPtr(r.Denominator),
		}
	}
	return views
}

// compareValueDesc orders by value, largest first, with missing values last.
func compareValueDesc(a, b domain.IndicatorRecord) int {
	switch {
	case !a.HasValue() && !b.HasValue():
		return 0
	case !a.HasValue():
		return 1
	case !b.HasValue():
		return -1
	case *a.Value > *b.Value:
		return -1
	case *a.Value < *b.Value:
		return 1
	default:
		return 0
	}
}
