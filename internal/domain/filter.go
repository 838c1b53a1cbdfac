package domain

import (
	"fmt"
	"slices"
)

// Filtered is the result of FilterData: the matching rows and the time
// period they were resolved against.
type Filtered struct {
	Records    []IndicatorRecord
	TimePeriod string
}

// FilterData restricts records to areaType and then to timePeriod. An empty
// timePeriod resolves to the latest period present for the area type.
//
// The area type stage runs first: an area type with no rows fails with
// ErrNotFound before any period is resolved.
func FilterData(records []IndicatorRecord, areaType AreaType, timePeriod string) (Filtered, error) {
	byArea := filterByAreaType(records, areaType)
	if len(byArea) == 0 {
		return Filtered{}, fmt.Errorf("%w: no data for area type '%s'", ErrNotFound, areaType)
	}

	if timePeriod == "" {
		timePeriod = LatestTimePeriod(byArea)
	}

	out := make([]IndicatorRecord, 0, len(byArea))
	for _, r := range byArea {
		if r.TimePeriod == timePeriod {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return Filtered{}, fmt.Errorf("%w: no data for time period '%s'", ErrNotFound, timePeriod)
	}
	return Filtered{Records: out, TimePeriod: timePeriod}, nil
}

// LatestTimePeriod returns the maximum time-period label in records, or ""
// when records is empty.
func LatestTimePeriod(records []IndicatorRecord) string {
	latest := ""
	for _, r := range records {
		if r.TimePeriod > latest {
			latest = r.TimePeriod
		}
	}
	return latest
}

// TimePeriods returns the distinct time periods for areaType, most recent first.
func TimePeriods(records []IndicatorRecord, areaType AreaType) []string {
	seen := make(map[string]struct{})
	periods := []string{}
	for _, r := range filterByAreaType(records, areaType) {
		if _, ok := seen[r.TimePeriod]; ok {
			continue
		}
		seen[r.TimePeriod] = struct{}{}
		periods = append(periods, r.TimePeriod)
	}
	slices.Sort(periods)
	slices.Reverse(periods)
	return periods
}

func filterByAreaType(records []IndicatorRecord, areaType AreaType) []IndicatorRecord {
	out := make([]IndicatorRecord, 0, len(records))
	for _, r := range records {
		if r.AreaType == areaType {
			out = append(out, r)
		}
	}
	return out
}
