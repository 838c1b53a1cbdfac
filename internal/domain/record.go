package domain

import "github.com/paulmach/orb"

// IndicatorRecord is one Fingertips row: an indicator value for one area and
// time period. Records are shared between requests and must not be mutated.
type IndicatorRecord struct {
	IndicatorID  IndicatorID
	AreaCode     string
	AreaName     string
	AreaType     AreaType
	ParentCode   string
	ParentName   string
	Sex          string
	Age          string
	CategoryType string
	Category     string
	TimePeriod   string

	Value       *float64 // percentage, nil when suppressed
	Count       *float64
	Denominator *float64 // registered population
}

// HasValue reports whether the record carries a value.
func (r IndicatorRecord) HasValue() bool { return r.Value != nil }

// Complete reports whether both value and denominator are present.
func (r IndicatorRecord) Complete() bool { return r.Value != nil && r.Denominator != nil }

// AreaBoundary is the polygon geometry of one area, keyed by area code.
type AreaBoundary struct {
	Code     string
	Name     string
	Geometry orb.Geometry // orb.Polygon or orb.MultiPolygon, lon/lat
}

// Float returns a pointer to v, for building records in code and tests.
func Float(v float64) *float64 { return &v }
