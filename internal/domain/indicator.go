package domain

// IndicatorID identifies a Fingertips indicator.
type IndicatorID int

// Known diabetes-care indicators.
const (
	Type1CareProcesses    IndicatorID = 94146
	Type2CareProcesses    IndicatorID = 94147
	Type1RetinalScreening IndicatorID = 94148
	Type2RetinalScreening IndicatorID = 94149
	Type1TreatmentTargets IndicatorID = 94150
	Type2TreatmentTargets IndicatorID = 94151
	Type1Statins          IndicatorID = 94152
	Type2Statins          IndicatorID = 94153
)

// DefaultIndicator is used when a request does not name one.
const DefaultIndicator = Type1CareProcesses

// Indicator is the static catalog entry for an IndicatorID.
type Indicator struct {
	ID          IndicatorID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

var catalog = []Indicator{
	{Type1CareProcesses, "Type 1 - All 9 care processes", "% receiving all annual checks"},
	{Type2CareProcesses, "Type 2 - All 9 care processes", "% receiving all annual checks"},
	{Type1RetinalScreening, "Type 1 - Retinal screening", "% getting eye exams (prevents blindness)"},
	{Type2RetinalScreening, "Type 2 - Retinal screening", "% getting eye exams"},
	{Type1TreatmentTargets, "Type 1 - All 3 treatment targets", "% with HbA1c, BP & cholesterol under control"},
	{Type2TreatmentTargets, "Type 2 - All 3 treatment targets", "% with HbA1c, BP & cholesterol under control"},
	{Type1Statins, "Type 1 - Statin prescription", "% prescribed statins for heart disease prevention"},
	{Type2Statins, "Type 2 - Statin prescription", "% prescribed statins for heart disease prevention"},
}

// Indicators returns the catalog in ID order.
func Indicators() []Indicator {
	out := make([]Indicator, len(catalog))
	copy(out, catalog)
	return out
}

// LookupIndicator returns the catalog entry for id.
func LookupIndicator(id IndicatorID) (Indicator, bool) {
	for _, ind := range catalog {
		if ind.ID == id {
			return ind, true
		}
	}
	return Indicator{}, false
}

// AreaType is a Fingertips geography level.
type AreaType string

const (
	AreaEngland         AreaType = "England"
	AreaICBs            AreaType = "ICBs"
	AreaICBSubLocations AreaType = "ICB sub-locations"
	AreaGPs             AreaType = "GPs"
)

// DefaultAreaType is used when a request does not name one.
const DefaultAreaType = AreaICBs

// AreaTypes lists the supported area types.
func AreaTypes() []AreaType {
	return []AreaType{AreaEngland, AreaICBs, AreaICBSubLocations, AreaGPs}
}

// Valid reports whether a is one of the supported area types.
func (a AreaType) Valid() bool {
	for _, t := range AreaTypes() {
		if a == t {
			return true
		}
	}
	return false
}

// ColorScheme names a map colour scale.
type ColorScheme string

const (
	SchemeRdYlGn   ColorScheme = "RdYlGn"
	SchemeBlues    ColorScheme = "Blues"
	SchemeGreens   ColorScheme = "Greens"
	SchemeReds     ColorScheme = "Reds"
	SchemeViridis  ColorScheme = "viridis"
	SchemeCoolwarm ColorScheme = "coolwarm"
	SchemePlasma   ColorScheme = "plasma"
)

// ColorSchemes lists the supported map colour schemes.
func ColorSchemes() []ColorScheme {
	return []ColorScheme{SchemeRdYlGn, SchemeBlues, SchemeGreens, SchemeReds, SchemeViridis, SchemeCoolwarm, SchemePlasma}
}

// Valid reports whether c is one of the supported schemes.
func (c ColorScheme) Valid() bool {
	for _, s := range ColorSchemes() {
		if c == s {
			return true
		}
	}
	return false
}
