// Package domain models Fingertips diabetes-care indicator data.
//
// # Data Source
//
// Indicator rows come from the Public Health England Fingertips API, which
// publishes every indicator as a CSV covering all available geographies:
// https://fingertips.phe.org.uk/api/all_data/csv/by_indicator_id?indicator_ids=94146.
// The service fetches one CSV per indicator and keeps it in memory until the
// cache is cleared. Boundary polygons for Integrated Care Boards come from the
// ONS ArcGIS feature service as GeoJSON in WGS-84.
//
// # Fingertips Conventions
//
// Area types:
//
//	"England"            national row, one area (E92000001)
//	"ICBs"               Integrated Care Boards, 42 areas (E54xxxxxx)
//	"ICB sub-locations"  sub-ICB locations
//	"GPs"                individual practices
//
// Time periods:
//
//	Financial-year labels such as "2022/23" and "2023/24". The labels are
//	fixed width within an indicator, so the lexicographic maximum is the most
//	recent period. See [LatestTimePeriod].
//
// Values:
//
//	"Value" is a percentage (0–100). "Count" is the numerator and "Denominator"
//	the registered diabetic population. Suppressed or unpublished cells are
//	empty strings and are carried as nil, never as zero.
//
// # Joining Boundaries
//
// ICB boundary features carry the area code in the ICB23CD property, which
// matches the Fingertips "Area Code" column for area type "ICBs". The map join
// is a left join from boundaries, so unmatched boundaries still render.
package domain
