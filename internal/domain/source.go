package domain

import "context"

// IndicatorSource fetches the full, unfiltered dataset for an indicator
// across every available geography.
type IndicatorSource interface {
	FetchIndicator(ctx context.Context, id IndicatorID) ([]IndicatorRecord, error)
}

// BoundarySource fetches the ICB boundary geometries.
type BoundarySource interface {
	FetchBoundaries(ctx context.Context) ([]AreaBoundary, error)
}
