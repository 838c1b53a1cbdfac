package arcgis

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
)

// Properties names the feature properties holding the area code and name.
type Properties struct {
	Code string
	Name string
}

// serviceError is the body ArcGIS returns, often with status 200, when a
// query fails.
type serviceError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseBoundaries decodes a GeoJSON feature collection into area
// boundaries. Features without an area code or without polygon geometry
// are skipped.
func ParseBoundaries(data []byte, props Properties) ([]domain.AreaBoundary, error) {
	var se serviceError
	if err := json.Unmarshal(data, &se); err == nil && se.Error != nil {
		return nil, fmt.Errorf("arcgis service error %d: %s", se.Error.Code, se.Error.Message)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	boundaries := make([]domain.AreaBoundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		code := f.Properties.MustString(props.Code, "")
		if code == "" || f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		boundaries = append(boundaries, domain.AreaBoundary{
			Code:     code,
			Name:     f.Properties.MustString(props.Name, ""),
			Geometry: f.Geometry,
		})
	}
	if len(boundaries) == 0 {
		return nil, errors.New("no polygon features with an area code")
	}
	return boundaries, nil
}
