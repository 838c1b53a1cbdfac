package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// colorBarFraction is the share of the figure height given to the color bar.
const colorBarFraction = 0.1

var edgeStyle = draw.LineStyle{Color: color.White, Width: vg.Points(0.3)}

// Region is a boundary joined to its indicator value. Value is nil for
// boundaries without a matching record.
type Region struct {
	Code     string
	Name     string
	Value    *float64
	Geometry orb.Geometry
}

// JoinRegions left-joins boundaries to records by area code. Every boundary
// yields a region, in boundary order.
func JoinRegions(boundaries []domain.AreaBoundary, records []domain.IndicatorRecord) []Region {
	byCode := make(map[string]domain.IndicatorRecord, len(records))
	for _, r := range records {
		if _, ok := byCode[r.AreaCode]; !ok {
			byCode[r.AreaCode] = r
		}
	}

	regions := make([]Region, len(boundaries))
	for i, b := range boundaries {
		regions[i] = Region{Code: b.Code, Name: b.Name, Geometry: b.Geometry}
		if r, ok := byCode[b.Code]; ok {
			regions[i].Value = r.Value
			if regions[i].Name == "" {
				regions[i].Name = r.AreaName
			}
		}
	}
	return regions
}

// MapOptions configures a choropleth.
type MapOptions struct {
	Scheme     domain.ColorScheme
	Size       Size
	Title      string
	ValueLabel string
}

// Choropleth draws regions filled by value on the selected color scheme,
// with a horizontal color bar underneath. Regions without a value are drawn
// in NoDataColor.
func Choropleth(regions []Region, opts MapOptions) ([]byte, error) {
	if len(regions) == 0 {
		return nil, errors.New("choropleth: no regions to draw")
	}

	cm, err := ColorMap(opts.Scheme)
	if err != nil {
		return nil, err
	}
	lo, hi := valueRange(regions)
	cm.SetMin(lo)
	cm.SetMax(hi)

	bound := regions[0].Geometry.Bound()
	for _, r := range regions[1:] {
		bound = bound.Union(r.Geometry.Bound())
	}
	xScale := math.Cos(bound.Center().Lat() * math.Pi / 180)

	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.HideAxes()

	var noData plot.Thumbnailer
	for _, r := range regions {
		fill := RegionFill(r, cm)
		for _, rings := range polygonRings(r.Geometry, xScale) {
			pg, err := plotter.NewPolygon(rings...)
			if err != nil {
				return nil, fmt.Errorf("region %s: %w", r.Code, err)
			}
			pg.Color = fill
			pg.LineStyle = edgeStyle
			p.Add(pg)
			if r.Value == nil && noData == nil {
				noData = pg
			}
		}
	}
	if noData != nil {
		p.Legend.Add("No data", noData)
		p.Legend.Top = true
	}

	mapAspect := opts.Size.Width / (opts.Size.Height * (1 - colorBarFraction))
	fitAspect(p, bound.Min.Lon()*xScale, bound.Max.Lon()*xScale, bound.Min.Lat(), bound.Max.Lat(), mapAspect)

	bar := plot.New()
	bar.HideY()
	bar.X.Label.Text = opts.ValueLabel
	bar.Add(&plotter.ColorBar{ColorMap: cm})

	return renderPNG(opts.Size, func(dc draw.Canvas) error {
		w := dc.Max.X - dc.Min.X
		h := dc.Max.Y - dc.Min.Y
		barH := h * colorBarFraction
		p.Draw(draw.Crop(dc, 0, 0, barH, 0))
		bar.Draw(draw.Crop(dc, w*0.15, -w*0.15, 0, -(h - barH)))
		return nil
	})
}

// RegionFill returns the fill color of a region on cm.
func RegionFill(r Region, cm palette.ColorMap) color.Color {
	if r.Value == nil {
		return NoDataColor
	}
	c, err := cm.At(*r.Value)
	if err != nil {
		return NoDataColor
	}
	return c
}

// valueRange returns the bounds of the present values, widened when they
// coincide so the color scale stays non-empty.
func valueRange(regions []Region) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range regions {
		if r.Value == nil {
			continue
		}
		lo = math.Min(lo, *r.Value)
		hi = math.Max(hi, *r.Value)
	}
	switch {
	case math.IsInf(lo, 1):
		return 0, 1
	case lo == hi:
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

// polygonRings converts a geometry into plotter rings, one group per
// polygon, with longitudes scaled by xScale.
func polygonRings(g orb.Geometry, xScale float64) [][]plotter.XYer {
	var polys []orb.Polygon
	switch geom := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{geom}
	case orb.MultiPolygon:
		polys = geom
	default:
		return nil
	}

	out := make([][]plotter.XYer, 0, len(polys))
	for _, poly := range polys {
		var rings []plotter.XYer
		for _, ring := range poly {
			if len(ring) < 3 {
				continue
			}
			xys := make(plotter.XYs, len(ring))
			for i, pt := range ring {
				xys[i] = plotter.XY{X: pt.Lon() * xScale, Y: pt.Lat()}
			}
			rings = append(rings, xys)
		}
		if len(rings) > 0 {
			out = append(out, rings)
		}
	}
	return out
}

// fitAspect sets the axis ranges to the data bounds, padded along one axis so
// that one data unit has the same length on both axes.
func fitAspect(p *plot.Plot, xmin, xmax, ymin, ymax, aspect float64) {
	dx, dy := xmax-xmin, ymax-ymin
	if dx <= 0 || dy <= 0 || aspect <= 0 {
		return
	}
	if dx/dy < aspect {
		pad := (dy*aspect - dx) / 2
		xmin, xmax = xmin-pad, xmax+pad
	} else {
		pad := (dx/aspect - dy) / 2
		ymin, ymax = ymin-pad, ymax+pad
	}
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax
}
