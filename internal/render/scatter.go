package render

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"github.com/couchcryptid/diabetes-care-api/internal/analysis"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Axis labels of the population versus quality chart.
const (
	ScatterXLabel = "Number of Patients"
	ScatterYLabel = "% Value"
)

var regressionColor = color.RGBA{R: 0xff, A: 0xff}

// ChartOptions configures a scatter chart.
type ChartOptions struct {
	Size           Size
	Title          string
	PointColor     color.Color
	ShowRegression bool
}

// Scatter plots denominator against value for the records carrying both,
// optionally overlaid with a dashed least squares line labelled with r and p.
func Scatter(records []domain.IndicatorRecord, opts ChartOptions) ([]byte, error) {
	xs, ys := analysis.CompletePairs(records)

	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = ScatterXLabel
	p.Y.Label.Text = ScatterYLabel
	p.Add(plotter.NewGrid())

	if len(xs) > 0 {
		pts := make(plotter.XYs, len(xs))
		for i := range xs {
			pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("scatter: %w", err)
		}
		s.GlyphStyle.Color = withAlpha(opts.PointColor, 0.7)
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}

	if opts.ShowRegression && len(xs) >= 2 {
		if err := addRegression(p, xs, ys); err != nil {
			return nil, err
		}
	}

	return renderPNG(opts.Size, func(dc draw.Canvas) error {
		p.Draw(dc)
		return nil
	})
}

// addRegression overlays the fitted line. Inputs with no x spread have no
// line and are skipped.
func addRegression(p *plot.Plot, xs, ys []float64) error {
	fit, err := analysis.LinearFit(xs, ys)
	if errors.Is(err, domain.ErrInsufficientData) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("regression: %w", err)
	}
	lo, hi := slices.Min(xs), slices.Max(xs)
	line, err := plotter.NewLine(plotter.XYs{
		{X: lo, Y: fit.At(lo)},
		{X: hi, Y: fit.At(hi)},
	})
	if err != nil {
		return fmt.Errorf("regression line: %w", err)
	}
	line.Color = regressionColor
	line.Width = vg.Points(1.5)
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(line)
	p.Legend.Add(RegressionLabel(fit), line)
	p.Legend.Top = true
	return nil
}

// RegressionLabel is the legend text of a fitted line.
func RegressionLabel(fit analysis.Regression) string {
	return fmt.Sprintf("r = %.3f, p = %.3f", fit.R, fit.PValue)
}

func withAlpha(c color.Color, alpha float64) color.Color {
	if c == nil {
		c = color.Black
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(alpha * float64(n.A))
	return n
}
