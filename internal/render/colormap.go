package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// brewerClasses is the number of ColorBrewer classes sampled per scheme.
const brewerClasses = 9

var (
	viridisStops = []color.Color{
		color.NRGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
		color.NRGBA{R: 0x3b, G: 0x52, B: 0x8b, A: 0xff},
		color.NRGBA{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
		color.NRGBA{R: 0x5e, G: 0xc9, B: 0x62, A: 0xff},
		color.NRGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
	}
	plasmaStops = []color.Color{
		color.NRGBA{R: 0x0d, G: 0x08, B: 0x87, A: 0xff},
		color.NRGBA{R: 0x7e, G: 0x03, B: 0xa8, A: 0xff},
		color.NRGBA{R: 0xcc, G: 0x47, B: 0x78, A: 0xff},
		color.NRGBA{R: 0xf8, G: 0x95, B: 0x40, A: 0xff},
		color.NRGBA{R: 0xf0, G: 0xf9, B: 0x21, A: 0xff},
	}
)

// ColorMap returns a continuous color map for the scheme with its range set
// to [0, 1].
func ColorMap(scheme domain.ColorScheme) (palette.ColorMap, error) {
	switch scheme {
	case domain.SchemeRdYlGn, domain.SchemeBlues, domain.SchemeGreens, domain.SchemeReds:
		p, err := brewer.GetPalette(brewer.TypeAny, string(scheme), brewerClasses)
		if err != nil {
			return nil, fmt.Errorf("brewer palette %s: %w", scheme, err)
		}
		return newGradient(p.Colors()), nil
	case domain.SchemeViridis:
		return newGradient(viridisStops), nil
	case domain.SchemePlasma:
		return newGradient(plasmaStops), nil
	case domain.SchemeCoolwarm:
		cm := moreland.SmoothBlueRed()
		cm.SetMin(0)
		cm.SetMax(1)
		return cm, nil
	default:
		return nil, fmt.Errorf("unknown color scheme %q", scheme)
	}
}

// gradient is a palette.ColorMap interpolating linearly between evenly
// spaced color stops.
type gradient struct {
	stops    []color.NRGBA
	min, max float64
	alpha    float64
}

func newGradient(stops []color.Color) *gradient {
	g := &gradient{min: 0, max: 1, alpha: 1}
	for _, c := range stops {
		g.stops = append(g.stops, color.NRGBAModel.Convert(c).(color.NRGBA))
	}
	return g
}

func (g *gradient) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, fmt.Errorf("color map: NaN value")
	case g.max <= g.min:
		return nil, fmt.Errorf("color map: empty range [%g, %g]", g.min, g.max)
	case v < g.min:
		return nil, fmt.Errorf("color map: %g below minimum %g", v, g.min)
	case v > g.max:
		return nil, fmt.Errorf("color map: %g above maximum %g", v, g.max)
	}
	if len(g.stops) == 1 {
		return g.withAlpha(g.stops[0]), nil
	}

	pos := (v - g.min) / (g.max - g.min) * float64(len(g.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(g.stops)-1 {
		return g.withAlpha(g.stops[len(g.stops)-1]), nil
	}
	frac := pos - float64(i)
	a, b := g.stops[i], g.stops[i+1]
	return g.withAlpha(color.NRGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 0xff,
	}), nil
}

func (g *gradient) withAlpha(c color.NRGBA) color.NRGBA {
	c.A = uint8(math.Round(g.alpha * 0xff))
	return c
}

func (g *gradient) Max() float64           { return g.max }
func (g *gradient) Min() float64           { return g.min }
func (g *gradient) SetMax(v float64)       { g.max = v }
func (g *gradient) SetMin(v float64)       { g.min = v }
func (g *gradient) Alpha() float64         { return g.alpha }
func (g *gradient) SetAlpha(alpha float64) { g.alpha = alpha }

func (g *gradient) Palette(n int) palette.Palette {
	out := make(colors, 0, n)
	for i := range n {
		v := g.min
		if n > 1 {
			v += (g.max - g.min) * float64(i) / float64(n-1)
		}
		c, err := g.At(v)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
