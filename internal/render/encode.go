package render

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Format is the output encoding of a rendered image.
type Format string

const (
	FormatPNG    Format = "png"
	FormatBase64 Format = "base64"
)

// Formats returns the supported output formats.
func Formats() []Format { return []Format{FormatPNG, FormatBase64} }

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatPNG || f == FormatBase64
}

// Size is a figure size in inches at a resolution in dots per inch.
type Size struct {
	Width  float64
	Height float64
	DPI    int
}

func (s Size) canvas() *vgimg.Canvas {
	return vgimg.NewWith(
		vgimg.UseWH(vg.Length(s.Width)*vg.Inch, vg.Length(s.Height)*vg.Inch),
		vgimg.UseDPI(s.DPI),
	)
}

// renderPNG creates a canvas of the given size, hands it to draw and encodes
// the result as PNG.
func renderPNG(size Size, drawFn func(dc draw.Canvas) error) ([]byte, error) {
	c := size.canvas()
	if err := drawFn(draw.New(c)); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 returns the standard base64 encoding of an image.
func EncodeBase64(img []byte) string {
	return base64.StdEncoding.EncodeToString(img)
}
