package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// NoDataColor fills areas without an indicator value.
var NoDataColor = color.NRGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}

// ParseColor resolves a CSS/SVG color name ("steelblue") or a hex triplet
// ("#4682b4", "#48b").
func ParseColor(s string) (color.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	if !strings.HasPrefix(name, "#") {
		return nil, fmt.Errorf("unknown color %q", s)
	}

	hex := name[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
