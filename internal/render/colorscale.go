package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownScale is returned for color scale names that are not registered
var ErrUnknownScale = errors.New("unknown color scale")

// Scale maps a normalized value in [0, 1] to a color by linear
// interpolation between evenly spaced stops
type Scale struct {
	Name  string
	stops []color.RGBA
}

var scales = map[string][]string{
	"viridis": {
		"#440154", "#48186a", "#472d7b", "#424086", "#3b528b", "#33638d",
		"#2c728e", "#26828e", "#21918c", "#1fa088", "#28ae80", "#3fbc73",
		"#5ec962", "#84d44b", "#addc30", "#d8e219", "#fde725",
	},
	"inferno": {
		"#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60",
		"#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4",
	},
	"gray": {"#000000", "#ffffff"},
}

// DefaultScale is the scale used when none is requested
const DefaultScale = "viridis"

// LookupScale returns the named scale; empty selects DefaultScale
func LookupScale(name string) (Scale, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultScale
	}
	hex, ok := scales[name]
	if !ok {
		return Scale{}, fmt.Errorf("%w: %q", ErrUnknownScale, name)
	}

	stops := make([]color.RGBA, len(hex))
	for i, h := range hex {
		c, err := ParseHex(h)
		if err != nil {
			return Scale{}, err
		}
		stops[i] = c
	}
	return Scale{Name: name, stops: stops}, nil
}

// ScaleNames lists the registered scales
func ScaleNames() []string {
	names := make([]string, 0, len(scales))
	for n := range scales {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// At returns the color of t, clamped into [0, 1]
func (s Scale) At(t float64) color.RGBA {
	if len(s.stops) == 0 {
		return color.RGBA{A: 255}
	}
	if math.IsNaN(t) || t <= 0 {
		return s.stops[0]
	}
	if t >= 1 {
		return s.stops[len(s.stops)-1]
	}

	pos := t * float64(len(s.stops)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := s.stops[i], s.stops[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 255,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// ParseHex parses "#RRGGBB"
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Hex formats c as "#rrggbb"
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
