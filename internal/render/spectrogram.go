// Package render turns magnitude matrices into color-mapped surfaces,
// PNG images and profile charts.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"time"
)

var (
	// ErrInvalidRange is returned when a clamp range has min >= max
	ErrInvalidRange = errors.New("invalid magnitude range")
	// ErrShapeMismatch is returned when matrix and axes disagree
	ErrShapeMismatch = errors.New("matrix does not match axes")
)

// Range is a magnitude clamp interval
type Range struct {
	Min float64
	Max float64
}

// Validate rejects non-finite bounds and min >= max
func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("%w: bounds must be finite", ErrInvalidRange)
	}
	if r.Min >= r.Max {
		return fmt.Errorf("%w: min %.4g must be less than max %.4g", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// Ticks returns the colorbar ticks at min, midpoint and max
func (r Range) Ticks() []Tick {
	mid := (r.Min + r.Max) / 2
	return []Tick{
		{Value: r.Min, Label: fmt.Sprintf("%.2f", r.Min)},
		{Value: mid, Label: fmt.Sprintf("%.2f", mid)},
		{Value: r.Max, Label: fmt.Sprintf("%.2f", r.Max)},
	}
}

// Tick is one colorbar label
type Tick struct {
	Value float64
	Label string
}

// Clamp limits every magnitude to r
func Clamp(magnitude [][]float64, r Range) ([][]float64, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out := make([][]float64, len(magnitude))
	for i, row := range magnitude {
		o := make([]float64, len(row))
		for j, v := range row {
			o[j] = math.Min(math.Max(v, r.Min), r.Max)
		}
		out[i] = o
	}
	return out, nil
}

// Normalize maps magnitudes linearly into [0, 1] over r. Values below
// r.Min become 0 and values above r.Max become 1.
func Normalize(magnitude [][]float64, r Range) ([][]float64, error) {
	out, err := Clamp(magnitude, r)
	if err != nil {
		return nil, err
	}
	span := r.Max - r.Min
	for _, row := range out {
		for j, v := range row {
			row[j] = (v - r.Min) / span
		}
	}
	return out, nil
}

// Marker is a frequency to draw as a horizontal indicator
type Marker struct {
	Name      string
	Short     string
	Frequency float64
	Color     string
}

// Overlay is a marker placed on the surface
type Overlay struct {
	Marker
	RGBA color.RGBA
	// Row is the frequency bin nearest to Frequency
	Row int
}

// Input collects everything needed to render one spectrogram
type Input struct {
	Magnitude   [][]float64
	Frequencies []float64
	Timestamps  []time.Time
	Range       Range
	Scale       Scale
	Markers     []Marker
}

// Surface is a color-mapped spectrogram. Values and Pixels are indexed
// [frequency bin][time sample], bin 0 being the lowest frequency.
type Surface struct {
	Frequencies []float64
	Timestamps  []time.Time
	Range       Range
	Scale       string
	Values      [][]float64
	Pixels      [][]color.RGBA
	Overlays    []Overlay
	Ticks       []Tick
}

// Rows returns the number of frequency bins
func (s *Surface) Rows() int { return len(s.Pixels) }

// Cols returns the number of time samples
func (s *Surface) Cols() int {
	if len(s.Pixels) == 0 {
		return 0
	}
	return len(s.Pixels[0])
}

// Render builds the surface for in. Markers outside the frequency axis are
// skipped.
func Render(in Input) (*Surface, error) {
	if err := in.Range.Validate(); err != nil {
		return nil, err
	}
	if len(in.Magnitude) != len(in.Frequencies) {
		return nil, fmt.Errorf("%w: %d rows for %d frequencies", ErrShapeMismatch, len(in.Magnitude), len(in.Frequencies))
	}
	for i, row := range in.Magnitude {
		if len(row) != len(in.Timestamps) {
			return nil, fmt.Errorf("%w: row %d has %d columns for %d timestamps", ErrShapeMismatch, i, len(row), len(in.Timestamps))
		}
	}

	scale := in.Scale
	if len(scale.stops) == 0 {
		s, err := LookupScale(DefaultScale)
		if err != nil {
			return nil, err
		}
		scale = s
	}

	values, err := Normalize(in.Magnitude, in.Range)
	if err != nil {
		return nil, err
	}

	pixels := make([][]color.RGBA, len(values))
	for i, row := range values {
		p := make([]color.RGBA, len(row))
		for j, v := range row {
			p[j] = scale.At(v)
		}
		pixels[i] = p
	}

	overlays, err := placeMarkers(in.Frequencies, in.Markers)
	if err != nil {
		return nil, err
	}

	return &Surface{
		Frequencies: in.Frequencies,
		Timestamps:  in.Timestamps,
		Range:       in.Range,
		Scale:       scale.Name,
		Values:      values,
		Pixels:      pixels,
		Overlays:    overlays,
		Ticks:       in.Range.Ticks(),
	}, nil
}

func placeMarkers(frequencies []float64, markers []Marker) ([]Overlay, error) {
	if len(frequencies) == 0 {
		return nil, nil
	}
	lo, hi := frequencies[0], frequencies[len(frequencies)-1]

	var overlays []Overlay
	for _, m := range markers {
		if m.Frequency < lo || m.Frequency > hi {
			continue
		}
		rgba, err := ParseHex(m.Color)
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", m.Name, err)
		}
		overlays = append(overlays, Overlay{Marker: m, RGBA: rgba, Row: nearestBin(frequencies, m.Frequency)})
	}
	return overlays, nil
}

// nearestBin returns the index of the bin closest to f in a sorted axis
func nearestBin(frequencies []float64, f float64) int {
	i := sort.SearchFloat64s(frequencies, f)
	if i == 0 {
		return 0
	}
	if i == len(frequencies) {
		return len(frequencies) - 1
	}
	if f-frequencies[i-1] <= frequencies[i]-f {
		return i - 1
	}
	return i
}
