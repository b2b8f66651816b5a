package render

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ProfileChart plots mean magnitude against frequency with one vertical
// line per marker inside the frequency axis
type ProfileChart struct {
	Title       string
	Frequencies []float64
	Profile     []float64
	Markers     []Marker
	Width       int
	Height      int
}

// EncodePNG renders the chart as PNG
func (p ProfileChart) EncodePNG(w io.Writer) error {
	if len(p.Frequencies) < 2 || len(p.Frequencies) != len(p.Profile) {
		return fmt.Errorf("%w: profile needs at least two bins matching the axis", ErrShapeMismatch)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range p.Profile {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-12 {
		lo, hi = lo-0.5, hi+0.5
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Mean magnitude",
			XValues: p.Frequencies,
			YValues: p.Profile,
			Style: chart.Style{
				StrokeColor: drawing.ColorBlue,
				StrokeWidth: 1.5,
			},
		},
	}

	overlays, err := placeMarkers(p.Frequencies, p.Markers)
	if err != nil {
		return err
	}
	for _, o := range overlays {
		series = append(series, chart.ContinuousSeries{
			Name:    o.Name,
			XValues: []float64{o.Frequency, o.Frequency},
			YValues: []float64{lo, hi},
			Style: chart.Style{
				StrokeColor:     drawing.Color{R: o.RGBA.R, G: o.RGBA.G, B: o.RGBA.B, A: 255},
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 2},
			},
		})
	}

	width, height := p.Width, p.Height
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 400
	}

	graph := chart.Chart{
		Title:  p.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{Name: "Frequency (Hz)"},
		YAxis: chart.YAxis{
			Name:  "Magnitude",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render profile chart: %w", err)
	}
	return nil
}
