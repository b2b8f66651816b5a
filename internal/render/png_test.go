package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImage_Orientation(t *testing.T) {
	in := testInput()
	gray, err := LookupScale("gray")
	require.NoError(t, err)
	in.Scale = gray

	surface, err := Render(in)
	require.NoError(t, err)

	img, err := Image(surface, PNGOptions{CellWidth: 1, CellHeight: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())

	// lowest frequency bin is the bottom row
	assert.Equal(t, surface.Pixels[0][3], img.RGBAAt(3, 2))
	// highest frequency bin is the top row
	assert.Equal(t, surface.Pixels[2][1], img.RGBAAt(1, 0))
}

func TestImage_OverlayLine(t *testing.T) {
	in := testInput()
	in.Markers = []Marker{{Name: "Fundamental", Short: "FR", Frequency: 20, Color: "#FF0000"}}

	surface, err := Render(in)
	require.NoError(t, err)

	img, err := Image(surface, PNGOptions{CellWidth: 3, CellHeight: 4})
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())

	red := color.RGBA{R: 0xff, A: 0xff}
	// row 1 of 3 spans y 4..7, the line sits at its center
	for x := 0; x < 12; x++ {
		assert.Equal(t, red, img.RGBAAt(x, 6))
	}
}

func TestEncodePNG(t *testing.T) {
	in := testInput()
	in.Markers = []Marker{{Name: "Fundamental", Short: "FR", Frequency: 30, Color: "#FF0000"}}
	surface, err := Render(in)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, surface, DefaultPNGOptions()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestImage_EmptySurface(t *testing.T) {
	_, err := Image(&Surface{}, DefaultPNGOptions())
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestProfileChart(t *testing.T) {
	chart := ProfileChart{
		Title:       "Fiber 1_1",
		Frequencies: []float64{10, 20, 30, 40},
		Profile:     []float64{0.1, 0.4, 0.2, 0.3},
		Markers: []Marker{
			{Name: "Fundamental (fr)", Frequency: 16.8, Color: "#FF0000"},
			{Name: "Outside", Frequency: 400, Color: "#00FF00"},
		},
		Width:  320,
		Height: 200,
	}

	var buf bytes.Buffer
	require.NoError(t, chart.EncodePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestProfileChart_FlatProfile(t *testing.T) {
	chart := ProfileChart{Frequencies: []float64{1, 2, 3}, Profile: []float64{0, 0, 0}}

	var buf bytes.Buffer
	require.NoError(t, chart.EncodePNG(&buf))
	assert.NotZero(t, buf.Len())
}

func TestProfileChart_TooShort(t *testing.T) {
	chart := ProfileChart{Frequencies: []float64{1}, Profile: []float64{1}}

	var buf bytes.Buffer
	assert.ErrorIs(t, chart.EncodePNG(&buf), ErrShapeMismatch)
}
