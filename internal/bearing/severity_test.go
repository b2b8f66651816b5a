package bearing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spectrum returns 1 Hz bins from 0 to 200 with a flat floor and sharp
// peaks at the given frequencies
func spectrum(peaks ...int) ([]float64, []float64) {
	freqs := make([]float64, 201)
	profile := make([]float64, 201)
	for i := range freqs {
		freqs[i] = float64(i)
		profile[i] = 0.01
	}
	for _, p := range peaks {
		profile[p] = 1
	}
	return freqs, profile
}

func TestFindPeaks(t *testing.T) {
	freqs, profile := spectrum(50, 120)

	peaks, err := FindPeaks(freqs, profile, 2)
	require.NoError(t, err)
	require.Len(t, peaks, 2)
	assert.Equal(t, Peak{Frequency: 50, Magnitude: 1}, peaks[0])
	assert.Equal(t, 120.0, peaks[1].Frequency)
}

func TestFindPeaks_PlateauCountsOnce(t *testing.T) {
	freqs, profile := spectrum()
	profile[80], profile[81] = 1, 1

	peaks, err := FindPeaks(freqs, profile, 2)
	require.NoError(t, err)
	require.Len(t, peaks, 1)
	assert.Equal(t, 80.0, peaks[0].Frequency)
}

func TestFindPeaks_FlatSpectrum(t *testing.T) {
	freqs, profile := spectrum()

	peaks, err := FindPeaks(freqs, profile, 0)
	require.NoError(t, err)
	assert.Empty(t, peaks)
}

func TestFindPeaks_LengthMismatch(t *testing.T) {
	_, err := FindPeaks([]float64{1, 2}, []float64{1}, 2)
	assert.Error(t, err)
}

func TestGrade(t *testing.T) {
	freqs, profile := spectrum(100, 150)
	set := Set{
		{Kind: Fundamental, Value: 100.4, Color: Fundamental.Color()},
		{Kind: FTF, Value: 151.5, Color: FTF.Color()},
		{Kind: CageInner, Value: 20, Color: CageInner.Color()},
		{Kind: BSF, Value: 250, Color: BSF.Color()},
	}

	graded, err := set.Grade(freqs, profile, 1, 2)
	require.NoError(t, err)
	require.Len(t, graded, 4)

	assert.Equal(t, SeverityAlert, graded[0].Severity)
	assert.Equal(t, 100.0, graded[0].NearestPeak)
	assert.Equal(t, "#D62728", graded[0].DisplayColor())

	assert.Equal(t, SeverityWarning, graded[1].Severity)
	assert.Equal(t, 150.0, graded[1].NearestPeak)

	assert.Equal(t, SeverityNormal, graded[2].Severity)
	assert.Equal(t, 100.0, graded[2].NearestPeak)

	assert.Equal(t, SeverityOutOfRange, graded[3].Severity)
	assert.Zero(t, graded[3].NearestPeak)
	assert.Equal(t, "#7F7F7F", graded[3].DisplayColor())

	// the input set is left ungraded
	assert.Equal(t, SeverityNone, set[0].Severity)
	assert.Equal(t, Fundamental.Color(), set[0].DisplayColor())
}

func TestGrade_NoPeaks(t *testing.T) {
	freqs, profile := spectrum()
	set, err := Calculate(DefaultGeometry())
	require.NoError(t, err)

	graded, err := set.Grade(freqs, profile, 1, 2)
	require.NoError(t, err)
	for _, f := range graded {
		assert.Equal(t, SeverityNormal, f.Severity, f.Kind)
	}
}

func TestGrade_InvalidTolerance(t *testing.T) {
	freqs, profile := spectrum(100)
	set, err := Calculate(DefaultGeometry())
	require.NoError(t, err)

	for _, tol := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := set.Grade(freqs, profile, tol, 2)
		assert.ErrorIs(t, err, ErrInvalidTolerance, tol)
	}
}
