package fiber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimateTime(t *testing.T) {
	ts := timeline(7)
	mag := [][]float64{
		{0, 1, 2, 3, 4, 5, 6},
		{10, 11, 12, 13, 14, 15, 16},
	}

	gotTS, gotMag := DecimateTime(ts, mag, 3)

	assert.Equal(t, []time.Time{ts[0], ts[3], ts[6]}, gotTS)
	assert.Equal(t, [][]float64{{0, 3, 6}, {10, 13, 16}}, gotMag)
}

func TestDecimateTime_NoOp(t *testing.T) {
	ts := timeline(2)
	mag := [][]float64{{1, 2}}

	for _, factor := range []int{-1, 0, 1} {
		gotTS, gotMag := DecimateTime(ts, mag, factor)
		assert.Equal(t, ts, gotTS)
		assert.Equal(t, mag, gotMag)
	}
}

func TestPoolFrequencies(t *testing.T) {
	freqs := []float64{1, 2, 3, 4, 5}
	mag := [][]float64{
		{0.1, 0.9},
		{0.5, 0.2},
		{0.3, 0.3},
		{0.2, 0.8},
		{1.0, 1.0},
	}

	gotFreqs, gotMag := PoolFrequencies(freqs, mag, 2)

	// the fifth bin is a partial band and is dropped
	assert.Equal(t, []float64{1.5, 3.5}, gotFreqs)
	assert.Equal(t, [][]float64{{0.5, 0.9}, {0.3, 0.8}}, gotMag)
	// input rows are not modified
	assert.Equal(t, []float64{0.1, 0.9}, mag[0])
}

func TestPoolFrequencies_PreservesPeak(t *testing.T) {
	freqs := []float64{100, 101, 102, 103}
	mag := [][]float64{{0}, {0}, {7}, {0}}

	_, gotMag := PoolFrequencies(freqs, mag, 4)

	require.Len(t, gotMag, 1)
	assert.Equal(t, 7.0, gotMag[0][0])
}
