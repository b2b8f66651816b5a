package fiber

import "time"

// DecimateTime keeps every factor-th time sample. A factor of 1 or less
// returns the inputs unchanged.
func DecimateTime(timestamps []time.Time, magnitude [][]float64, factor int) ([]time.Time, [][]float64) {
	if factor <= 1 {
		return timestamps, magnitude
	}

	n := (len(timestamps) + factor - 1) / factor
	ts := make([]time.Time, 0, n)
	for i := 0; i < len(timestamps); i += factor {
		ts = append(ts, timestamps[i])
	}

	mag := make([][]float64, len(magnitude))
	for f, row := range magnitude {
		out := make([]float64, 0, n)
		for i := 0; i < len(row); i += factor {
			out = append(out, row[i])
		}
		mag[f] = out
	}

	return ts, mag
}

// PoolFrequencies merges every factor adjacent frequency bins into one.
// The merged frequency is the band mean and the merged magnitude is the
// band maximum, so peaks survive. A trailing partial band is dropped.
func PoolFrequencies(frequencies []float64, magnitude [][]float64, factor int) ([]float64, [][]float64) {
	if factor <= 1 {
		return frequencies, magnitude
	}

	bands := len(frequencies) / factor
	freqs := make([]float64, bands)
	mag := make([][]float64, bands)

	for b := 0; b < bands; b++ {
		start := b * factor
		end := start + factor

		var sum float64
		for _, f := range frequencies[start:end] {
			sum += f
		}
		freqs[b] = sum / float64(factor)

		row := append([]float64(nil), magnitude[start]...)
		for _, other := range magnitude[start+1 : end] {
			for t, v := range other {
				if v > row[t] {
					row[t] = v
				}
			}
		}
		mag[b] = row
	}

	return freqs, mag
}
