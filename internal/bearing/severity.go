package bearing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTolerance is returned for a non-positive tolerance band
var ErrInvalidTolerance = errors.New("invalid tolerance band")

// Severity grades how close a frequency lies to an observed peak
type Severity string

const (
	SeverityNone       Severity = ""
	SeverityNormal     Severity = "normal"
	SeverityWarning    Severity = "warning"
	SeverityAlert      Severity = "alert"
	SeverityOutOfRange Severity = "out_of_range"
)

var severityColors = map[Severity]string{
	SeverityNormal:     "#2CA02C",
	SeverityWarning:    "#FFBF00",
	SeverityAlert:      "#D62728",
	SeverityOutOfRange: "#7F7F7F",
}

// Color returns the indicator color of s, empty for SeverityNone
func (s Severity) Color() string {
	return severityColors[s]
}

// Peak is a local maximum of a spectrum profile
type Peak struct {
	Frequency float64
	Magnitude float64
}

// FindPeaks returns local maxima of profile whose magnitude exceeds
// mean + sigma*stddev. frequencies and profile must have equal length.
func FindPeaks(frequencies, profile []float64, sigma float64) ([]Peak, error) {
	if len(frequencies) != len(profile) {
		return nil, fmt.Errorf("profile has %d values for %d frequencies", len(profile), len(frequencies))
	}
	n := len(profile)
	if n == 0 {
		return nil, nil
	}

	var mean float64
	for _, v := range profile {
		mean += v
	}
	mean /= float64(n)

	var variance float64
	for _, v := range profile {
		variance += (v - mean) * (v - mean)
	}
	threshold := mean + sigma*math.Sqrt(variance/float64(n))

	var peaks []Peak
	for i, v := range profile {
		if v <= threshold {
			continue
		}
		if i > 0 && profile[i-1] >= v {
			continue
		}
		if i < n-1 && profile[i+1] > v {
			continue
		}
		peaks = append(peaks, Peak{Frequency: frequencies[i], Magnitude: v})
	}
	return peaks, nil
}

// Grade returns a copy of s with severities assigned against the peaks of
// profile. A frequency within tolerance of a peak is an alert, within twice
// the tolerance a warning, otherwise normal. Frequencies outside the
// frequency axis are out of range.
func (s Set) Grade(frequencies, profile []float64, toleranceHz, sigma float64) (Set, error) {
	if !(toleranceHz > 0) || math.IsInf(toleranceHz, 0) {
		return nil, fmt.Errorf("%w: %v Hz", ErrInvalidTolerance, toleranceHz)
	}
	peaks, err := FindPeaks(frequencies, profile, sigma)
	if err != nil {
		return nil, err
	}

	out := make(Set, len(s))
	for i, f := range s {
		if len(frequencies) == 0 || f.Value < frequencies[0] || f.Value > frequencies[len(frequencies)-1] {
			f.Severity = SeverityOutOfRange
			f.NearestPeak = 0
			out[i] = f
			continue
		}

		dist := math.Inf(1)
		f.NearestPeak = 0
		for _, p := range peaks {
			if d := math.Abs(p.Frequency - f.Value); d < dist {
				dist = d
				f.NearestPeak = p.Frequency
			}
		}

		switch {
		case dist <= toleranceHz:
			f.Severity = SeverityAlert
		case dist <= 2*toleranceHz:
			f.Severity = SeverityWarning
		default:
			f.Severity = SeverityNormal
		}
		out[i] = f
	}
	return out, nil
}
