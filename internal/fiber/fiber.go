package fiber

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissingData is returned when an array file is absent or unreadable
	ErrMissingData = errors.New("missing fiber data")
	// ErrShapeMismatch is returned when the arrays of a fiber disagree in size
	ErrShapeMismatch = errors.New("fiber data shape mismatch")
	// ErrInvalidID is returned for malformed fiber identifiers
	ErrInvalidID = errors.New("invalid fiber id")
)

// ID identifies a fiber by its group and number
type ID struct {
	Group  int `json:"group"`
	Number int `json:"number"`
}

// String returns the short form "X_Y"
func (id ID) String() string {
	return fmt.Sprintf("%d_%d", id.Group, id.Number)
}

// FileStem returns the file name prefix "fiber_X_Y"
func (id ID) FileStem() string {
	return "fiber_" + id.String()
}

// Less orders ids by group, then number
func (id ID) Less(other ID) bool {
	if id.Group != other.Group {
		return id.Group < other.Group
	}
	return id.Number < other.Number
}

// ParseID accepts "X_Y" or "fiber_X_Y"
func ParseID(s string) (ID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "fiber_")
	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	group, err := strconv.Atoi(parts[0])
	if err != nil || group < 0 {
		return ID{}, fmt.Errorf("%w: bad group in %q", ErrInvalidID, s)
	}
	number, err := strconv.Atoi(parts[1])
	if err != nil || number < 0 {
		return ID{}, fmt.Errorf("%w: bad number in %q", ErrInvalidID, s)
	}

	return ID{Group: group, Number: number}, nil
}

// Data holds the spectrogram arrays of one fiber.
// Magnitude is indexed [frequency bin][time sample].
type Data struct {
	ID          ID
	Timestamps  []time.Time
	Frequencies []float64
	Magnitude   [][]float64
}

// Validate checks ordering and shape invariants
func (d *Data) Validate() error {
	if len(d.Frequencies) == 0 {
		return fmt.Errorf("%w: %s has no frequency bins", ErrShapeMismatch, d.ID)
	}
	if len(d.Timestamps) == 0 {
		return fmt.Errorf("%w: %s has no timestamps", ErrShapeMismatch, d.ID)
	}

	for i := 1; i < len(d.Frequencies); i++ {
		if !(d.Frequencies[i] > d.Frequencies[i-1]) {
			return fmt.Errorf("%w: %s frequencies not strictly increasing at %d", ErrShapeMismatch, d.ID, i)
		}
	}
	for i := 1; i < len(d.Timestamps); i++ {
		if !d.Timestamps[i].After(d.Timestamps[i-1]) {
			return fmt.Errorf("%w: %s timestamps not strictly increasing at %d", ErrShapeMismatch, d.ID, i)
		}
	}

	if len(d.Magnitude) != len(d.Frequencies) {
		return fmt.Errorf("%w: %s matrix has %d rows, expected %d", ErrShapeMismatch, d.ID, len(d.Magnitude), len(d.Frequencies))
	}
	for i, row := range d.Magnitude {
		if len(row) != len(d.Timestamps) {
			return fmt.Errorf("%w: %s matrix row %d has %d columns, expected %d", ErrShapeMismatch, d.ID, i, len(row), len(d.Timestamps))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: %s magnitude[%d][%d]=%v is not a finite non-negative value", ErrShapeMismatch, d.ID, i, j, v)
			}
		}
	}

	return nil
}

// Profile returns the mean magnitude of every frequency bin over time
func (d *Data) Profile() []float64 {
	out := make([]float64, len(d.Magnitude))
	for i, row := range d.Magnitude {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, v := range row {
			sum += v
		}
		out[i] = sum / float64(len(row))
	}
	return out
}

// Summary describes a loaded fiber without its matrix
type Summary struct {
	ID            ID
	FrequencyBins int
	TimeSamples   int
	MinFrequency  float64
	MaxFrequency  float64
	Start         time.Time
	End           time.Time
	PeakMagnitude float64
}

// Summarize builds the summary of d
func (d *Data) Summarize() Summary {
	s := Summary{
		ID:            d.ID,
		FrequencyBins: len(d.Frequencies),
		TimeSamples:   len(d.Timestamps),
	}
	if n := len(d.Frequencies); n > 0 {
		s.MinFrequency = d.Frequencies[0]
		s.MaxFrequency = d.Frequencies[n-1]
	}
	if n := len(d.Timestamps); n > 0 {
		s.Start = d.Timestamps[0]
		s.End = d.Timestamps[n-1]
	}
	for _, row := range d.Magnitude {
		for _, v := range row {
			if v > s.PeakMagnitude {
				s.PeakMagnitude = v
			}
		}
	}
	return s
}
