// Package bearing computes rolling-element bearing fault frequencies and
// grades them against an observed spectrum.
package bearing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when a bearing parameter is out of domain
var ErrInvalidGeometry = errors.New("invalid bearing geometry")

// SpeedUnit is the unit of Geometry.ShaftSpeed
type SpeedUnit string

const (
	UnitHz  SpeedUnit = "hz"
	UnitRPM SpeedUnit = "rpm"
)

// Geometry describes the shaft speed and bearing dimensions.
// Diameters share one length unit; only their ratio matters.
type Geometry struct {
	ShaftSpeed      float64
	SpeedUnit       SpeedUnit
	Elements        int
	PitchDiameter   float64
	ElementDiameter float64
	// ContactAngle in degrees
	ContactAngle float64
}

// DefaultGeometry returns the calculator defaults of the dashboard
func DefaultGeometry() Geometry {
	return Geometry{
		ShaftSpeed:      16.8,
		SpeedUnit:       UnitHz,
		Elements:        10,
		PitchDiameter:   28.5,
		ElementDiameter: 6.0,
		ContactAngle:    23.4,
	}
}

// ShaftHz returns the shaft rotation frequency in Hz
func (g Geometry) ShaftHz() float64 {
	if g.SpeedUnit == UnitRPM {
		return g.ShaftSpeed / 60
	}
	return g.ShaftSpeed
}

// Validate reports ErrInvalidGeometry for any out of domain value
func (g Geometry) Validate() error {
	switch g.SpeedUnit {
	case UnitHz, UnitRPM, "":
	default:
		return fmt.Errorf("%w: unknown speed unit %q", ErrInvalidGeometry, g.SpeedUnit)
	}

	for _, field := range []struct {
		name  string
		value float64
	}{
		{"shaft speed", g.ShaftSpeed},
		{"pitch diameter", g.PitchDiameter},
		{"rolling element diameter", g.ElementDiameter},
		{"contact angle", g.ContactAngle},
	} {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidGeometry, field.name)
		}
	}

	if g.ShaftSpeed <= 0 {
		return fmt.Errorf("%w: shaft speed must be positive", ErrInvalidGeometry)
	}
	if g.Elements <= 0 {
		return fmt.Errorf("%w: number of rolling elements must be positive", ErrInvalidGeometry)
	}
	if g.PitchDiameter <= 0 || g.ElementDiameter <= 0 {
		return fmt.Errorf("%w: diameters must be positive", ErrInvalidGeometry)
	}
	if g.ElementDiameter >= g.PitchDiameter {
		return fmt.Errorf("%w: rolling element diameter must be smaller than pitch diameter", ErrInvalidGeometry)
	}
	if g.ContactAngle < 0 || g.ContactAngle >= 90 {
		return fmt.Errorf("%w: contact angle must be in [0, 90) degrees", ErrInvalidGeometry)
	}
	return nil
}

// Calculate returns the characteristic frequencies of g in display order
func Calculate(g Geometry) (Set, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	fr := g.ShaftHz()
	ratio := g.ElementDiameter / g.PitchDiameter * math.Cos(g.ContactAngle*math.Pi/180)
	z := float64(g.Elements)

	ftf := fr / 2 * (1 - ratio)
	fci := fr / 2 * (1 + ratio)

	values := map[Kind]float64{
		Fundamental: fr,
		FTF:         ftf,
		CageInner:   fci,
		BPFO:        z * ftf,
		BPFI:        z * fci,
		BSF:         g.PitchDiameter / (2 * g.ElementDiameter) * fr * (1 - ratio*ratio),
	}

	set := make(Set, 0, len(kinds))
	for _, k := range kinds {
		set = append(set, Frequency{
			Kind:  k,
			Name:  k.Label(),
			Value: values[k],
			Color: k.Color(),
		})
	}
	return set, nil
}
