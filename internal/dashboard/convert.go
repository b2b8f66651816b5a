package dashboard

import (
	"strings"

	"github.com/RMahshie/fiberscope/internal/bearing"
	"github.com/RMahshie/fiberscope/internal/fiber"
	"github.com/RMahshie/fiberscope/internal/render"
	"github.com/RMahshie/fiberscope/pkg/models"
)

// GeometryFromModel converts an API geometry
func GeometryFromModel(g models.BearingGeometry) bearing.Geometry {
	unit := bearing.SpeedUnit(strings.ToLower(g.SpeedUnit))
	if unit == "" {
		unit = bearing.UnitHz
	}
	return bearing.Geometry{
		ShaftSpeed:      g.ShaftSpeed,
		SpeedUnit:       unit,
		Elements:        g.Elements,
		PitchDiameter:   g.PitchDiameter,
		ElementDiameter: g.ElementDiameter,
		ContactAngle:    g.ContactAngle,
	}
}

// GeometryToModel converts a domain geometry
func GeometryToModel(g bearing.Geometry) models.BearingGeometry {
	return models.BearingGeometry{
		ShaftSpeed:      g.ShaftSpeed,
		SpeedUnit:       string(g.SpeedUnit),
		Elements:        g.Elements,
		PitchDiameter:   g.PitchDiameter,
		ElementDiameter: g.ElementDiameter,
		ContactAngle:    g.ContactAngle,
	}
}

// FrequenciesToModel converts a frequency set
func FrequenciesToModel(set bearing.Set) []models.BearingFrequency {
	out := make([]models.BearingFrequency, 0, len(set))
	for _, f := range set {
		out = append(out, models.BearingFrequency{
			Kind:        string(f.Kind),
			Name:        f.Name,
			Formula:     bearing.Formulas[f.Kind],
			Value:       f.Value,
			Color:       f.DisplayColor(),
			Severity:    string(f.Severity),
			NearestPeak: f.NearestPeak,
		})
	}
	return out
}

// SummaryToModel converts a fiber summary
func SummaryToModel(s fiber.Summary) models.FiberSummary {
	return models.FiberSummary{
		ID:            s.ID.String(),
		Group:         s.ID.Group,
		Number:        s.ID.Number,
		FrequencyBins: s.FrequencyBins,
		TimeSamples:   s.TimeSamples,
		MinFrequency:  s.MinFrequency,
		MaxFrequency:  s.MaxFrequency,
		Start:         s.Start,
		End:           s.End,
		PeakMagnitude: s.PeakMagnitude,
	}
}

// ExclusionToModel converts a load exclusion
func ExclusionToModel(e fiber.Exclusion) models.ExcludedFiber {
	return models.ExcludedFiber{ID: e.ID.String(), Reason: e.Reason, Missing: e.Missing}
}

// SurfaceToModel converts a render result
func SurfaceToModel(res *Result) models.RenderedSurface {
	s := res.Surface
	colors := make([][]string, len(s.Pixels))
	for i, row := range s.Pixels {
		hex := make([]string, len(row))
		for j, c := range row {
			hex[j] = render.Hex(c)
		}
		colors[i] = hex
	}

	overlays := make([]models.OverlayLine, 0, len(s.Overlays))
	for _, o := range s.Overlays {
		overlays = append(overlays, models.OverlayLine{
			Name:      o.Name,
			Short:     o.Short,
			Frequency: o.Frequency,
			Row:       o.Row,
			Color:     render.Hex(o.RGBA),
		})
	}

	ticks := make([]models.ColorbarTick, 0, len(s.Ticks))
	for _, t := range s.Ticks {
		ticks = append(ticks, models.ColorbarTick{Value: t.Value, Label: t.Label})
	}

	return models.RenderedSurface{
		FiberID:     res.FiberID.String(),
		FreqAxis:    s.Frequencies,
		Timestamps:  s.Timestamps,
		Range:       models.MagnitudeRange{Min: s.Range.Min, Max: s.Range.Max},
		ColorScale:  s.Scale,
		Colors:      colors,
		Overlays:    overlays,
		Colorbar:    ticks,
		OverlayStatus: models.OverlayStatus{
			OverlayEnabled: res.OverlayEnabled,
			Message:        res.OverlayMessage,
			Frequencies:    FrequenciesToModel(res.Frequencies),
		},
	}
}

// markers turns a frequency set into overlay markers
func markers(set bearing.Set) []render.Marker {
	out := make([]render.Marker, 0, len(set))
	for _, f := range set {
		out = append(out, render.Marker{
			Name:      f.Name,
			Short:     strings.ToUpper(string(f.Kind)),
			Frequency: f.Value,
			Color:     f.DisplayColor(),
		})
	}
	return out
}
