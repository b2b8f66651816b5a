package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status       string    `json:"status" example:"healthy" doc:"Service health status"`
		Version      string    `json:"version" example:"1.0.0" doc:"API version"`
		Time         time.Time `json:"time" doc:"Current server time"`
		FibersLoaded int       `json:"fibers_loaded" doc:"Number of fibers available for rendering"`
	}
}

// BearingGeometry represents shaft speed and bearing dimensions
type BearingGeometry struct {
	ShaftSpeed      float64 `json:"shaft_speed" example:"16.8" doc:"Shaft rotation speed"`
	SpeedUnit       string  `json:"speed_unit,omitempty" enum:"hz,rpm" doc:"Unit of shaft_speed, defaults to hz"`
	Elements        int     `json:"elements" example:"10" doc:"Number of rolling elements (Z)"`
	PitchDiameter   float64 `json:"pitch_diameter" example:"28.5" doc:"Pitch circle diameter (D) in mm"`
	ElementDiameter float64 `json:"element_diameter" example:"6" doc:"Rolling element diameter (d) in mm"`
	ContactAngle    float64 `json:"contact_angle" example:"23.4" doc:"Contact angle (α) in degrees"`
}

// MagnitudeRange is a magnitude clamp interval
type MagnitudeRange struct {
	Min float64 `json:"min" doc:"Magnitude mapped to the floor color"`
	Max float64 `json:"max" doc:"Magnitude mapped to the ceiling color"`
}

// ViewSession represents the adjustable dashboard state of one viewer
type ViewSession struct {
	ID          string                    `json:"id" doc:"Session unique identifier"`
	Geometry    BearingGeometry           `json:"geometry" doc:"Bearing geometry used for overlays"`
	ToleranceHz float64                   `json:"tolerance_hz" doc:"Peak proximity tolerance band in Hz"`
	ColorScale  string                    `json:"color_scale" doc:"Color scale name"`
	Ranges      map[string]MagnitudeRange `json:"ranges" doc:"Magnitude range per fiber id"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// FiberSummary describes a loaded fiber
type FiberSummary struct {
	ID            string    `json:"id" example:"1_2" doc:"Fiber identifier group_number"`
	Group         int       `json:"group"`
	Number        int       `json:"number"`
	FrequencyBins int       `json:"frequency_bins"`
	TimeSamples   int       `json:"time_samples"`
	MinFrequency  float64   `json:"min_frequency" doc:"Lowest frequency bin in Hz"`
	MaxFrequency  float64   `json:"max_frequency" doc:"Highest frequency bin in Hz"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	PeakMagnitude float64   `json:"peak_magnitude"`
}

// ExcludedFiber describes a fiber that failed to load
type ExcludedFiber struct {
	ID      string `json:"id"`
	Reason  string `json:"reason"`
	Missing bool   `json:"missing" doc:"True when an array file was absent"`
}

// BearingFrequency is one computed characteristic frequency
type BearingFrequency struct {
	Kind        string  `json:"kind" enum:"fr,ftf,fci,bpfo,bpfi,bsf"`
	Name        string  `json:"name"`
	Formula     string  `json:"formula"`
	Value       float64 `json:"value" doc:"Frequency in Hz"`
	Color       string  `json:"color" doc:"Indicator color"`
	Severity    string  `json:"severity,omitempty" enum:"normal,warning,alert,out_of_range"`
	NearestPeak float64 `json:"nearest_peak,omitempty" doc:"Closest detected spectrum peak in Hz"`
}

// ListFibersResponse lists loaded and excluded fibers
type ListFibersResponse struct {
	Body struct {
		Fibers   []FiberSummary  `json:"fibers"`
		Excluded []ExcludedFiber `json:"excluded"`
	}
}

// GetFiberRequest represents a request for one fiber summary
type GetFiberRequest struct {
	ID string `path:"id" doc:"Fiber ID"`
}

// GetFiberResponse returns one fiber summary
type GetFiberResponse struct {
	Body FiberSummary
}

// CalculateFrequenciesRequest computes bearing frequencies
type CalculateFrequenciesRequest struct {
	Body struct {
		Geometry    BearingGeometry `json:"geometry"`
		FiberID     string          `json:"fiber_id,omitempty" doc:"Grade severities against this fiber's spectrum"`
		ToleranceHz float64         `json:"tolerance_hz,omitempty" doc:"Tolerance band, defaults to the server setting"`
	}
}

// CalculateFrequenciesResponse returns bearing frequencies
type CalculateFrequenciesResponse struct {
	Body struct {
		Frequencies []BearingFrequency `json:"frequencies"`
	}
}

// CreateSessionResponse returns a new session
type CreateSessionResponse struct {
	Body ViewSession
}

// GetSessionRequest represents a request for a session
type GetSessionRequest struct {
	ID string `path:"id" doc:"Session ID"`
}

// GetSessionResponse returns a session
type GetSessionResponse struct {
	Body ViewSession
}

// UpdateGeometryRequest replaces the bearing geometry of a session
type UpdateGeometryRequest struct {
	ID   string `path:"id" doc:"Session ID"`
	Body BearingGeometry
}

// OverlayStatus reports whether bearing overlays can be drawn
type OverlayStatus struct {
	OverlayEnabled bool               `json:"overlay_enabled"`
	Message        string             `json:"message,omitempty" doc:"Reason the overlay is disabled"`
	Frequencies    []BearingFrequency `json:"frequencies,omitempty"`
}

// UpdateGeometryResponse reports the overlay state for the new geometry
type UpdateGeometryResponse struct {
	Body OverlayStatus
}

// ListScalesResponse lists the available color scales
type ListScalesResponse struct {
	Body struct {
		Scales []string `json:"scales" doc:"Scale names in alphabetical order"`
	}
}

// UpdateDisplayRequest changes color scale and tolerance of a session
type UpdateDisplayRequest struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		ColorScale  string  `json:"color_scale" doc:"One of the names listed by /api/display/scales"`
		ToleranceHz float64 `json:"tolerance_hz"`
	}
}

// UpdateDisplayResponse returns the updated session
type UpdateDisplayResponse struct {
	Body ViewSession
}

// UpdateRangeRequest sets the magnitude range of one fiber in a session
type UpdateRangeRequest struct {
	ID    string `path:"id" doc:"Session ID"`
	Fiber string `path:"fiber" doc:"Fiber ID"`
	Body  MagnitudeRange
}

// UpdateRangeResponse returns the range now in effect
type UpdateRangeResponse struct {
	Body MagnitudeRange
}

// RenderRequest renders one fiber with the state of a session
type RenderRequest struct {
	ID    string `path:"id" doc:"Session ID"`
	Fiber string `path:"fiber" doc:"Fiber ID"`
}

// OverlayLine is a horizontal indicator on a rendered surface
type OverlayLine struct {
	Name      string  `json:"name"`
	Short     string  `json:"short"`
	Frequency float64 `json:"frequency"`
	Row       int     `json:"row" doc:"Frequency bin index of the line"`
	Color     string  `json:"color"`
}

// ColorbarTick is one colorbar label
type ColorbarTick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// RenderedSurface is a color-mapped spectrogram
type RenderedSurface struct {
	FiberID     string         `json:"fiber_id"`
	FreqAxis    []float64      `json:"frequency_axis" doc:"Frequency bin centers in Hz"`
	Timestamps  []time.Time    `json:"timestamps"`
	Range       MagnitudeRange `json:"range"`
	ColorScale  string         `json:"color_scale"`
	Colors      [][]string     `json:"colors" doc:"Cell colors indexed [frequency][time]"`
	Overlays    []OverlayLine  `json:"overlays"`
	Colorbar    []ColorbarTick `json:"colorbar"`
	OverlayStatus
}

// RenderResponse returns a rendered surface
type RenderResponse struct {
	Body RenderedSurface
}

// ImageRequest renders a fiber as an image
type ImageRequest struct {
	ID      string `path:"id" doc:"Fiber ID"`
	Session string `query:"session" doc:"Session ID providing geometry, range and scale"`
	Min     string `query:"min" doc:"Magnitude range minimum, overrides the session"`
	Max     string `query:"max" doc:"Magnitude range maximum, overrides the session"`
	Scale   string `query:"scale" doc:"Color scale, overrides the session"`
}

// ImageResponse carries PNG bytes
type ImageResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}
