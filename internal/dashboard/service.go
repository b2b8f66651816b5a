package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RMahshie/fiberscope/internal/bearing"
	"github.com/RMahshie/fiberscope/internal/fiber"
	"github.com/RMahshie/fiberscope/internal/metrics"
	"github.com/RMahshie/fiberscope/internal/render"
	"github.com/RMahshie/fiberscope/internal/repository"
	"github.com/RMahshie/fiberscope/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrFiberNotFound is returned for fibers that are not in the catalog
	ErrFiberNotFound = errors.New("fiber not found")
	// ErrSessionNotFound is returned for unknown session ids
	ErrSessionNotFound = errors.New("session not found")
)

// Catalog is the read-only set of loaded fibers
type Catalog interface {
	Get(id fiber.ID) (*fiber.Data, bool)
	IDs() []fiber.ID
	Excluded() []fiber.Exclusion
}

// Defaults are applied to new sessions and sessionless renders
type Defaults struct {
	Geometry    bearing.Geometry
	ToleranceHz float64
	PeakSigma   float64
	ColorScale  string
	Range       render.Range
	PNG         render.PNGOptions
}

// DefaultSettings returns the dashboard defaults: calculator geometry,
// viridis and a [0, 0.5] magnitude range
func DefaultSettings() Defaults {
	return Defaults{
		Geometry:    bearing.DefaultGeometry(),
		ToleranceHz: 1.0,
		PeakSigma:   2.0,
		ColorScale:  render.DefaultScale,
		Range:       render.Range{Min: 0, Max: 0.5},
		PNG:         render.DefaultPNGOptions(),
	}
}

// RenderRequest selects a fiber and the view state to render it with
type RenderRequest struct {
	FiberID fiber.ID
	// SessionID may be uuid.Nil to render with the defaults
	SessionID uuid.UUID
	// Range and Scale override the session when set
	Range *render.Range
	Scale string
}

// Result is a rendered fiber with its overlay state
type Result struct {
	FiberID        fiber.ID
	Surface        *render.Surface
	Frequencies    bearing.Set
	OverlayEnabled bool
	OverlayMessage string
}

// Service wires the catalog, the bearing calculator and the renderer
type Service interface {
	ListFibers(ctx context.Context) ([]fiber.Summary, []fiber.Exclusion)
	Fiber(ctx context.Context, id fiber.ID) (fiber.Summary, error)
	Calculate(ctx context.Context, g bearing.Geometry, fiberID *fiber.ID, toleranceHz float64) (bearing.Set, error)
	CreateSession(ctx context.Context) (*models.ViewSession, error)
	Session(ctx context.Context, id uuid.UUID) (*models.ViewSession, error)
	UpdateGeometry(ctx context.Context, id uuid.UUID, g bearing.Geometry) (*models.OverlayStatus, error)
	UpdateDisplay(ctx context.Context, id uuid.UUID, colorScale string, toleranceHz float64) (*models.ViewSession, error)
	UpdateRange(ctx context.Context, id uuid.UUID, fiberID fiber.ID, r render.Range) (render.Range, error)
	Render(ctx context.Context, req RenderRequest) (*Result, error)
	RenderPNG(ctx context.Context, w io.Writer, req RenderRequest) error
	RenderProfile(ctx context.Context, w io.Writer, req RenderRequest) error
}

type service struct {
	catalog  Catalog
	sessions repository.ViewSessionRepository
	metrics  *metrics.Manager
	defaults Defaults
}

// NewService creates the dashboard service. m may be nil.
func NewService(catalog Catalog, sessions repository.ViewSessionRepository, m *metrics.Manager, defaults Defaults) Service {
	return &service{
		catalog:  catalog,
		sessions: sessions,
		metrics:  m,
		defaults: defaults,
	}
}

func (s *service) ListFibers(_ context.Context) ([]fiber.Summary, []fiber.Exclusion) {
	ids := s.catalog.IDs()
	summaries := make([]fiber.Summary, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.catalog.Get(id); ok {
			summaries = append(summaries, d.Summarize())
		}
	}
	return summaries, s.catalog.Excluded()
}

func (s *service) Fiber(_ context.Context, id fiber.ID) (fiber.Summary, error) {
	d, ok := s.catalog.Get(id)
	if !ok {
		return fiber.Summary{}, fmt.Errorf("%w: %s", ErrFiberNotFound, id)
	}
	return d.Summarize(), nil
}

// Calculate computes the frequency set of g. With a fiber id the set is
// graded against that fiber's spectrum profile.
func (s *service) Calculate(_ context.Context, g bearing.Geometry, fiberID *fiber.ID, toleranceHz float64) (bearing.Set, error) {
	set, err := bearing.Calculate(g)
	if err != nil {
		s.metrics.RecordRejected("invalid_geometry")
		return nil, err
	}
	if fiberID == nil {
		return set, nil
	}

	d, ok := s.catalog.Get(*fiberID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFiberNotFound, fiberID)
	}
	if toleranceHz == 0 {
		toleranceHz = s.defaults.ToleranceHz
	}
	return set.Grade(d.Frequencies, d.Profile(), toleranceHz, s.defaults.PeakSigma)
}

func (s *service) CreateSession(ctx context.Context) (*models.ViewSession, error) {
	now := time.Now()
	session := &models.ViewSession{
		ID:          uuid.New().String(),
		Geometry:    GeometryToModel(s.defaults.Geometry),
		ToleranceHz: s.defaults.ToleranceHz,
		ColorScale:  s.defaults.ColorScale,
		Ranges:      make(map[string]models.MagnitudeRange),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, id := range s.catalog.IDs() {
		session.Ranges[id.String()] = models.MagnitudeRange{Min: s.defaults.Range.Min, Max: s.defaults.Range.Max}
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Info().Str("sessionID", session.ID).Msg("Created view session")
	return session, nil
}

func (s *service) Session(ctx context.Context, id uuid.UUID) (*models.ViewSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, err
}

// UpdateGeometry stores g even when it is out of domain. An invalid
// geometry disables the overlay instead of failing the request.
func (s *service) UpdateGeometry(ctx context.Context, id uuid.UUID, g bearing.Geometry) (*models.OverlayStatus, error) {
	if err := s.sessions.UpdateGeometry(ctx, id, GeometryToModel(g)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}

	set, err := bearing.Calculate(g)
	if err != nil {
		s.metrics.RecordRejected("invalid_geometry")
		log.Info().Err(err).Str("sessionID", id.String()).Msg("Bearing overlay disabled")
		return &models.OverlayStatus{OverlayEnabled: false, Message: err.Error()}, nil
	}
	return &models.OverlayStatus{OverlayEnabled: true, Frequencies: FrequenciesToModel(set)}, nil
}

func (s *service) UpdateDisplay(ctx context.Context, id uuid.UUID, colorScale string, toleranceHz float64) (*models.ViewSession, error) {
	scale, err := render.LookupScale(colorScale)
	if err != nil {
		s.metrics.RecordRejected("unknown_scale")
		return nil, err
	}
	if !(toleranceHz > 0) {
		s.metrics.RecordRejected("invalid_tolerance")
		return nil, fmt.Errorf("%w: %v Hz", bearing.ErrInvalidTolerance, toleranceHz)
	}

	if err := s.sessions.UpdateDisplay(ctx, id, scale.Name, toleranceHz); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}
	return s.Session(ctx, id)
}

// UpdateRange validates r and stores it for fiberID. On rejection the
// previous valid range is returned together with the error and nothing is
// stored.
func (s *service) UpdateRange(ctx context.Context, id uuid.UUID, fiberID fiber.ID, r render.Range) (render.Range, error) {
	if _, ok := s.catalog.Get(fiberID); !ok {
		return render.Range{}, fmt.Errorf("%w: %s", ErrFiberNotFound, fiberID)
	}
	session, err := s.Session(ctx, id)
	if err != nil {
		return render.Range{}, err
	}
	prior := s.rangeFor(session, fiberID)

	if err := r.Validate(); err != nil {
		s.metrics.RecordRejected("invalid_range")
		log.Info().Err(err).Str("sessionID", id.String()).Str("fiberID", fiberID.String()).Msg("Rejected magnitude range")
		return prior, err
	}

	if err := s.sessions.SetRange(ctx, id, fiberID.String(), models.MagnitudeRange{Min: r.Min, Max: r.Max}); err != nil {
		return prior, err
	}
	return r, nil
}

func (s *service) Render(ctx context.Context, req RenderRequest) (*Result, error) {
	start := time.Now()
	res, err := s.render(ctx, req)
	s.metrics.RecordRender("surface", time.Since(start), err)
	return res, err
}

func (s *service) RenderPNG(ctx context.Context, w io.Writer, req RenderRequest) error {
	start := time.Now()
	err := func() error {
		res, err := s.render(ctx, req)
		if err != nil {
			return err
		}
		return render.EncodePNG(w, res.Surface, s.defaults.PNG)
	}()
	s.metrics.RecordRender("png", time.Since(start), err)
	return err
}

func (s *service) RenderProfile(ctx context.Context, w io.Writer, req RenderRequest) error {
	start := time.Now()
	err := func() error {
		d, ok := s.catalog.Get(req.FiberID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrFiberNotFound, req.FiberID)
		}
		v, err := s.view(ctx, req)
		if err != nil {
			return err
		}
		set, _, _ := s.overlay(d, v)
		chart := render.ProfileChart{
			Title:       "Fiber " + d.ID.String(),
			Frequencies: d.Frequencies,
			Profile:     d.Profile(),
			Markers:     markers(set),
		}
		return chart.EncodePNG(w)
	}()
	s.metrics.RecordRender("profile", time.Since(start), err)
	return err
}

// view is the resolved state a render uses
type view struct {
	geometry    bearing.Geometry
	toleranceHz float64
	scale       string
	rng         render.Range
}

func (s *service) view(ctx context.Context, req RenderRequest) (view, error) {
	v := view{
		geometry:    s.defaults.Geometry,
		toleranceHz: s.defaults.ToleranceHz,
		scale:       s.defaults.ColorScale,
		rng:         s.defaults.Range,
	}

	if req.SessionID != uuid.Nil {
		session, err := s.Session(ctx, req.SessionID)
		if err != nil {
			return view{}, err
		}
		v.geometry = GeometryFromModel(session.Geometry)
		v.toleranceHz = session.ToleranceHz
		v.scale = session.ColorScale
		v.rng = s.rangeFor(session, req.FiberID)
	}

	if req.Range != nil {
		v.rng = *req.Range
	}
	if req.Scale != "" {
		v.scale = req.Scale
	}
	return v, nil
}

// overlay computes and grades the frequency set. A failure disables the
// overlay and is reported through the message.
func (s *service) overlay(d *fiber.Data, v view) (bearing.Set, bool, string) {
	set, err := bearing.Calculate(v.geometry)
	if err != nil {
		return nil, false, err.Error()
	}
	graded, err := set.Grade(d.Frequencies, d.Profile(), v.toleranceHz, s.defaults.PeakSigma)
	if err != nil {
		log.Warn().Err(err).Str("fiberID", d.ID.String()).Msg("Severity grading skipped")
		return set, true, ""
	}
	return graded, true, ""
}

func (s *service) render(ctx context.Context, req RenderRequest) (*Result, error) {
	d, ok := s.catalog.Get(req.FiberID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFiberNotFound, req.FiberID)
	}

	v, err := s.view(ctx, req)
	if err != nil {
		return nil, err
	}

	scale, err := render.LookupScale(v.scale)
	if err != nil {
		return nil, err
	}

	set, enabled, message := s.overlay(d, v)

	surface, err := render.Render(render.Input{
		Magnitude:   d.Magnitude,
		Frequencies: d.Frequencies,
		Timestamps:  d.Timestamps,
		Range:       v.rng,
		Scale:       scale,
		Markers:     markers(set),
	})
	if err != nil {
		if errors.Is(err, render.ErrInvalidRange) {
			s.metrics.RecordRejected("invalid_range")
		}
		return nil, err
	}

	return &Result{
		FiberID:        d.ID,
		Surface:        surface,
		Frequencies:    set,
		OverlayEnabled: enabled,
		OverlayMessage: message,
	}, nil
}

func (s *service) rangeFor(session *models.ViewSession, id fiber.ID) render.Range {
	if r, ok := session.Ranges[id.String()]; ok {
		return render.Range{Min: r.Min, Max: r.Max}
	}
	return s.defaults.Range
}
