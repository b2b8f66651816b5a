package handlers

import (
	"bytes"
	"context"
	"errors"
	"strconv"

	"github.com/RMahshie/fiberscope/internal/bearing"
	"github.com/RMahshie/fiberscope/internal/dashboard"
	"github.com/RMahshie/fiberscope/internal/fiber"
	"github.com/RMahshie/fiberscope/internal/render"
	"github.com/RMahshie/fiberscope/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DashboardHandler handles fiber, bearing and session HTTP requests
type DashboardHandler struct {
	svc dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// ListFibers returns every loaded fiber and the ones excluded at startup
func (h *DashboardHandler) ListFibers(ctx context.Context, _ *struct{}) (*models.ListFibersResponse, error) {
	summaries, excluded := h.svc.ListFibers(ctx)

	resp := &models.ListFibersResponse{}
	resp.Body.Fibers = make([]models.FiberSummary, 0, len(summaries))
	for _, s := range summaries {
		resp.Body.Fibers = append(resp.Body.Fibers, dashboard.SummaryToModel(s))
	}
	resp.Body.Excluded = make([]models.ExcludedFiber, 0, len(excluded))
	for _, e := range excluded {
		resp.Body.Excluded = append(resp.Body.Excluded, dashboard.ExclusionToModel(e))
	}
	return resp, nil
}

// GetFiber returns one fiber summary
func (h *DashboardHandler) GetFiber(ctx context.Context, req *models.GetFiberRequest) (*models.GetFiberResponse, error) {
	id, err := fiber.ParseID(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid fiber ID", err)
	}

	summary, err := h.svc.Fiber(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &models.GetFiberResponse{Body: dashboard.SummaryToModel(summary)}, nil
}

// CalculateFrequencies computes the characteristic frequencies of a geometry
func (h *DashboardHandler) CalculateFrequencies(ctx context.Context, req *models.CalculateFrequenciesRequest) (*models.CalculateFrequenciesResponse, error) {
	var fiberID *fiber.ID
	if req.Body.FiberID != "" {
		id, err := fiber.ParseID(req.Body.FiberID)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid fiber ID", err)
		}
		fiberID = &id
	}

	set, err := h.svc.Calculate(ctx, dashboard.GeometryFromModel(req.Body.Geometry), fiberID, req.Body.ToleranceHz)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &models.CalculateFrequenciesResponse{}
	resp.Body.Frequencies = dashboard.FrequenciesToModel(set)
	return resp, nil
}

// CreateSession starts a view session with default settings
func (h *DashboardHandler) CreateSession(ctx context.Context, _ *struct{}) (*models.CreateSessionResponse, error) {
	session, err := h.svc.CreateSession(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create session", err)
	}
	return &models.CreateSessionResponse{Body: *session}, nil
}

// GetSession returns a view session
func (h *DashboardHandler) GetSession(ctx context.Context, req *models.GetSessionRequest) (*models.GetSessionResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid session ID", err)
	}

	session, err := h.svc.Session(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &models.GetSessionResponse{Body: *session}, nil
}

// UpdateGeometry replaces the bearing geometry of a session. An out of
// domain geometry is accepted and reported as a disabled overlay.
func (h *DashboardHandler) UpdateGeometry(ctx context.Context, req *models.UpdateGeometryRequest) (*models.UpdateGeometryResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid session ID", err)
	}

	status, err := h.svc.UpdateGeometry(ctx, id, dashboard.GeometryFromModel(req.Body))
	if err != nil {
		return nil, mapError(err)
	}
	return &models.UpdateGeometryResponse{Body: *status}, nil
}

// ListScales returns the registered color scales
func (h *DashboardHandler) ListScales(_ context.Context, _ *struct{}) (*models.ListScalesResponse, error) {
	resp := &models.ListScalesResponse{}
	resp.Body.Scales = render.ScaleNames()
	return resp, nil
}

// UpdateDisplay changes the color scale and tolerance of a session
func (h *DashboardHandler) UpdateDisplay(ctx context.Context, req *models.UpdateDisplayRequest) (*models.UpdateDisplayResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid session ID", err)
	}

	session, err := h.svc.UpdateDisplay(ctx, id, req.Body.ColorScale, req.Body.ToleranceHz)
	if err != nil {
		return nil, mapError(err)
	}
	return &models.UpdateDisplayResponse{Body: *session}, nil
}

// UpdateRange sets the magnitude range of one fiber
func (h *DashboardHandler) UpdateRange(ctx context.Context, req *models.UpdateRangeRequest) (*models.UpdateRangeResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid session ID", err)
	}
	fiberID, err := fiber.ParseID(req.Fiber)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid fiber ID", err)
	}

	r, err := h.svc.UpdateRange(ctx, id, fiberID, render.Range{Min: req.Body.Min, Max: req.Body.Max})
	if err != nil {
		if errors.Is(err, render.ErrInvalidRange) {
			return nil, huma.Error422UnprocessableEntity(
				"Invalid magnitude range, keeping "+strconv.FormatFloat(r.Min, 'g', -1, 64)+" to "+strconv.FormatFloat(r.Max, 'g', -1, 64),
				err)
		}
		return nil, mapError(err)
	}
	return &models.UpdateRangeResponse{Body: models.MagnitudeRange{Min: r.Min, Max: r.Max}}, nil
}

// RenderFiber renders one fiber with the state of a session
func (h *DashboardHandler) RenderFiber(ctx context.Context, req *models.RenderRequest) (*models.RenderResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid session ID", err)
	}
	fiberID, err := fiber.ParseID(req.Fiber)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid fiber ID", err)
	}

	res, err := h.svc.Render(ctx, dashboard.RenderRequest{FiberID: fiberID, SessionID: id})
	if err != nil {
		return nil, mapError(err)
	}
	return &models.RenderResponse{Body: dashboard.SurfaceToModel(res)}, nil
}

// SpectrogramImage renders a fiber spectrogram as PNG
func (h *DashboardHandler) SpectrogramImage(ctx context.Context, req *models.ImageRequest) (*models.ImageResponse, error) {
	rr, err := imageRequest(req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := h.svc.RenderPNG(ctx, &buf, rr); err != nil {
		return nil, mapError(err)
	}
	return &models.ImageResponse{ContentType: "image/png", Body: buf.Bytes()}, nil
}

// ProfileImage renders the mean spectrum of a fiber with marker lines
func (h *DashboardHandler) ProfileImage(ctx context.Context, req *models.ImageRequest) (*models.ImageResponse, error) {
	rr, err := imageRequest(req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := h.svc.RenderProfile(ctx, &buf, rr); err != nil {
		return nil, mapError(err)
	}
	return &models.ImageResponse{ContentType: "image/png", Body: buf.Bytes()}, nil
}

// imageRequest parses query overrides. min and max must be given together.
func imageRequest(req *models.ImageRequest) (dashboard.RenderRequest, error) {
	var rr dashboard.RenderRequest

	id, err := fiber.ParseID(req.ID)
	if err != nil {
		return rr, huma.Error400BadRequest("Invalid fiber ID", err)
	}
	rr.FiberID = id

	if req.Session != "" {
		sid, err := uuid.Parse(req.Session)
		if err != nil {
			return rr, huma.Error400BadRequest("Invalid session ID", err)
		}
		rr.SessionID = sid
	}

	if (req.Min == "") != (req.Max == "") {
		return rr, huma.Error400BadRequest("min and max must be set together")
	}
	if req.Min != "" {
		lo, err := strconv.ParseFloat(req.Min, 64)
		if err != nil {
			return rr, huma.Error400BadRequest("Invalid min", err)
		}
		hi, err := strconv.ParseFloat(req.Max, 64)
		if err != nil {
			return rr, huma.Error400BadRequest("Invalid max", err)
		}
		rr.Range = &render.Range{Min: lo, Max: hi}
	}
	rr.Scale = req.Scale
	return rr, nil
}

// mapError translates service errors into HTTP errors
func mapError(err error) error {
	switch {
	case errors.Is(err, dashboard.ErrFiberNotFound):
		return huma.Error404NotFound("Fiber not found", err)
	case errors.Is(err, dashboard.ErrSessionNotFound):
		return huma.Error404NotFound("Session not found", err)
	case errors.Is(err, render.ErrInvalidRange):
		return huma.Error422UnprocessableEntity("Invalid magnitude range", err)
	case errors.Is(err, bearing.ErrInvalidGeometry):
		return huma.Error422UnprocessableEntity("Invalid bearing geometry", err)
	case errors.Is(err, bearing.ErrInvalidTolerance):
		return huma.Error422UnprocessableEntity("Invalid tolerance", err)
	case errors.Is(err, render.ErrUnknownScale):
		return huma.Error422UnprocessableEntity("Unknown color scale", err)
	default:
		log.Error().Err(err).Msg("Dashboard request failed")
		return huma.Error500InternalServerError("Internal error", err)
	}
}
