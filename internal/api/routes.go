package api

import (
	"net/http"

	"github.com/RMahshie/fiberscope/internal/api/handlers"
	"github.com/RMahshie/fiberscope/internal/api/site"
	"github.com/RMahshie/fiberscope/internal/dashboard"
	"github.com/RMahshie/fiberscope/internal/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(router chi.Router, api huma.API, svc dashboard.Service, m *metrics.Manager) {
	dashboardHandler := handlers.NewDashboardHandler(svc)

	// Fiber routes
	huma.Register(api, huma.Operation{
		OperationID: "listFibers",
		Method:      http.MethodGet,
		Path:        "/api/fibers",
		Summary:     "List fibers",
		Description: "Returns the loaded fibers and the ones excluded because of missing or inconsistent data",
		Tags:        []string{"Fibers"},
	}, dashboardHandler.ListFibers)

	huma.Register(api, huma.Operation{
		OperationID: "getFiber",
		Method:      http.MethodGet,
		Path:        "/api/fibers/{id}",
		Summary:     "Get fiber",
		Description: "Returns the axes and magnitude summary of one fiber",
		Tags:        []string{"Fibers"},
	}, dashboardHandler.GetFiber)

	huma.Register(api, huma.Operation{
		OperationID: "getSpectrogramImage",
		Method:      http.MethodGet,
		Path:        "/api/fibers/{id}/spectrogram.png",
		Summary:     "Render spectrogram image",
		Description: "Renders the fiber spectrogram with bearing overlays as PNG",
		Tags:        []string{"Fibers"},
	}, dashboardHandler.SpectrogramImage)

	huma.Register(api, huma.Operation{
		OperationID: "getProfileImage",
		Method:      http.MethodGet,
		Path:        "/api/fibers/{id}/profile.png",
		Summary:     "Render spectrum profile",
		Description: "Renders the time-averaged spectrum with bearing frequency markers as PNG",
		Tags:        []string{"Fibers"},
	}, dashboardHandler.ProfileImage)

	// Bearing routes
	huma.Register(api, huma.Operation{
		OperationID: "calculateFrequencies",
		Method:      http.MethodPost,
		Path:        "/api/bearing/frequencies",
		Summary:     "Calculate bearing frequencies",
		Description: "Computes the characteristic fault frequencies of a bearing, optionally graded against a fiber",
		Tags:        []string{"Bearing"},
	}, dashboardHandler.CalculateFrequencies)

	huma.Register(api, huma.Operation{
		OperationID: "listScales",
		Method:      http.MethodGet,
		Path:        "/api/display/scales",
		Summary:     "List color scales",
		Description: "Returns the color scale names accepted by the display settings and image endpoints",
		Tags:        []string{"Display"},
	}, dashboardHandler.ListScales)

	// Session routes
	huma.Register(api, huma.Operation{
		OperationID:   "createSession",
		Method:        http.MethodPost,
		Path:          "/api/sessions",
		Summary:       "Create a view session",
		Description:   "Creates a session holding geometry, color scale and per-fiber ranges",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusCreated,
	}, dashboardHandler.CreateSession)

	huma.Register(api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{id}",
		Summary:     "Get a view session",
		Tags:        []string{"Sessions"},
	}, dashboardHandler.GetSession)

	huma.Register(api, huma.Operation{
		OperationID: "updateGeometry",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{id}/geometry",
		Summary:     "Update bearing geometry",
		Description: "Stores the geometry and reports whether overlays can be drawn with it",
		Tags:        []string{"Sessions"},
	}, dashboardHandler.UpdateGeometry)

	huma.Register(api, huma.Operation{
		OperationID: "updateDisplay",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{id}/display",
		Summary:     "Update display settings",
		Description: "Changes the color scale and peak tolerance of a session",
		Tags:        []string{"Sessions"},
	}, dashboardHandler.UpdateDisplay)

	huma.Register(api, huma.Operation{
		OperationID: "updateRange",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{id}/fibers/{fiber}/range",
		Summary:     "Update magnitude range",
		Description: "Sets the magnitude range of one fiber; an invalid range is rejected and the previous one kept",
		Tags:        []string{"Sessions"},
	}, dashboardHandler.UpdateRange)

	huma.Register(api, huma.Operation{
		OperationID: "renderFiber",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{id}/fibers/{fiber}/render",
		Summary:     "Render fiber",
		Description: "Returns the color-mapped spectrogram, overlays and colorbar of one fiber",
		Tags:        []string{"Sessions"},
	}, dashboardHandler.RenderFiber)

	if m != nil {
		router.Handle("/metrics", m.Handler())
	}
	router.Handle("/*", site.Handler())
}
