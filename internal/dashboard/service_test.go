package dashboard

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RMahshie/fiberscope/internal/bearing"
	"github.com/RMahshie/fiberscope/internal/fiber"
	"github.com/RMahshie/fiberscope/internal/metrics"
	"github.com/RMahshie/fiberscope/internal/render"
	"github.com/RMahshie/fiberscope/internal/repository/memory"
	"github.com/RMahshie/fiberscope/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fiberA = fiber.ID{Group: 1, Number: 1}
	fiberB = fiber.ID{Group: 1, Number: 2}
)

// testFiber has 1 Hz bins from 0 to 199 over 5 samples with a strong line
// at the given peak frequency
func testFiber(id fiber.ID, peak int) *fiber.Data {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d := &fiber.Data{ID: id}
	for t := 0; t < 5; t++ {
		d.Timestamps = append(d.Timestamps, start.Add(time.Duration(t)*time.Second))
	}
	for f := 0; f < 200; f++ {
		d.Frequencies = append(d.Frequencies, float64(f))
		row := make([]float64, 5)
		for t := range row {
			row[t] = 0.05
			if f == peak {
				row[t] = 0.9
			}
		}
		d.Magnitude = append(d.Magnitude, row)
	}
	return d
}

func newTestService(t *testing.T) (Service, *memory.ViewSessionRepository) {
	t.Helper()
	// peak on the default BPFO (about 67.77 Hz)
	catalog := fiber.NewCatalog(testFiber(fiberA, 68), testFiber(fiberB, 150))
	repo := memory.NewViewSessionRepository()
	return NewService(catalog, repo, metrics.NewManager(), DefaultSettings()), repo
}

func TestListFibers(t *testing.T) {
	svc, _ := newTestService(t)

	summaries, excluded := svc.ListFibers(context.Background())
	require.Len(t, summaries, 2)
	assert.Equal(t, fiberA, summaries[0].ID)
	assert.Equal(t, 200, summaries[0].FrequencyBins)
	assert.Empty(t, excluded)

	_, err := svc.Fiber(context.Background(), fiber.ID{Group: 9, Number: 9})
	assert.ErrorIs(t, err, ErrFiberNotFound)
}

func TestCalculate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	set, err := svc.Calculate(ctx, bearing.DefaultGeometry(), nil, 0)
	require.NoError(t, err)
	require.Len(t, set, 6)
	assert.Equal(t, bearing.SeverityNone, set[0].Severity)

	graded, err := svc.Calculate(ctx, bearing.DefaultGeometry(), &fiberA, 0)
	require.NoError(t, err)
	bpfo, _ := graded.Get(bearing.BPFO)
	assert.Equal(t, bearing.SeverityAlert, bpfo.Severity)
	assert.Equal(t, 68.0, bpfo.NearestPeak)

	bad := bearing.DefaultGeometry()
	bad.ElementDiameter = 40
	_, err = svc.Calculate(ctx, bad, nil, 0)
	assert.ErrorIs(t, err, bearing.ErrInvalidGeometry)

	missing := fiber.ID{Group: 3, Number: 1}
	_, err = svc.Calculate(ctx, bearing.DefaultGeometry(), &missing, 0)
	assert.ErrorIs(t, err, ErrFiberNotFound)

	_, err = svc.Calculate(ctx, bearing.DefaultGeometry(), &fiberA, -1)
	assert.ErrorIs(t, err, bearing.ErrInvalidTolerance)
}

func TestCreateSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "viridis", session.ColorScale)
	assert.Equal(t, 16.8, session.Geometry.ShaftSpeed)
	assert.Len(t, session.Ranges, 2)
	assert.Equal(t, 0.5, session.Ranges["1_1"].Max)

	got, err := svc.Session(ctx, uuid.MustParse(session.ID))
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = svc.Session(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateRange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(session.ID)

	r, err := svc.UpdateRange(ctx, id, fiberA, render.Range{Min: 0.1, Max: 0.3})
	require.NoError(t, err)
	assert.Equal(t, render.Range{Min: 0.1, Max: 0.3}, r)

	// rejected ranges keep the last valid one
	prior, err := svc.UpdateRange(ctx, id, fiberA, render.Range{Min: 0.3, Max: 0.3})
	assert.ErrorIs(t, err, render.ErrInvalidRange)
	assert.Equal(t, render.Range{Min: 0.1, Max: 0.3}, prior)

	got, err := svc.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0.3, got.Ranges["1_1"].Max)
	assert.Equal(t, 0.5, got.Ranges["1_2"].Max)

	_, err = svc.UpdateRange(ctx, id, fiber.ID{Group: 5, Number: 5}, render.Range{Min: 0, Max: 1})
	assert.ErrorIs(t, err, ErrFiberNotFound)

	_, err = svc.UpdateRange(ctx, uuid.New(), fiberA, render.Range{Min: 0, Max: 1})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateGeometry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(session.ID)

	g := bearing.DefaultGeometry()
	g.ShaftSpeed = 1800
	g.SpeedUnit = bearing.UnitRPM
	status, err := svc.UpdateGeometry(ctx, id, g)
	require.NoError(t, err)
	assert.True(t, status.OverlayEnabled)
	require.Len(t, status.Frequencies, 6)
	assert.InDelta(t, 30, status.Frequencies[0].Value, 1e-9)

	g.Elements = 0
	status, err = svc.UpdateGeometry(ctx, id, g)
	require.NoError(t, err)
	assert.False(t, status.OverlayEnabled)
	assert.Contains(t, status.Message, "rolling elements")

	// the invalid geometry is stored and renders without overlays
	res, err := svc.Render(ctx, RenderRequest{FiberID: fiberA, SessionID: id})
	require.NoError(t, err)
	assert.False(t, res.OverlayEnabled)
	assert.NotEmpty(t, res.OverlayMessage)
	assert.Empty(t, res.Surface.Overlays)

	_, err = svc.UpdateGeometry(ctx, uuid.New(), g)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateDisplay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(session.ID)

	got, err := svc.UpdateDisplay(ctx, id, "Inferno", 2)
	require.NoError(t, err)
	assert.Equal(t, "inferno", got.ColorScale)
	assert.Equal(t, 2.0, got.ToleranceHz)

	_, err = svc.UpdateDisplay(ctx, id, "jet", 2)
	assert.ErrorIs(t, err, render.ErrUnknownScale)

	_, err = svc.UpdateDisplay(ctx, id, "gray", 0)
	assert.ErrorIs(t, err, bearing.ErrInvalidTolerance)

	_, err = svc.UpdateDisplay(ctx, uuid.New(), "gray", 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRender(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(session.ID)

	_, err = svc.UpdateRange(ctx, id, fiberA, render.Range{Min: 0, Max: 0.9})
	require.NoError(t, err)

	res, err := svc.Render(ctx, RenderRequest{FiberID: fiberA, SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, fiberA, res.FiberID)
	assert.True(t, res.OverlayEnabled)
	assert.Equal(t, render.Range{Min: 0, Max: 0.9}, res.Surface.Range)
	assert.Equal(t, 200, res.Surface.Rows())
	assert.Equal(t, 5, res.Surface.Cols())
	// all six default frequencies fall inside 0..199 Hz
	require.Len(t, res.Surface.Overlays, 6)
	assert.Equal(t, "BPFO", res.Surface.Overlays[3].Short)
	assert.Equal(t, 68, res.Surface.Overlays[3].Row)
	assert.Equal(t, "#d62728", render.Hex(res.Surface.Overlays[3].RGBA))

	model := SurfaceToModel(res)
	assert.Equal(t, "1_1", model.FiberID)
	assert.Len(t, model.Colors, 200)
	assert.Len(t, model.Colors[0], 5)
	assert.Equal(t, []string{"0.00", "0.45", "0.90"}, []string{model.Colorbar[0].Label, model.Colorbar[1].Label, model.Colorbar[2].Label})
	assert.Equal(t, "alert", model.Frequencies[3].Severity)
	require.Len(t, model.FreqAxis, 200)
	assert.Equal(t, 199.0, model.FreqAxis[199])
}

func TestRender_BrokenFiberIsIsolated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	w := fiber.NewWriter(store, "")
	require.NoError(t, w.Write(ctx, testFiber(fiberA, 68)))
	require.NoError(t, w.Write(ctx, testFiber(fiberB, 150)))
	require.NoError(t, os.Remove(filepath.Join(dir, w.FileName(fiberB, "magnitude_matrix"))))

	loader := fiber.NewLoader(store, fiber.Options{})
	catalog := loader.LoadCatalog(ctx, []fiber.ID{fiberA, fiberB})
	svc := NewService(catalog, memory.NewViewSessionRepository(), metrics.NewManager(), DefaultSettings())

	summaries, excluded := svc.ListFibers(ctx)
	require.Len(t, summaries, 1)
	assert.Equal(t, fiberA, summaries[0].ID)
	require.Len(t, excluded, 1)
	assert.Equal(t, fiberB, excluded[0].ID)
	assert.True(t, excluded[0].Missing)

	res, err := svc.Render(ctx, RenderRequest{FiberID: fiberA})
	require.NoError(t, err)
	assert.Equal(t, 200, res.Surface.Rows())
	assert.Equal(t, 5, res.Surface.Cols())
	bpfo, _ := res.Frequencies.Get(bearing.BPFO)
	assert.Equal(t, bearing.SeverityAlert, bpfo.Severity)

	_, err = svc.Render(ctx, RenderRequest{FiberID: fiberB})
	assert.ErrorIs(t, err, ErrFiberNotFound)
}

func TestRender_Overrides(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Render(ctx, RenderRequest{
		FiberID: fiberB,
		Range:   &render.Range{Min: 0.1, Max: 0.2},
		Scale:   "gray",
	})
	require.NoError(t, err)
	assert.Equal(t, "gray", res.Surface.Scale)
	assert.Equal(t, render.Range{Min: 0.1, Max: 0.2}, res.Surface.Range)
	assert.Equal(t, "#ffffff", render.Hex(res.Surface.Pixels[150][0]))
	assert.Equal(t, "#000000", render.Hex(res.Surface.Pixels[10][0]))

	_, err = svc.Render(ctx, RenderRequest{FiberID: fiberB, Range: &render.Range{Min: 1, Max: 0}})
	assert.ErrorIs(t, err, render.ErrInvalidRange)

	_, err = svc.Render(ctx, RenderRequest{FiberID: fiberB, Scale: "jet"})
	assert.ErrorIs(t, err, render.ErrUnknownScale)

	_, err = svc.Render(ctx, RenderRequest{FiberID: fiber.ID{Group: 7, Number: 7}})
	assert.ErrorIs(t, err, ErrFiberNotFound)

	_, err = svc.Render(ctx, RenderRequest{FiberID: fiberB, SessionID: uuid.New()})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRenderImages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.RenderPNG(ctx, &buf, RenderRequest{FiberID: fiberA}))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())

	buf.Reset()
	require.NoError(t, svc.RenderProfile(ctx, &buf, RenderRequest{FiberID: fiberA}))
	_, err = png.Decode(&buf)
	require.NoError(t, err)

	buf.Reset()
	err = svc.RenderProfile(ctx, &buf, RenderRequest{FiberID: fiber.ID{Group: 8, Number: 8}})
	assert.ErrorIs(t, err, ErrFiberNotFound)
}

func TestGeometryFromModel(t *testing.T) {
	g := GeometryFromModel(GeometryToModel(bearing.DefaultGeometry()))
	assert.Equal(t, bearing.DefaultGeometry(), g)

	m := GeometryToModel(bearing.DefaultGeometry())
	m.SpeedUnit = "RPM"
	assert.Equal(t, bearing.UnitRPM, GeometryFromModel(m).SpeedUnit)

	m.SpeedUnit = ""
	assert.Equal(t, bearing.UnitHz, GeometryFromModel(m).SpeedUnit)
}
