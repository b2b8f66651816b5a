// Package memory keeps dashboard sessions in process memory. It is used
// when no database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/RMahshie/fiberscope/internal/repository"
	"github.com/RMahshie/fiberscope/pkg/models"
	"github.com/google/uuid"
)

// ViewSessionRepository is a concurrency-safe in-memory session store
type ViewSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.ViewSession
}

// NewViewSessionRepository creates an empty store
func NewViewSessionRepository() *ViewSessionRepository {
	return &ViewSessionRepository{sessions: make(map[string]*models.ViewSession)}
}

func (r *ViewSessionRepository) Create(_ context.Context, session *models.ViewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = clone(session)
	return nil
}

func (r *ViewSessionRepository) GetByID(_ context.Context, id uuid.UUID) (*models.ViewSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(s), nil
}

func (r *ViewSessionRepository) UpdateGeometry(_ context.Context, id uuid.UUID, geometry models.BearingGeometry) error {
	return r.update(id, func(s *models.ViewSession) { s.Geometry = geometry })
}

func (r *ViewSessionRepository) UpdateDisplay(_ context.Context, id uuid.UUID, colorScale string, toleranceHz float64) error {
	return r.update(id, func(s *models.ViewSession) {
		s.ColorScale = colorScale
		s.ToleranceHz = toleranceHz
	})
}

func (r *ViewSessionRepository) SetRange(_ context.Context, id uuid.UUID, fiberID string, rng models.MagnitudeRange) error {
	return r.update(id, func(s *models.ViewSession) {
		if s.Ranges == nil {
			s.Ranges = make(map[string]models.MagnitudeRange)
		}
		s.Ranges[fiberID] = rng
	})
}

func (r *ViewSessionRepository) update(id uuid.UUID, fn func(*models.ViewSession)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id.String()]
	if !ok {
		return repository.ErrNotFound
	}
	fn(s)
	s.UpdatedAt = time.Now()
	return nil
}

func clone(s *models.ViewSession) *models.ViewSession {
	out := *s
	out.Ranges = make(map[string]models.MagnitudeRange, len(s.Ranges))
	for k, v := range s.Ranges {
		out.Ranges[k] = v
	}
	return &out
}

var _ repository.ViewSessionRepository = (*ViewSessionRepository)(nil)
