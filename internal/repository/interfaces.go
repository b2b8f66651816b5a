package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/fiberscope/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist
var ErrNotFound = errors.New("session not found")

// ViewSessionRepository defines the interface for dashboard session state
type ViewSessionRepository interface {
	Create(ctx context.Context, session *models.ViewSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ViewSession, error)
	UpdateGeometry(ctx context.Context, id uuid.UUID, geometry models.BearingGeometry) error
	UpdateDisplay(ctx context.Context, id uuid.UUID, colorScale string, toleranceHz float64) error
	SetRange(ctx context.Context, id uuid.UUID, fiberID string, r models.MagnitudeRange) error
}
