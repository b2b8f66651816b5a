package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RMahshie/fiberscope/internal/repository"
	"github.com/RMahshie/fiberscope/pkg/models"
	"github.com/google/uuid"
)

//go:embed schema.sql
var schema string

// PostgresViewSessionRepository implements ViewSessionRepository for PostgreSQL
type PostgresViewSessionRepository struct {
	db *sql.DB
}

// NewPostgresViewSessionRepository creates a new PostgreSQL session repository
func NewPostgresViewSessionRepository(db *sql.DB) *PostgresViewSessionRepository {
	return &PostgresViewSessionRepository{db: db}
}

// Migrate creates the session tables if they do not exist
func (r *PostgresViewSessionRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Create inserts a new session and its ranges
func (r *PostgresViewSessionRepository) Create(ctx context.Context, session *models.ViewSession) error {
	geometry, err := json.Marshal(session.Geometry)
	if err != nil {
		return fmt.Errorf("failed to marshal geometry: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO view_sessions (id, geometry, tolerance_hz, color_scale, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := tx.ExecContext(ctx, query,
		session.ID,
		string(geometry),
		session.ToleranceHz,
		session.ColorScale,
		session.CreatedAt,
		session.UpdatedAt); err != nil {
		return err
	}

	for fiberID, rng := range session.Ranges {
		if err := upsertRange(ctx, tx, session.ID, fiberID, rng); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a session with all its ranges
func (r *PostgresViewSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ViewSession, error) {
	query := `
		SELECT id, geometry, tolerance_hz, color_scale, created_at, updated_at
		FROM view_sessions
		WHERE id = $1`

	var session models.ViewSession
	var geometry string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&geometry,
		&session.ToleranceHz,
		&session.ColorScale,
		&session.CreatedAt,
		&session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(geometry), &session.Geometry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal geometry: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT fiber_id, min_magnitude, max_magnitude
		FROM fiber_ranges
		WHERE session_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	session.Ranges = make(map[string]models.MagnitudeRange)
	for rows.Next() {
		var fiberID string
		var rng models.MagnitudeRange
		if err := rows.Scan(&fiberID, &rng.Min, &rng.Max); err != nil {
			return nil, err
		}
		session.Ranges[fiberID] = rng
	}

	return &session, rows.Err()
}

// UpdateGeometry replaces the bearing geometry of a session
func (r *PostgresViewSessionRepository) UpdateGeometry(ctx context.Context, id uuid.UUID, geometry models.BearingGeometry) error {
	data, err := json.Marshal(geometry)
	if err != nil {
		return fmt.Errorf("failed to marshal geometry: %w", err)
	}

	query := `
		UPDATE view_sessions
		SET geometry = $1, updated_at = NOW()
		WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, string(data), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// UpdateDisplay changes color scale and tolerance band
func (r *PostgresViewSessionRepository) UpdateDisplay(ctx context.Context, id uuid.UUID, colorScale string, toleranceHz float64) error {
	query := `
		UPDATE view_sessions
		SET color_scale = $1, tolerance_hz = $2, updated_at = NOW()
		WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, colorScale, toleranceHz, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// SetRange stores the magnitude range of one fiber
func (r *PostgresViewSessionRepository) SetRange(ctx context.Context, id uuid.UUID, fiberID string, rng models.MagnitudeRange) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE view_sessions SET updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := expectRow(res); err != nil {
		return err
	}

	if err := upsertRange(ctx, tx, id.String(), fiberID, rng); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertRange(ctx context.Context, tx *sql.Tx, sessionID, fiberID string, rng models.MagnitudeRange) error {
	query := `
		INSERT INTO fiber_ranges (session_id, fiber_id, min_magnitude, max_magnitude, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (session_id, fiber_id)
		DO UPDATE SET min_magnitude = EXCLUDED.min_magnitude, max_magnitude = EXCLUDED.max_magnitude, updated_at = NOW()`

	_, err := tx.ExecContext(ctx, query, sessionID, fiberID, rng.Min, rng.Max)
	return err
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.ViewSessionRepository = (*PostgresViewSessionRepository)(nil)
