package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prode/models"
)

var (
	ErrStageNotFound     = errors.New("stage not found")
	ErrStageSlugConflict = errors.New("stage slug conflict")
)

type StageRepository interface {
	Create(ctx context.Context, stage *models.Stage) error
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	GetBySlug(ctx context.Context, slug string) (*models.Stage, error)
	List(ctx context.Context, publicOnly bool) ([]models.Stage, error)
	Update(ctx context.Context, stage *models.Stage) error
	Delete(ctx context.Context, id int) error
	// ListExpiredBetByUser returns stages already past their deadline on
	// whose matches the user placed at least one bet.
	ListExpiredBetByUser(ctx context.Context, userID int, now time.Time) ([]models.Stage, error)
	// ListClosedBetween returns public stages whose deadline falls in (from, to].
	ListClosedBetween(ctx context.Context, from, to time.Time) ([]models.Stage, error)
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

const stageColumns = `s.id, s.name, s.slug, s.deadline, s.public, s.created_at`

func (r *postgresStageRepository) Create(ctx context.Context, stage *models.Stage) error {
	query := `
		INSERT INTO stages (name, slug, deadline, public)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, stage.Name, stage.Slug, stage.Deadline, stage.Public).
		Scan(&stage.ID, &stage.CreatedAt)
	if err != nil {
		if constraint, ok := constraintViolation(err, pqUniqueViolation); ok && constraint == "stages_slug_key" {
			return ErrStageSlugConflict
		}
		return err
	}
	return nil
}

func scanStage(row rowScanner) (*models.Stage, error) {
	var s models.Stage
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Deadline, &s.Public, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages s WHERE s.id = $1`
	return scanStage(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresStageRepository) GetBySlug(ctx context.Context, slug string) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages s WHERE s.slug = $1`
	return scanStage(r.db.QueryRowContext(ctx, query, slug))
}

func (r *postgresStageRepository) queryStages(ctx context.Context, query string, args ...interface{}) ([]models.Stage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]models.Stage, 0)
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *postgresStageRepository) List(ctx context.Context, publicOnly bool) ([]models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages s`
	if publicOnly {
		query += ` WHERE s.public = TRUE`
	}
	query += ` ORDER BY s.created_at ASC, s.id ASC`
	return r.queryStages(ctx, query)
}

func (r *postgresStageRepository) Update(ctx context.Context, stage *models.Stage) error {
	query := `UPDATE stages SET name = $1, slug = $2, deadline = $3, public = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, stage.Name, stage.Slug, stage.Deadline, stage.Public, stage.ID)
	if err != nil {
		if constraint, ok := constraintViolation(err, pqUniqueViolation); ok && constraint == "stages_slug_key" {
			return ErrStageSlugConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

// Delete leaves the stage's matches in place; the FK sets their stage to NULL.
func (r *postgresStageRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

func (r *postgresStageRepository) ListExpiredBetByUser(ctx context.Context, userID int, now time.Time) ([]models.Stage, error) {
	query := `
		SELECT DISTINCT ` + stageColumns + `
		FROM stages s
		JOIN matches m ON m.stage_id = s.id
		JOIN bets b ON b.match_id = m.id
		WHERE s.deadline < $1 AND b.user_id = $2
		ORDER BY s.created_at ASC, s.id ASC`
	stages, err := r.queryStages(ctx, query, now, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired stages for user %d: %w", userID, err)
	}
	return stages, nil
}

func (r *postgresStageRepository) ListClosedBetween(ctx context.Context, from, to time.Time) ([]models.Stage, error) {
	query := `
		SELECT ` + stageColumns + `
		FROM stages s
		WHERE s.public = TRUE AND s.deadline > $1 AND s.deadline <= $2
		ORDER BY s.deadline ASC`
	return r.queryStages(ctx, query, from, to)
}
