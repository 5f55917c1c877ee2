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
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchStageInvalid = errors.New("match stage conflict or invalid")
)

// MatchFilter narrows ListByStage by the match clock.
type MatchFilter string

const (
	MatchFilterAll      MatchFilter = ""
	MatchFilterPlayed   MatchFilter = "played"
	MatchFilterUpcoming MatchFilter = "upcoming"
)

func (f MatchFilter) IsValid() bool {
	switch f {
	case MatchFilterAll, MatchFilterPlayed, MatchFilterUpcoming:
		return true
	}
	return false
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// ListByStage: played = kickoff + duration in the past, upcoming = kickoff in the future.
	ListByStage(ctx context.Context, stageID int, filter MatchFilter, now time.Time, duration time.Duration) ([]models.Match, error)
	Update(ctx context.Context, match *models.Match) error
	SetResult(ctx context.Context, id int, goalsHome, goalsAway *int) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `m.id, m.stage_id, m.kickoff_at, m.home, m.away, m.goals_home, m.goals_away`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (stage_id, kickoff_at, home, away, goals_home, goals_away)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		match.StageID,
		match.KickoffAt,
		match.Home,
		match.Away,
		match.GoalsHome,
		match.GoalsAway,
	).Scan(&match.ID)
	if err != nil {
		if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
			return ErrMatchStageInvalid
		}
		return err
	}
	return nil
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var stageID, goalsHome, goalsAway sql.NullInt64
	var kickoff sql.NullTime
	err := row.Scan(&m.ID, &stageID, &kickoff, &m.Home, &m.Away, &goalsHome, &goalsAway)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	m.StageID = nullIntPtr(stageID)
	m.KickoffAt = nullTimePtr(kickoff)
	m.GoalsHome = nullIntPtr(goalsHome)
	m.GoalsAway = nullIntPtr(goalsAway)
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE m.id = $1`
	return scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID int, filter MatchFilter, now time.Time, duration time.Duration) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE m.stage_id = $1`
	args := []interface{}{stageID}

	switch filter {
	case MatchFilterPlayed:
		query += ` AND m.kickoff_at < $2`
		args = append(args, now.Add(-duration))
	case MatchFilterUpcoming:
		query += ` AND m.kickoff_at > $2`
		args = append(args, now)
	}
	query += ` ORDER BY m.kickoff_at ASC NULLS LAST, m.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for stage %d: %w", stageID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `UPDATE matches SET stage_id = $1, kickoff_at = $2, home = $3, away = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, match.StageID, match.KickoffAt, match.Home, match.Away, match.ID)
	if err != nil {
		if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
			return ErrMatchStageInvalid
		}
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// SetResult stores the final score; nil values clear it.
func (r *postgresMatchRepository) SetResult(ctx context.Context, id int, goalsHome, goalsAway *int) error {
	query := `UPDATE matches SET goals_home = $1, goals_away = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, goalsHome, goalsAway, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
