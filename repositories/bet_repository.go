package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prode/models"
)

var (
	ErrBetNotFound      = errors.New("bet not found")
	ErrBetAlreadyExists = errors.New("bet for this user and match already exists")
	ErrBetMatchInvalid  = errors.New("bet user or match conflict or invalid")
)

type BetRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bet *models.Bet) error
	Update(ctx context.Context, exec SQLExecutor, bet *models.Bet) error
	// GetByUserAndMatch locks the row when exec is a transaction.
	GetByUserAndMatch(ctx context.Context, exec SQLExecutor, userID, matchID int) (*models.Bet, error)
	ListByUserAndStage(ctx context.Context, userID, stageID int) ([]models.Bet, error)
	ListByStage(ctx context.Context, stageID int) ([]models.Bet, error)
	// ListForRanking returns bets with username and match attached, ordered by
	// username. A nil stageID returns every bet.
	ListForRanking(ctx context.Context, stageID *int) ([]models.Bet, error)
}

type postgresBetRepository struct {
	db *sql.DB
}

func NewPostgresBetRepository(db *sql.DB) BetRepository {
	return &postgresBetRepository{db: db}
}

func (r *postgresBetRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func mapBetWriteError(err error) error {
	if constraint, ok := constraintViolation(err, pqUniqueViolation); ok && constraint == "bets_user_match_key" {
		return ErrBetAlreadyExists
	}
	if _, ok := constraintViolation(err, pqForeignKeyViolation); ok {
		return ErrBetMatchInvalid
	}
	return err
}

func (r *postgresBetRepository) Create(ctx context.Context, exec SQLExecutor, bet *models.Bet) error {
	query := `
		INSERT INTO bets (user_id, match_id, winner, goals_home, goals_away)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		bet.UserID,
		bet.MatchID,
		bet.Winner,
		bet.GoalsHome,
		bet.GoalsAway,
	).Scan(&bet.ID, &bet.UpdatedAt)
	if err != nil {
		return mapBetWriteError(err)
	}
	return nil
}

func (r *postgresBetRepository) Update(ctx context.Context, exec SQLExecutor, bet *models.Bet) error {
	query := `
		UPDATE bets SET winner = $1, goals_home = $2, goals_away = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		bet.Winner, bet.GoalsHome, bet.GoalsAway, bet.ID, bet.UserID,
	).Scan(&bet.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBetNotFound
		}
		return mapBetWriteError(err)
	}
	return nil
}

func (r *postgresBetRepository) GetByUserAndMatch(ctx context.Context, exec SQLExecutor, userID, matchID int) (*models.Bet, error) {
	query := `
		SELECT id, user_id, match_id, winner, goals_home, goals_away, updated_at
		FROM bets WHERE user_id = $1 AND match_id = $2
		FOR UPDATE`

	var b models.Bet
	err := r.getExecutor(exec).QueryRowContext(ctx, query, userID, matchID).Scan(
		&b.ID, &b.UserID, &b.MatchID, &b.Winner, &b.GoalsHome, &b.GoalsAway, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBetNotFound
		}
		return nil, err
	}
	return &b, nil
}

const betWithMatchSelect = `
	SELECT b.id, b.user_id, b.match_id, b.winner, b.goals_home, b.goals_away, b.updated_at,
	       u.username,
	       m.id, m.stage_id, m.kickoff_at, m.home, m.away, m.goals_home, m.goals_away
	FROM bets b
	JOIN users u ON u.id = b.user_id
	JOIN matches m ON m.id = b.match_id`

func scanBetWithMatch(row rowScanner) (*models.Bet, error) {
	var b models.Bet
	var m models.Match
	var stageID, goalsHome, goalsAway sql.NullInt64
	var kickoff sql.NullTime

	err := row.Scan(
		&b.ID, &b.UserID, &b.MatchID, &b.Winner, &b.GoalsHome, &b.GoalsAway, &b.UpdatedAt,
		&b.Username,
		&m.ID, &stageID, &kickoff, &m.Home, &m.Away, &goalsHome, &goalsAway,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan bet: %w", err)
	}
	m.StageID = nullIntPtr(stageID)
	m.KickoffAt = nullTimePtr(kickoff)
	m.GoalsHome = nullIntPtr(goalsHome)
	m.GoalsAway = nullIntPtr(goalsAway)
	b.Match = &m
	return &b, nil
}

func (r *postgresBetRepository) queryBets(ctx context.Context, query string, args ...interface{}) ([]models.Bet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bets := make([]models.Bet, 0)
	for rows.Next() {
		b, err := scanBetWithMatch(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bets, nil
}

func (r *postgresBetRepository) ListByUserAndStage(ctx context.Context, userID, stageID int) ([]models.Bet, error) {
	query := betWithMatchSelect + `
	WHERE b.user_id = $1 AND m.stage_id = $2
	ORDER BY m.kickoff_at ASC NULLS LAST, m.id ASC`
	return r.queryBets(ctx, query, userID, stageID)
}

func (r *postgresBetRepository) ListByStage(ctx context.Context, stageID int) ([]models.Bet, error) {
	query := betWithMatchSelect + `
	WHERE m.stage_id = $1
	ORDER BY u.username ASC, m.kickoff_at ASC NULLS LAST, m.id ASC`
	return r.queryBets(ctx, query, stageID)
}

func (r *postgresBetRepository) ListForRanking(ctx context.Context, stageID *int) ([]models.Bet, error) {
	if stageID != nil {
		query := betWithMatchSelect + `
	WHERE m.stage_id = $1
	ORDER BY u.username ASC`
		return r.queryBets(ctx, query, *stageID)
	}
	query := betWithMatchSelect + `
	ORDER BY u.username ASC`
	bets, err := r.queryBets(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for ranking: %w", err)
	}
	return bets, nil
}
