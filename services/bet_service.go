package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/prode/metrics"
	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/repositories"
	"github.com/Dosada05/prode/scoring"
)

type BetService interface {
	// BetForm lists every match of the stage with the caller's current bet, if any.
	BetForm(ctx context.Context, userID int, role models.UserRole, stageSlug string) ([]BetFormEntry, error)
	// SubmitBets creates or updates the caller's bets in one transaction.
	SubmitBets(ctx context.Context, userID int, role models.UserRole, stageSlug string, inputs []BetInput) ([]models.Bet, error)
	// ListStageBets returns everybody's bets with points, only after the deadline.
	ListStageBets(ctx context.Context, role models.UserRole, stageSlug string) ([]models.Bet, error)
}

type BetFormEntry struct {
	Match  models.Match         `json:"match"`
	Bet    *models.Bet          `json:"bet"`
	Labels scoring.ChoiceLabels `json:"labels"`
}

type BetInput struct {
	MatchID   int            `json:"match_id"`
	Winner    models.Outcome `json:"winner"`
	GoalsHome int            `json:"goals_home"`
	GoalsAway int            `json:"goals_away"`
}

type betService struct {
	db             *sql.DB
	betRepo        repositories.BetRepository
	matchRepo      repositories.MatchRepository
	stageRepo      repositories.StageRepository
	rankingService RankingService
	logger         *slog.Logger
	now            func() time.Time
}

func NewBetService(
	db *sql.DB,
	betRepo repositories.BetRepository,
	matchRepo repositories.MatchRepository,
	stageRepo repositories.StageRepository,
	rankingService RankingService,
	logger *slog.Logger,
) BetService {
	return &betService{
		db:             db,
		betRepo:        betRepo,
		matchRepo:      matchRepo,
		stageRepo:      stageRepo,
		rankingService: rankingService,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *betService) BetForm(ctx context.Context, userID int, role models.UserRole, stageSlug string) ([]BetFormEntry, error) {
	stage, err := visibleStage(ctx, s.stageRepo, role, stageSlug)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByStage(ctx, stage.ID, repositories.MatchFilterAll, s.now(), 0)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list stage matches")
	}
	bets, err := s.betRepo.ListByUserAndStage(ctx, userID, stage.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list user bets")
	}

	byMatch := make(map[int]models.Bet, len(bets))
	for _, b := range bets {
		b.Match = nil
		byMatch[b.MatchID] = b
	}

	form := make([]BetFormEntry, 0, len(matches))
	for _, m := range matches {
		populateMatchNames(&m)
		entry := BetFormEntry{
			Match:  m,
			Labels: scoring.Labels(m.HomeName, m.AwayName),
		}
		if b, ok := byMatch[m.ID]; ok {
			entry.Bet = &b
		}
		form = append(form, entry)
	}
	return form, nil
}

func (s *betService) SubmitBets(ctx context.Context, userID int, role models.UserRole, stageSlug string, inputs []BetInput) (saved []models.Bet, err error) {
	stage, err := visibleStage(ctx, s.stageRepo, role, stageSlug)
	if err != nil {
		return nil, err
	}
	if !stage.Public {
		return nil, ErrStageNotPublic
	}
	if stage.ExpiredAt(s.now()) {
		return nil, ErrStageClosed
	}
	if len(inputs) == 0 {
		return nil, ErrNoBets
	}

	matches, err := s.matchRepo.ListByStage(ctx, stage.ID, repositories.MatchFilterAll, s.now(), 0)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list stage matches")
	}
	inStage := make(map[int]bool, len(matches))
	for _, m := range matches {
		inStage[m.ID] = true
	}

	seen := make(map[int]bool, len(inputs))
	for _, in := range inputs {
		if !inStage[in.MatchID] {
			return nil, fmt.Errorf("%w: match %d", ErrMatchNotInStage, in.MatchID)
		}
		if seen[in.MatchID] {
			return nil, fmt.Errorf("%w: match %d", ErrDuplicateMatchInBets, in.MatchID)
		}
		seen[in.MatchID] = true
		if !in.Winner.IsValid() {
			return nil, ErrInvalidOutcome
		}
		if !validGoals(in.GoalsHome) || !validGoals(in.GoalsAway) {
			return nil, ErrInvalidGoals
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "bet transaction rollback failed", slog.Any("error", rbErr))
			}
		}
	}()

	saved = make([]models.Bet, 0, len(inputs))
	for _, in := range inputs {
		bet := models.Bet{
			UserID:    userID,
			MatchID:   in.MatchID,
			Winner:    in.Winner,
			GoalsHome: in.GoalsHome,
			GoalsAway: in.GoalsAway,
		}

		existing, getErr := s.betRepo.GetByUserAndMatch(ctx, tx, userID, in.MatchID)
		switch {
		case getErr == nil:
			bet.ID = existing.ID
			err = s.betRepo.Update(ctx, tx, &bet)
		case errors.Is(getErr, repositories.ErrBetNotFound):
			err = s.betRepo.Create(ctx, tx, &bet)
		default:
			err = getErr
		}
		if err != nil {
			err = handleRepositoryError(err, "failed to save bet")
			return nil, err
		}
		saved = append(saved, bet)
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("failed to commit bets: %w", err)
		return nil, err
	}

	metrics.BetsSubmitted.Add(float64(len(saved)))
	if invErr := s.rankingService.Invalidate(ctx); invErr != nil {
		s.logger.ErrorContext(ctx, "ranking cache invalidation failed, cache bypassed", slog.Any("error", invErr))
	}
	s.logger.InfoContext(ctx, "bets submitted",
		slog.Int("user_id", userID), slog.String("stage", stage.Slug), slog.Int("count", len(saved)))
	return saved, nil
}

func (s *betService) ListStageBets(ctx context.Context, role models.UserRole, stageSlug string) ([]models.Bet, error) {
	stage, err := visibleStage(ctx, s.stageRepo, role, stageSlug)
	if err != nil {
		return nil, err
	}
	if !stage.ExpiredAt(s.now()) {
		return nil, ErrStageNotExpired
	}

	bets, err := s.betRepo.ListByStage(ctx, stage.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list stage bets")
	}
	withPoints(bets)
	return bets, nil
}

// withPoints fills Points for bets on finished matches; pending bets keep nil.
func withPoints(bets []models.Bet) int {
	total := 0
	for i := range bets {
		if bets[i].Match == nil {
			continue
		}
		populateMatchNames(bets[i].Match)
		if !bets[i].Match.IsFinished() {
			continue
		}
		p := scoring.Earned(bets[i])
		bets[i].Points = &p
		total += p
	}
	return total
}
