package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Dosada05/prode/countries"
	"github.com/Dosada05/prode/events"
	"github.com/Dosada05/prode/live"
	"github.com/Dosada05/prode/metrics"
	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/repositories"
)

// Broadcaster рассылает сообщения подписчикам комнаты этапа.
type Broadcaster interface {
	BroadcastToStage(slug string, msg live.Message)
}

type MatchService interface {
	Create(ctx context.Context, actorRole models.UserRole, stageSlug string, input MatchInput) (*models.Match, error)
	Update(ctx context.Context, actorRole models.UserRole, matchID int, input MatchInput) (*models.Match, error)
	Delete(ctx context.Context, actorRole models.UserRole, matchID int) error
	ListByStage(ctx context.Context, viewerRole models.UserRole, stageSlug string, filter repositories.MatchFilter) ([]models.Match, error)
	// SetResult is allowed once the match is estimated to be over: kickoff plus
	// the match duration, or the stage deadline when the kickoff is unknown.
	SetResult(ctx context.Context, actorRole models.UserRole, matchID int, input ResultInput) (*models.Match, error)
	ClearResult(ctx context.Context, actorRole models.UserRole, matchID int) (*models.Match, error)
}

type MatchInput struct {
	KickoffAt *time.Time `json:"kickoff_at"`
	Home      string     `json:"home"`
	Away      string     `json:"away"`
}

type ResultInput struct {
	GoalsHome int `json:"goals_home"`
	GoalsAway int `json:"goals_away"`
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	stageRepo      repositories.StageRepository
	rankingService RankingService
	publisher      events.Publisher
	broadcaster    Broadcaster
	matchDuration  time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	stageRepo repositories.StageRepository,
	rankingService RankingService,
	publisher events.Publisher,
	broadcaster Broadcaster,
	matchDuration time.Duration,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		stageRepo:      stageRepo,
		rankingService: rankingService,
		publisher:      publisher,
		broadcaster:    broadcaster,
		matchDuration:  matchDuration,
		logger:         logger,
		now:            time.Now,
	}
}

func validateSides(input *MatchInput) error {
	input.Home = countries.Normalize(input.Home)
	input.Away = countries.Normalize(input.Away)
	if !countries.Valid(input.Home) || !countries.Valid(input.Away) {
		return ErrInvalidCountry
	}
	if input.Home == input.Away {
		return ErrSameSides
	}
	return nil
}

func populateMatchNames(m *models.Match) {
	m.HomeName = countries.Name(m.Home)
	m.AwayName = countries.Name(m.Away)
}

func (s *matchService) Create(ctx context.Context, actorRole models.UserRole, stageSlug string, input MatchInput) (*models.Match, error) {
	if !actorRole.IsPrivileged() {
		return nil, ErrForbiddenOperation
	}
	if err := validateSides(&input); err != nil {
		return nil, err
	}

	stage, err := s.stageRepo.GetBySlug(ctx, stageSlug)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get stage")
	}

	match := &models.Match{
		StageID:   &stage.ID,
		KickoffAt: input.KickoffAt,
		Home:      input.Home,
		Away:      input.Away,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, handleRepositoryError(err, "failed to create match")
	}
	populateMatchNames(match)
	return match, nil
}

func (s *matchService) Update(ctx context.Context, actorRole models.UserRole, matchID int, input MatchInput) (*models.Match, error) {
	if !actorRole.IsPrivileged() {
		return nil, ErrForbiddenOperation
	}
	if err := validateSides(&input); err != nil {
		return nil, err
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get match")
	}
	match.KickoffAt = input.KickoffAt
	match.Home = input.Home
	match.Away = input.Away

	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, handleRepositoryError(err, "failed to update match")
	}
	populateMatchNames(match)
	return match, nil
}

func (s *matchService) Delete(ctx context.Context, actorRole models.UserRole, matchID int) error {
	if !actorRole.IsPrivileged() {
		return ErrForbiddenOperation
	}
	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		return handleRepositoryError(err, "failed to delete match")
	}
	s.invalidateRanking(ctx)
	return nil
}

func (s *matchService) ListByStage(ctx context.Context, viewerRole models.UserRole, stageSlug string, filter repositories.MatchFilter) ([]models.Match, error) {
	if !filter.IsValid() {
		return nil, ErrInvalidMatchFilter
	}
	stage, err := visibleStage(ctx, s.stageRepo, viewerRole, stageSlug)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByStage(ctx, stage.ID, filter, s.now(), s.matchDuration)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list matches")
	}
	for i := range matches {
		populateMatchNames(&matches[i])
	}
	return matches, nil
}

func (s *matchService) SetResult(ctx context.Context, actorRole models.UserRole, matchID int, input ResultInput) (*models.Match, error) {
	if !actorRole.IsPrivileged() {
		return nil, ErrForbiddenOperation
	}
	if !validGoals(input.GoalsHome) || !validGoals(input.GoalsAway) {
		return nil, ErrInvalidGoals
	}

	match, stage, err := s.loadMatchWithStage(ctx, matchID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if end, ok := match.EstimatedEnd(s.matchDuration); ok {
		if now.Before(end) {
			return nil, ErrMatchNotOver
		}
	} else if stage != nil && !stage.ExpiredAt(now) {
		return nil, ErrMatchNotOver
	}

	return s.storeResult(ctx, match, stage, &input.GoalsHome, &input.GoalsAway)
}

func (s *matchService) ClearResult(ctx context.Context, actorRole models.UserRole, matchID int) (*models.Match, error) {
	if !actorRole.IsPrivileged() {
		return nil, ErrForbiddenOperation
	}
	match, stage, err := s.loadMatchWithStage(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.storeResult(ctx, match, stage, nil, nil)
}

func (s *matchService) loadMatchWithStage(ctx context.Context, matchID int) (*models.Match, *models.Stage, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, nil, handleRepositoryError(err, "failed to get match")
	}
	if match.StageID == nil {
		return match, nil, nil
	}
	stage, err := s.stageRepo.GetByID(ctx, *match.StageID)
	if err != nil {
		return nil, nil, handleRepositoryError(err, "failed to get match stage")
	}
	return match, stage, nil
}

func (s *matchService) storeResult(ctx context.Context, match *models.Match, stage *models.Stage, goalsHome, goalsAway *int) (*models.Match, error) {
	if err := s.matchRepo.SetResult(ctx, match.ID, goalsHome, goalsAway); err != nil {
		return nil, handleRepositoryError(err, "failed to store match result")
	}
	match.GoalsHome = goalsHome
	match.GoalsAway = goalsAway
	populateMatchNames(match)

	metrics.ResultsEntered.Inc()
	s.invalidateRanking(ctx)

	logger := s.logger.With(slog.Int("match_id", match.ID), slog.String("match", match.String()))
	logger.InfoContext(ctx, "match result updated")

	var slug string
	if stage != nil {
		slug = stage.Slug
	}
	err := s.publisher.Publish(ctx, strconv.Itoa(match.ID), events.Event{
		Type:      events.TypeMatchResult,
		StageSlug: slug,
		Payload: events.MatchResultPayload{
			MatchID:   match.ID,
			GoalsHome: goalsHome,
			GoalsAway: goalsAway,
		},
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to publish match result event", slog.Any("error", err))
	}

	if stage != nil && s.broadcaster != nil {
		s.broadcaster.BroadcastToStage(stage.Slug, live.Message{Type: live.TypeResultUpdated, Payload: match})
		ranking, err := s.rankingService.StageRanking(ctx, stage.ID)
		if err != nil {
			logger.WarnContext(ctx, "failed to compute stage ranking for broadcast", slog.Any("error", err))
		} else {
			s.broadcaster.BroadcastToStage(stage.Slug, live.Message{Type: live.TypeRankingUpdated, Payload: ranking})
		}
	}
	return match, nil
}

// invalidateRanking runs after the change is committed. On failure the ranking
// service stops reading the cache until an invalidation succeeds.
func (s *matchService) invalidateRanking(ctx context.Context) {
	if err := s.rankingService.Invalidate(ctx); err != nil {
		s.logger.ErrorContext(ctx, "ranking cache invalidation failed, cache bypassed", slog.Any("error", err))
	}
}
