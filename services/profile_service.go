package services

import (
	"context"
	"time"

	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/repositories"
	"github.com/Dosada05/prode/scoring"
	"github.com/Dosada05/prode/storage"
	"golang.org/x/sync/errgroup"
)

const profileStageConcurrency = 4

type ProfileService interface {
	// GetProfile: global position and total, plus bets and points of every
	// expired stage the user bet on. Open stages stay hidden.
	GetProfile(ctx context.Context, username string) (*models.Profile, error)
}

type profileService struct {
	userRepo       repositories.UserRepository
	stageRepo      repositories.StageRepository
	betRepo        repositories.BetRepository
	rankingService RankingService
	uploader       storage.FileUploader
	now            func() time.Time
}

func NewProfileService(
	userRepo repositories.UserRepository,
	stageRepo repositories.StageRepository,
	betRepo repositories.BetRepository,
	rankingService RankingService,
	uploader storage.FileUploader,
) ProfileService {
	return &profileService{
		userRepo:       userRepo,
		stageRepo:      stageRepo,
		betRepo:        betRepo,
		rankingService: rankingService,
		uploader:       uploader,
		now:            time.Now,
	}
}

func (s *profileService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get user")
	}
	populateUserDetailsFunc(user, s.uploader)
	user.Email = ""

	profile := &models.Profile{User: user, Stages: []models.StageScore{}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ranking, err := s.rankingService.GlobalRanking(gctx)
		if err != nil {
			return err
		}
		if pos, ok := scoring.Position(ranking, user.Username); ok {
			profile.Position = &pos
			profile.TotalPoints = ranking[pos-1].Points
		}
		return nil
	})

	g.Go(func() error {
		stages, err := s.stageRepo.ListExpiredBetByUser(gctx, user.ID, s.now())
		if err != nil {
			return handleRepositoryError(err, "failed to list expired stages")
		}

		scores := make([]models.StageScore, len(stages))
		sg, sctx := errgroup.WithContext(gctx)
		sg.SetLimit(profileStageConcurrency)
		for i, stage := range stages {
			sg.Go(func() error {
				bets, err := s.betRepo.ListByUserAndStage(sctx, user.ID, stage.ID)
				if err != nil {
					return handleRepositoryError(err, "failed to list stage bets")
				}
				scores[i] = models.StageScore{
					Stage:  stage,
					Bets:   bets,
					Points: withPoints(bets),
				}
				return nil
			})
		}
		if err := sg.Wait(); err != nil {
			return err
		}
		profile.Stages = scores
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}
