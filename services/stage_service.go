package services

import (
	"context"
	"strings"
	"time"

	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/repositories"
)

type StageService interface {
	Create(ctx context.Context, actorRole models.UserRole, input CreateStageInput) (*models.Stage, error)
	Update(ctx context.Context, actorRole models.UserRole, slug string, input UpdateStageInput) (*models.Stage, error)
	Delete(ctx context.Context, actorRole models.UserRole, slug string) error
	// GetBySlug hides non-public stages from everyone but organizers.
	GetBySlug(ctx context.Context, viewerRole models.UserRole, slug string) (*models.Stage, error)
	// ListVisible: anonymous (empty role) sees nothing, players see public stages, organizers see all.
	ListVisible(ctx context.Context, viewerRole models.UserRole) ([]models.Stage, error)
	NextAction(ctx context.Context, viewerRole models.UserRole, slug string) (models.StageAction, error)
}

type CreateStageInput struct {
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Deadline time.Time `json:"deadline"`
	Public   bool      `json:"public"`
}

type UpdateStageInput struct {
	Name     *string    `json:"name"`
	Slug     *string    `json:"slug"`
	Deadline *time.Time `json:"deadline"`
	Public   *bool      `json:"public"`
}

type stageService struct {
	stageRepo repositories.StageRepository
	now       func() time.Time
}

func NewStageService(stageRepo repositories.StageRepository) StageService {
	return &stageService{
		stageRepo: stageRepo,
		now:       time.Now,
	}
}

func (s *stageService) Create(ctx context.Context, actorRole models.UserRole, input CreateStageInput) (*models.Stage, error) {
	if !actorRole.IsPrivileged() {
		return nil, ErrForbiddenOperation
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrStageNameRequired
	}
	if input.Deadline.IsZero() {
		return nil, ErrStageDeadlineMissing
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, ErrValidationFailed
	}

	stage := &models.Stage{
		Name:     name,
		Slug:     slug,
		Deadline: input.Deadline,
		Public:   input.Public,
	}
	if err := s.stageRepo.Create(ctx, stage); err != nil {
		return nil, handleRepositoryError(err, "failed to create stage")
	}
	return stage, nil
}

func (s *stageService) Update(ctx context.Context, actorRole models.UserRole, slug string, input UpdateStageInput) (*models.Stage, error) {
	if !actorRole.IsPrivileged() {
		return nil, ErrForbiddenOperation
	}

	stage, err := s.stageRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get stage")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrStageNameRequired
		}
		stage.Name = name
	}
	if input.Slug != nil {
		newSlug := Slugify(*input.Slug)
		if newSlug == "" {
			return nil, ErrValidationFailed
		}
		stage.Slug = newSlug
	}
	if input.Deadline != nil {
		if input.Deadline.IsZero() {
			return nil, ErrStageDeadlineMissing
		}
		stage.Deadline = *input.Deadline
	}
	if input.Public != nil {
		stage.Public = *input.Public
	}

	if err := s.stageRepo.Update(ctx, stage); err != nil {
		return nil, handleRepositoryError(err, "failed to update stage")
	}
	return stage, nil
}

func (s *stageService) Delete(ctx context.Context, actorRole models.UserRole, slug string) error {
	if !actorRole.IsPrivileged() {
		return ErrForbiddenOperation
	}
	stage, err := s.stageRepo.GetBySlug(ctx, slug)
	if err != nil {
		return handleRepositoryError(err, "failed to get stage")
	}
	return handleRepositoryError(s.stageRepo.Delete(ctx, stage.ID), "failed to delete stage")
}

func (s *stageService) GetBySlug(ctx context.Context, viewerRole models.UserRole, slug string) (*models.Stage, error) {
	return visibleStage(ctx, s.stageRepo, viewerRole, slug)
}

func (s *stageService) ListVisible(ctx context.Context, viewerRole models.UserRole) ([]models.Stage, error) {
	if viewerRole == "" {
		return []models.Stage{}, nil
	}
	stages, err := s.stageRepo.List(ctx, !viewerRole.IsPrivileged())
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list stages")
	}
	return stages, nil
}

func (s *stageService) NextAction(ctx context.Context, viewerRole models.UserRole, slug string) (models.StageAction, error) {
	stage, err := visibleStage(ctx, s.stageRepo, viewerRole, slug)
	if err != nil {
		return "", err
	}
	return stage.NextActionAt(s.now()), nil
}

// visibleStage используется всеми сервисами, работающими со слагом этапа.
func visibleStage(ctx context.Context, repo repositories.StageRepository, viewerRole models.UserRole, slug string) (*models.Stage, error) {
	stage, err := repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get stage")
	}
	if !stage.Public && !viewerRole.IsPrivileged() {
		return nil, ErrStageNotFound
	}
	return stage, nil
}
