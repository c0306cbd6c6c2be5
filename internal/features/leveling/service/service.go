package service

import (
	"context"
	"errors"

	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/common/logger"
	"membership-backend/internal/features/leveling/models"
	"membership-backend/internal/features/leveling/repository"
)

type LevelingService interface {
	GetLevel(ctx context.Context, userID int64) (*models.Snapshot, error)
	AddXP(ctx context.Context, userID int64, amount int64) (*models.Snapshot, error)
}

type levelingService struct {
	repo repository.LevelRepository
}

func NewLevelingService(repo repository.LevelRepository) LevelingService {
	return &levelingService{
		repo: repo,
	}
}

func (s *levelingService) GetLevel(ctx context.Context, userID int64) (*models.Snapshot, error) {
	level, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrLevelNotFound) {
			return nil, apperrors.NewUserNotFoundError(userID)
		}
		return nil, apperrors.NewDatabaseError("get level", err)
	}

	return level.ToSnapshot(), nil
}

// AddXP applies the award inside the repository's per-user lock so that
// concurrent awards to the same user cannot lose an increment.
func (s *levelingService) AddXP(ctx context.Context, userID int64, amount int64) (*models.Snapshot, error) {
	var snapshot *models.Snapshot

	err := s.repo.UpdateLocked(ctx, userID, func(level *models.Level) error {
		newLevel, err := level.AwardXP(amount)
		if err != nil {
			return err
		}

		if newLevel > 1 {
			logger.Debug().
				Int64("user_id", userID).
				Int("level", newLevel).
				Msg("XP applied")
		}
		snapshot = level.ToSnapshot()
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrLevelNotFound) {
			return nil, apperrors.NewUserNotFoundError(userID)
		}
		if _, ok := apperrors.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("add xp", err)
	}

	logger.Info().
		Int64("user_id", userID).
		Int64("amount", amount).
		Int("level", snapshot.CurrentLevel).
		Msg("Awarded XP")

	return snapshot, nil
}
