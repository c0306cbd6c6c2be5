package repository

import (
	"context"
	"errors"

	"membership-backend/internal/features/leveling/models"
)

// ErrLevelNotFound is returned when no level row exists for the user.
var ErrLevelNotFound = errors.New("level not found")

type LevelRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Level, error)

	// UpdateLocked loads the user's level inside a transaction with a row
	// lock, applies fn, and persists the result. Concurrent calls for the
	// same user serialize on the lock.
	UpdateLocked(ctx context.Context, userID int64, fn func(level *models.Level) error) error
}
