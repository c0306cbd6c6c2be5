package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"membership-backend/internal/features/leveling/models"
	"membership-backend/internal/features/leveling/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.LevelRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID int64) (*models.Level, error) {
	query := `
		SELECT user_id, current_level, current_xp, next_level_xp
		FROM levels
		WHERE user_id = $1
	`

	var level models.Level
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&level.UserID, &level.CurrentLevel, &level.CurrentXP, &level.NextLevelXP)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to get level: %w", err)
	}

	level.Normalize()
	return &level, nil
}

// UpdateLocked serializes concurrent awards for the same user on the row lock
// taken by FOR UPDATE.
func (r *postgresRepository) UpdateLocked(ctx context.Context, userID int64, fn func(level *models.Level) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT user_id, current_level, current_xp, next_level_xp
		FROM levels
		WHERE user_id = $1
		FOR UPDATE
	`

	var level models.Level
	err = tx.QueryRowContext(ctx, query, userID).Scan(
		&level.UserID, &level.CurrentLevel, &level.CurrentXP, &level.NextLevelXP)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrLevelNotFound
		}
		return fmt.Errorf("failed to lock level: %w", err)
	}

	level.Normalize()
	if err := fn(&level); err != nil {
		return err
	}
	level.Normalize()

	update := `
		UPDATE levels
		SET current_level = $2, current_xp = $3, next_level_xp = $4
		WHERE user_id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		level.UserID, level.CurrentLevel, level.CurrentXP, level.NextLevelXP); err != nil {
		return fmt.Errorf("failed to update level: %w", err)
	}

	return tx.Commit()
}
