package repository

import (
	"context"
	"errors"

	"membership-backend/internal/features/user/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrCodeTaken    = errors.New("referral code already assigned")
)

// UserRepository persists users together with their owned level and profile
// records. Create and Update are transactional over the whole aggregate.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByCode(ctx context.Context, code string) (*models.User, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}
