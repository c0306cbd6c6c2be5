package service

import (
	"context"

	authservice "membership-backend/internal/features/auth/service"
	levelmodels "membership-backend/internal/features/leveling/models"
	"membership-backend/internal/features/user/models"
)

// UserService is the user/referral orchestrator.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error)
	GetByID(ctx context.Context, id int64) (*models.UserResponse, error)
	GetByEmail(ctx context.Context, email string) (*models.UserResponse, error)
	List(ctx context.Context, page, size int) (*models.PagedUsers, error)
	Update(ctx context.Context, id int64, req *models.UpdateUserRequest) (*models.UserResponse, error)
	UpdateProfile(ctx context.Context, id int64, req *models.ProfileRequest, actingEmail string) (*models.UserResponse, error)
	Delete(ctx context.Context, id int64) error
}

// XPAwarder is the slice of the leveling service the orchestrator needs for
// referral rewards.
type XPAwarder interface {
	AddXP(ctx context.Context, userID int64, amount int64) (*levelmodels.Snapshot, error)
}

// LookupCache fronts the by-id and by-email read paths.
type LookupCache interface {
	GetByID(ctx context.Context, id int64) *models.UserResponse
	GetByEmail(ctx context.Context, email string) *models.UserResponse
	Put(ctx context.Context, user *models.UserResponse)
	Invalidate(ctx context.Context, id int64, emails ...string)
}

// PasswordHasher aliases the auth feature's hasher contract.
type PasswordHasher = authservice.PasswordHasher
