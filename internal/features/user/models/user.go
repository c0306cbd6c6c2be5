package models

import (
	"time"

	levelmodels "membership-backend/internal/features/leveling/models"
)

// User is the full persisted membership account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Code         string    `json:"code"`
	ReferredBy   *int64    `json:"referred_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Level   *levelmodels.Level `json:"level,omitempty"`
	Profile *Profile           `json:"profile,omitempty"`
}

// Profile is the optional 1:1 extension of a user. CreatedAt is stamped on
// first write only; UpdatedAt on every write.
type Profile struct {
	UserID      int64      `json:"-"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Sex         string     `json:"sex"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	CNP         string     `json:"cnp,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RegisterRequest is the registration payload. A profile with non-blank
// names is mandatory.
type RegisterRequest struct {
	Email        string          `json:"email" binding:"required,email" example:"ana@example.com"`
	Password     string          `json:"password" binding:"required,min=8"`
	ReferralCode string          `json:"referral_code,omitempty" example:"K7KQ"`
	Profile      *ProfileRequest `json:"profile"`
}

// ProfileRequest carries profile fields on registration and profile updates.
type ProfileRequest struct {
	FirstName   string     `json:"first_name" example:"Ana"`
	LastName    string     `json:"last_name" example:"Pop"`
	Sex         string     `json:"sex,omitempty" example:"F"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	CNP         string     `json:"cnp,omitempty"`
}

// UpdateUserRequest is the admin/self full-user update payload. Password is
// re-hashed only when non-empty; a nil profile removes the profile record.
type UpdateUserRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password,omitempty"`
	Profile  *ProfileRequest `json:"profile,omitempty"`
}

// UserResponse is the public projection of a user. It never carries the
// credential hash.
type UserResponse struct {
	ID         int64                 `json:"id" example:"42"`
	Email      string                `json:"email" example:"ana@example.com"`
	Code       string                `json:"code" example:"K7KQ"`
	ReferredBy *int64                `json:"referred_by,omitempty"`
	Level      *levelmodels.Snapshot `json:"level,omitempty"`
	Profile    *ProfileResponse      `json:"profile,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ProfileResponse is the public projection of a profile.
type ProfileResponse struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Sex         string     `json:"sex"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	CNP         string     `json:"cnp,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PagedUsers is a page of user projections.
type PagedUsers struct {
	Items []*UserResponse `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}
