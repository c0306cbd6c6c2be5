package service

import (
	"context"
	"errors"

	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/common/logger"
	"membership-backend/internal/features/user/mapper"
	usermodels "membership-backend/internal/features/user/models"
	userrepo "membership-backend/internal/features/user/repository"
)

// AuthService verifies credentials and issues tokens. Registration itself
// lives in the user orchestrator; this service only authenticates.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*usermodels.UserResponse, string, error)
}

type authService struct {
	users  userrepo.UserRepository
	hasher PasswordHasher
	tokens TokenService
}

func NewAuthService(users userrepo.UserRepository, hasher PasswordHasher, tokens TokenService) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Login deliberately returns the same error for an unknown email and a bad
// password.
func (s *authService) Login(ctx context.Context, email, password string) (*usermodels.UserResponse, string, error) {
	invalidCredentials := apperrors.NewUnauthorizedError("invalid email or password")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			logger.Warn().Str("email", logger.MaskEmail(email)).Msg("Login rejected: unknown email")
			return nil, "", invalidCredentials
		}
		return nil, "", apperrors.NewDatabaseError("login lookup", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		logger.Warn().Str("email", logger.MaskEmail(email)).Msg("Login rejected: bad password")
		return nil, "", invalidCredentials
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to issue token")
	}

	logger.Info().Int64("user_id", user.ID).Msg("User logged in")
	return mapper.ToUserResponse(user), token, nil
}
