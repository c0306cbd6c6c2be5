package service_test

import (
	"context"
	"testing"
	"time"

	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/features/auth/service"
	usermodels "membership-backend/internal/features/user/models"
	userrepo "membership-backend/internal/features/user/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loginRepo serves a single user by email.
type loginRepo struct {
	user *usermodels.User
}

func (r *loginRepo) GetByEmail(ctx context.Context, email string) (*usermodels.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, userrepo.ErrUserNotFound
}

func (r *loginRepo) Create(ctx context.Context, user *usermodels.User) error { return nil }
func (r *loginRepo) GetByID(ctx context.Context, id int64) (*usermodels.User, error) {
	return nil, userrepo.ErrUserNotFound
}
func (r *loginRepo) GetByCode(ctx context.Context, code string) (*usermodels.User, error) {
	return nil, userrepo.ErrUserNotFound
}
func (r *loginRepo) ExistsByCode(ctx context.Context, code string) (bool, error) { return false, nil }
func (r *loginRepo) List(ctx context.Context, offset, limit int) ([]*usermodels.User, int64, error) {
	return nil, 0, nil
}
func (r *loginRepo) Update(ctx context.Context, user *usermodels.User) error { return nil }
func (r *loginRepo) Delete(ctx context.Context, id int64) error              { return nil }

func newLoginService(t *testing.T, repo *loginRepo) (service.AuthService, service.TokenService) {
	t.Helper()
	hasher := service.NewBcryptHasher()
	tokens := service.NewTokenService("a-secret-long-enough-for-hs256-use", time.Hour)
	return service.NewAuthService(repo, hasher, tokens), tokens
}

func TestLogin_Success(t *testing.T) {
	hasher := service.NewBcryptHasher()
	hash, err := hasher.Hash("password123")
	require.NoError(t, err)

	repo := &loginRepo{user: &usermodels.User{ID: 1, Email: "ana@example.com", PasswordHash: hash, Code: "AB12"}}
	svc, tokens := newLoginService(t, repo)

	user, token, err := svc.Login(context.Background(), "ana@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	// The issued token carries the user's email as subject.
	subject, err := tokens.ParseSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", subject)
}

func TestLogin_WrongPassword(t *testing.T) {
	hasher := service.NewBcryptHasher()
	hash, err := hasher.Hash("password123")
	require.NoError(t, err)

	repo := &loginRepo{user: &usermodels.User{ID: 1, Email: "ana@example.com", PasswordHash: hash}}
	svc, _ := newLoginService(t, repo)

	_, _, err = svc.Login(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, appErr.Code)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	hasher := service.NewBcryptHasher()
	hash, err := hasher.Hash("password123")
	require.NoError(t, err)

	repo := &loginRepo{user: &usermodels.User{ID: 1, Email: "ana@example.com", PasswordHash: hash}}
	svc, _ := newLoginService(t, repo)

	_, _, wrongPassErr := svc.Login(context.Background(), "ana@example.com", "wrong")
	_, _, unknownErr := svc.Login(context.Background(), "ghost@example.com", "password123")

	// Unknown email and bad password are indistinguishable to the caller.
	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
}
