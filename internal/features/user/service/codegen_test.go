package service_test

import (
	"context"
	"testing"

	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/features/user/models"
	"membership-backend/internal/features/user/repository"
	"membership-backend/internal/features/user/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCodeRepo answers ExistsByCode from a canned sequence; the other
// repository methods are never reached by the allocator.
type stubCodeRepo struct {
	exists    []bool
	alwaysHit bool
	calls     int
}

func (s *stubCodeRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	s.calls++
	if s.alwaysHit {
		return true, nil
	}
	if len(s.exists) == 0 {
		return false, nil
	}
	hit := s.exists[0]
	s.exists = s.exists[1:]
	return hit, nil
}

func (s *stubCodeRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (s *stubCodeRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}
func (s *stubCodeRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}
func (s *stubCodeRepo) GetByCode(ctx context.Context, code string) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}
func (s *stubCodeRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	return nil, 0, nil
}
func (s *stubCodeRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (s *stubCodeRepo) Delete(ctx context.Context, id int64) error          { return nil }

func TestAllocate_CodeShape(t *testing.T) {
	allocator := service.NewCodeAllocator(&stubCodeRepo{})

	for i := 0; i < 50; i++ {
		code, err := allocator.Allocate(context.Background())
		require.NoError(t, err)
		require.Len(t, code, 4)
		for _, r := range code {
			assert.True(t, (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), "unexpected rune %q in %q", r, code)
		}
	}
}

func TestAllocate_RetriesOnCollision(t *testing.T) {
	repo := &stubCodeRepo{exists: []bool{true, true, false}}
	allocator := service.NewCodeAllocator(repo)

	code, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, 4)
	assert.Equal(t, 3, repo.calls)
}

func TestAllocate_UnavailableAfterExhaustion(t *testing.T) {
	repo := &stubCodeRepo{alwaysHit: true}
	allocator := service.NewCodeAllocator(repo)

	_, err := allocator.Allocate(context.Background())
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUnavailable, appErr.Code)
	assert.Equal(t, 10, repo.calls)
}
