package service_test

import (
	"context"
	"testing"

	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/features/user/models"
	"membership-backend/internal/features/user/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(repo *mockUserRepo, cache *mockLookupCache, allocator *mockAllocator, awarder *mockAwarder) service.UserService {
	return service.NewUserService(repo, cache, mockHasher{}, allocator, awarder)
}

func validRegisterRequest() *models.RegisterRequest {
	return &models.RegisterRequest{
		Email:    "ana@example.com",
		Password: "password123",
		Profile: &models.ProfileRequest{
			FirstName: "Ana",
			LastName:  "Pop",
			Sex:       "F",
		},
	}
}

func TestRegister_Success(t *testing.T) {
	repo := newMockUserRepo()
	cache := newMockLookupCache()
	allocator := &mockAllocator{codes: []string{"AB12"}}
	awarder := newMockAwarder()
	svc := newTestService(repo, cache, allocator, awarder)

	resp, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", resp.Email)
	assert.Equal(t, "AB12", resp.Code)
	assert.Nil(t, resp.ReferredBy)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "Ana", resp.Profile.FirstName)
	assert.Equal(t, "F", resp.Profile.Sex)

	// The stored credential is the hash, never the raw password.
	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:password123", stored.PasswordHash)

	// No referral code given, no reward paid.
	assert.Empty(t, awarder.awards)
}

func TestRegister_ReferralRewardsReferrer(t *testing.T) {
	referrer := &models.User{ID: 1, Email: "referrer@example.com", Code: "REF1"}
	repo := newMockUserRepo(referrer)
	cache := newMockLookupCache()
	allocator := &mockAllocator{codes: []string{"AB12"}}
	awarder := newMockAwarder()
	svc := newTestService(repo, cache, allocator, awarder)

	req := validRegisterRequest()
	req.ReferralCode = "ref1" // matching is case-insensitive

	resp, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, resp.ReferredBy)
	assert.Equal(t, int64(1), *resp.ReferredBy)

	// Exactly 1000 XP, exactly to the referrer.
	assert.Equal(t, map[int64]int64{1: 1000}, awarder.awards)

	// The referrer's cached projection was evicted after the reward.
	assert.Contains(t, cache.invalidated, int64(1))
	assert.Contains(t, cache.evictedMails, "referrer@example.com")
}

func TestRegister_SelfReferralRejected(t *testing.T) {
	referrer := &models.User{ID: 1, Email: "Ana@Example.com", Code: "REF1"}
	repo := newMockUserRepo(referrer)
	awarder := newMockAwarder()
	svc := newTestService(repo, newMockLookupCache(), &mockAllocator{codes: []string{"AB12"}}, awarder)

	req := validRegisterRequest() // ana@example.com owns REF1 in this setup
	req.ReferralCode = "REF1"

	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsValidation())

	// Rejected before any persistence or reward.
	assert.Equal(t, 0, repo.createCalls)
	assert.Empty(t, awarder.awards)
}

func TestRegister_UnknownReferralCode(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestService(repo, newMockLookupCache(), &mockAllocator{codes: []string{"AB12"}}, newMockAwarder())

	req := validRegisterRequest()
	req.ReferralCode = "ZZZZ"

	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 0, repo.createCalls)
}

func TestRegister_RewardFailureDoesNotFailRegistration(t *testing.T) {
	referrer := &models.User{ID: 1, Email: "referrer@example.com", Code: "REF1"}
	repo := newMockUserRepo(referrer)
	awarder := newMockAwarder()
	awarder.err = assert.AnError
	svc := newTestService(repo, newMockLookupCache(), &mockAllocator{codes: []string{"AB12"}}, awarder)

	req := validRegisterRequest()
	req.ReferralCode = "REF1"

	resp, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
}

func TestRegister_MissingProfileNames(t *testing.T) {
	svc := newTestService(newMockUserRepo(), newMockLookupCache(), &mockAllocator{codes: []string{"AB12"}}, newMockAwarder())

	req := validRegisterRequest()
	req.Profile.FirstName = "   "

	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)

	req = validRegisterRequest()
	req.Profile = nil

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
}

func TestRegister_InvalidCNP(t *testing.T) {
	svc := newTestService(newMockUserRepo(), newMockLookupCache(), &mockAllocator{codes: []string{"AB12"}}, newMockAwarder())

	req := validRegisterRequest()
	req.Profile.CNP = "12345"

	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)

	req = validRegisterRequest()
	req.Profile.CNP = "1234567890123"

	_, err = svc.Register(context.Background(), req)
	assert.NoError(t, err)
}

func TestRegister_InvalidSex(t *testing.T) {
	svc := newTestService(newMockUserRepo(), newMockLookupCache(), &mockAllocator{codes: []string{"AB12"}}, newMockAwarder())

	req := validRegisterRequest()
	req.Profile.Sex = "X"

	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
}

func TestRegister_BlankSexDefaultsToO(t *testing.T) {
	svc := newTestService(newMockUserRepo(), newMockLookupCache(), &mockAllocator{codes: []string{"AB12"}}, newMockAwarder())

	req := validRegisterRequest()
	req.Profile.Sex = ""

	resp, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "O", resp.Profile.Sex)
}

func TestRegister_EmailTaken(t *testing.T) {
	existing := &models.User{ID: 1, Email: "ana@example.com", Code: "XX11"}
	svc := newTestService(newMockUserRepo(existing), newMockLookupCache(), &mockAllocator{codes: []string{"AB12"}}, newMockAwarder())

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeEmailTaken, appErr.Code)
}

func TestRegister_CodeCollisionRetriesOnce(t *testing.T) {
	taken := &models.User{ID: 1, Email: "other@example.com", Code: "AB12"}
	repo := newMockUserRepo(taken)
	allocator := &mockAllocator{codes: []string{"AB12", "CD34"}}
	svc := newTestService(repo, newMockLookupCache(), allocator, newMockAwarder())

	// The allocator's first candidate loses the race at persistence time;
	// the retry gets a fresh code.
	resp, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	assert.Equal(t, "CD34", resp.Code)
	assert.Equal(t, 2, allocator.calls)
}

func TestGetByID_CacheAside(t *testing.T) {
	user := &models.User{ID: 1, Email: "ana@example.com", Code: "AB12"}
	repo := newMockUserRepo(user)
	cache := newMockLookupCache()
	svc := newTestService(repo, cache, &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	// First read misses and populates the cache.
	resp, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)

	// Second read is served from the cache.
	again, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Same(t, cache.byID[1], again)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, resp.Email, again.Email)
}

func TestGetByID_NotFoundNeverCached(t *testing.T) {
	cache := newMockLookupCache()
	svc := newTestService(newMockUserRepo(), cache, &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	_, err := svc.GetByID(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, 0, cache.puts)
	assert.Empty(t, cache.byID)
}

func TestGetByEmail_CacheAside(t *testing.T) {
	user := &models.User{ID: 1, Email: "ana@example.com", Code: "AB12"}
	cache := newMockLookupCache()
	svc := newTestService(newMockUserRepo(user), cache, &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	_, err := svc.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)

	_, err = svc.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)
}

func TestList_ClampsPaging(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: 1, Email: "a@example.com", Code: "AA11"},
		&models.User{ID: 2, Email: "b@example.com", Code: "BB22"},
		&models.User{ID: 3, Email: "c@example.com", Code: "CC33"},
	)
	svc := newTestService(repo, newMockLookupCache(), &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	page, err := svc.List(context.Background(), -5, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 20, page.Size)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 3)

	page, err = svc.List(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "c@example.com", page.Items[0].Email)
}

func TestUpdate_EmailChangeEvictsOldKey(t *testing.T) {
	user := &models.User{ID: 1, Email: "old@example.com", Code: "AB12"}
	cache := newMockLookupCache()
	svc := newTestService(newMockUserRepo(user), cache, &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	_, err := svc.Update(context.Background(), 1, &models.UpdateUserRequest{Email: "new@example.com"})
	require.NoError(t, err)

	assert.Contains(t, cache.invalidated, int64(1))
	assert.Contains(t, cache.evictedMails, "old@example.com")
	assert.Contains(t, cache.evictedMails, "new@example.com")
}

func TestUpdate_SameEmailDoesNotEvictTwice(t *testing.T) {
	user := &models.User{ID: 1, Email: "ana@example.com", Code: "AB12"}
	cache := newMockLookupCache()
	svc := newTestService(newMockUserRepo(user), cache, &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	_, err := svc.Update(context.Background(), 1, &models.UpdateUserRequest{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, cache.evictedMails)
}

func TestUpdate_PasswordRehashedOnlyWhenProvided(t *testing.T) {
	user := &models.User{ID: 1, Email: "ana@example.com", PasswordHash: "hashed:original", Code: "AB12"}
	repo := newMockUserRepo(user)
	svc := newTestService(repo, newMockLookupCache(), &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	_, err := svc.Update(context.Background(), 1, &models.UpdateUserRequest{Email: "ana@example.com"})
	require.NoError(t, err)

	stored, _ := repo.GetByID(context.Background(), 1)
	assert.Equal(t, "hashed:original", stored.PasswordHash)

	_, err = svc.Update(context.Background(), 1, &models.UpdateUserRequest{Email: "ana@example.com", Password: "newpassword"})
	require.NoError(t, err)

	stored, _ = repo.GetByID(context.Background(), 1)
	assert.Equal(t, "hashed:newpassword", stored.PasswordHash)
}

func TestUpdateProfile_ForbiddenForOtherUsers(t *testing.T) {
	user := &models.User{ID: 1, Email: "ana@example.com", Code: "AB12"}
	repo := newMockUserRepo(user)
	svc := newTestService(repo, newMockLookupCache(), &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	req := &models.ProfileRequest{FirstName: "Eve", LastName: "Intruder"}

	_, err := svc.UpdateProfile(context.Background(), 1, req, "eve@example.com")
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)

	// Nothing was written.
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateProfile_SelfServiceSucceeds(t *testing.T) {
	user := &models.User{ID: 1, Email: "ana@example.com", Code: "AB12"}
	repo := newMockUserRepo(user)
	cache := newMockLookupCache()
	svc := newTestService(repo, cache, &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	req := &models.ProfileRequest{FirstName: "Ana", LastName: "Pop", Sex: "f"}

	// The acting email match is case-insensitive.
	resp, err := svc.UpdateProfile(context.Background(), 1, req, "ANA@example.com")
	require.NoError(t, err)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "F", resp.Profile.Sex)
	assert.Contains(t, cache.invalidated, int64(1))
}

func TestDelete_InvalidatesCache(t *testing.T) {
	user := &models.User{ID: 1, Email: "ana@example.com", Code: "AB12"}
	repo := newMockUserRepo(user)
	cache := newMockLookupCache()
	svc := newTestService(repo, cache, &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	require.NoError(t, svc.Delete(context.Background(), 1))

	_, err := repo.GetByID(context.Background(), 1)
	assert.Error(t, err)
	assert.Contains(t, cache.invalidated, int64(1))
	assert.Contains(t, cache.evictedMails, "ana@example.com")
}

func TestDelete_UnknownUser(t *testing.T) {
	svc := newTestService(newMockUserRepo(), newMockLookupCache(), &mockAllocator{codes: []string{"ZZ99"}}, newMockAwarder())

	err := svc.Delete(context.Background(), 42)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsNotFound())
}
