package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/common/logger"
	"membership-backend/internal/features/user/mapper"
	"membership-backend/internal/features/user/models"
	"membership-backend/internal/features/user/repository"
)

const referralXPReward = 1000

var cnpPattern = regexp.MustCompile(`^\d{13}$`)

type userService struct {
	repo      repository.UserRepository
	cache     LookupCache
	hasher    PasswordHasher
	allocator CodeAllocator
	awarder   XPAwarder
}

func NewUserService(
	repo repository.UserRepository,
	cache LookupCache,
	hasher PasswordHasher,
	allocator CodeAllocator,
	awarder XPAwarder,
) UserService {
	return &userService{
		repo:      repo,
		cache:     cache,
		hasher:    hasher,
		allocator: allocator,
		awarder:   awarder,
	}
}

// Register creates the account, its default level and its profile in one
// transaction, then rewards the referrer best-effort. Registration requires
// a profile with non-blank names.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error) {
	logger.Info().Str("email", logger.MaskEmail(req.Email)).Msg("Registering user")

	profile, err := buildProfile(req.Profile, nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(profile.FirstName) == "" || strings.TrimSpace(profile.LastName) == "" {
		return nil, apperrors.NewValidationError("profile", "first and last name are required")
	}

	referrer, err := s.resolveReferrer(ctx, req.ReferralCode, req.Email)
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: passwordHash,
		Profile:      profile,
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	if err := s.createWithFreshCode(ctx, user); err != nil {
		return nil, err
	}

	// Defensive eviction: entries should not pre-exist, but this guarantees
	// no stale negative state for the new keys.
	s.cache.Invalidate(ctx, user.ID, user.Email)

	logger.Info().Int64("user_id", user.ID).Msg("Registered user")

	if referrer != nil {
		s.rewardReferrer(ctx, referrer, user.ID)
	}

	return mapper.ToUserResponse(user), nil
}

// createWithFreshCode allocates a unique code and persists the user. The
// allocator's check-then-use window can race with a concurrent registration;
// a unique violation on the code column is answered with one re-allocation.
func (s *userService) createWithFreshCode(ctx context.Context, user *models.User) error {
	for attempt := 0; attempt < 2; attempt++ {
		code, err := s.allocator.Allocate(ctx)
		if err != nil {
			return err
		}
		user.Code = code
		user.Level = nil

		err = s.repo.Create(ctx, user)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrCodeTaken) {
			logger.Warn().Str("code", code).Msg("Referral code lost to concurrent registration, reallocating")
			continue
		}
		if errors.Is(err, repository.ErrEmailTaken) {
			return apperrors.New(apperrors.ErrCodeEmailTaken, "Email already registered").
				WithDetail("email", logger.MaskEmail(user.Email))
		}
		return apperrors.NewDatabaseError("create user", err)
	}
	return apperrors.NewUnavailableError("could not generate unique code, system at capacity")
}

func (s *userService) resolveReferrer(ctx context.Context, code, registrantEmail string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	referrer, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logger.Warn().Str("code", code).Msg("Registration rejected: referral code not found")
			return nil, apperrors.NewValidationError("referral_code", "referral code not found")
		}
		return nil, apperrors.NewDatabaseError("resolve referral code", err)
	}

	// Self-referral is detected by email equality, not code ownership.
	if strings.EqualFold(referrer.Email, registrantEmail) {
		logger.Warn().Str("email", logger.MaskEmail(registrantEmail)).Msg("Registration rejected: self-referral attempt")
		return nil, apperrors.NewValidationError("referral_code", "cannot use your own referral code")
	}

	return referrer, nil
}

// rewardReferrer is best-effort: the registrant's success is the primary
// contract, so a failed reward is reported but never rolls it back.
func (s *userService) rewardReferrer(ctx context.Context, referrer *models.User, newUserID int64) {
	if _, err := s.awarder.AddXP(ctx, referrer.ID, referralXPReward); err != nil {
		logger.Error().Err(err).
			Int64("referrer_id", referrer.ID).
			Int64("new_user_id", newUserID).
			Msg("Failed to award referral XP")
		return
	}

	// The referrer's cached projection now carries a stale level.
	s.cache.Invalidate(ctx, referrer.ID, referrer.Email)

	logger.Info().
		Int64("referrer_id", referrer.ID).
		Int64("new_user_id", newUserID).
		Int("xp", referralXPReward).
		Msg("Awarded referral XP")
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.UserResponse, error) {
	if cached := s.cache.GetByID(ctx, id); cached != nil {
		return cached, nil
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Not-found results are never cached.
			return nil, apperrors.NewUserNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	resp := mapper.ToUserResponse(user)
	s.cache.Put(ctx, resp)
	return resp, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.UserResponse, error) {
	if cached := s.cache.GetByEmail(ctx, email); cached != nil {
		return cached, nil
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user", logger.MaskEmail(email))
		}
		return nil, apperrors.NewDatabaseError("get user by email", err)
	}

	resp := mapper.ToUserResponse(user)
	s.cache.Put(ctx, resp)
	return resp, nil
}

func (s *userService) List(ctx context.Context, page, size int) (*models.PagedUsers, error) {
	if page < 0 {
		page = 0
	}
	if size < 1 || size > 100 {
		size = 20
	}

	users, total, err := s.repo.List(ctx, page*size, size)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list users", err)
	}

	items := make([]*models.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, mapper.ToUserResponse(user))
	}

	return &models.PagedUsers{Items: items, Total: total, Page: page, Size: size}, nil
}

// Update rewrites email, password and profile. When the email changes, the
// old email's cache key is evicted along with the id and new email keys.
func (s *userService) Update(ctx context.Context, id int64, req *models.UpdateUserRequest) (*models.UserResponse, error) {
	logger.Info().Int64("user_id", id).Msg("Updating user")

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	oldEmail := user.Email
	user.Email = strings.TrimSpace(req.Email)

	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	if req.Profile != nil {
		profile, err := buildProfile(req.Profile, user.Profile)
		if err != nil {
			return nil, err
		}
		user.Profile = profile
	} else {
		user.Profile = nil
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.New(apperrors.ErrCodeEmailTaken, "Email already registered")
		}
		return nil, apperrors.NewDatabaseError("update user", err)
	}

	if strings.EqualFold(oldEmail, user.Email) {
		s.cache.Invalidate(ctx, id, user.Email)
	} else {
		logger.Info().
			Int64("user_id", id).
			Str("old", logger.MaskEmail(oldEmail)).
			Str("new", logger.MaskEmail(user.Email)).
			Msg("User email changed")
		s.cache.Invalidate(ctx, id, user.Email, oldEmail)
	}

	logger.Info().Int64("user_id", id).Msg("Updated user")
	return mapper.ToUserResponse(user), nil
}

// UpdateProfile is self-service only: the acting identity's email must match
// the target user's email. The authorization check runs before any write.
func (s *userService) UpdateProfile(ctx context.Context, id int64, req *models.ProfileRequest, actingEmail string) (*models.UserResponse, error) {
	logger.Info().
		Int64("user_id", id).
		Str("acting", logger.MaskEmail(actingEmail)).
		Msg("Updating profile")

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	if actingEmail == "" || !strings.EqualFold(user.Email, actingEmail) {
		logger.Warn().
			Int64("user_id", id).
			Str("acting", logger.MaskEmail(actingEmail)).
			Msg("Profile update rejected")
		return nil, apperrors.NewForbiddenError("you can only update your own profile")
	}

	profile, err := buildProfile(req, user.Profile)
	if err != nil {
		return nil, err
	}
	user.Profile = profile

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperrors.NewDatabaseError("update profile", err)
	}

	s.cache.Invalidate(ctx, id, user.Email)

	logger.Info().Int64("user_id", id).Msg("Updated profile")
	return mapper.ToUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	logger.Info().Int64("user_id", id).Msg("Deleting user")

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperrors.NewUserNotFoundError(id)
		}
		return apperrors.NewDatabaseError("get user", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperrors.NewUserNotFoundError(id)
		}
		return apperrors.NewDatabaseError("delete user", err)
	}

	s.cache.Invalidate(ctx, id, user.Email)

	logger.Info().Int64("user_id", id).Msg("Deleted user")
	return nil
}

// buildProfile validates and normalizes a profile payload, preserving the
// existing record's CreatedAt so it is stamped once.
func buildProfile(req *models.ProfileRequest, existing *models.Profile) (*models.Profile, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("profile", "profile payload is required")
	}

	sex, err := normalizeSex(req.Sex)
	if err != nil {
		return nil, err
	}

	cnp := strings.TrimSpace(req.CNP)
	if cnp != "" && !cnpPattern.MatchString(cnp) {
		return nil, apperrors.NewValidationError("cnp", "must contain exactly 13 digits")
	}

	profile := &models.Profile{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Sex:         sex,
		DateOfBirth: req.DateOfBirth,
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		AvatarURL:   strings.TrimSpace(req.AvatarURL),
		Bio:         req.Bio,
		CNP:         cnp,
		UpdatedAt:   time.Now().UTC(),
	}
	if existing != nil {
		profile.UserID = existing.UserID
		profile.CreatedAt = existing.CreatedAt
	}

	return profile, nil
}

// normalizeSex maps the input to one of M, F, O, defaulting to O when absent.
func normalizeSex(sex string) (string, error) {
	sex = strings.ToUpper(strings.TrimSpace(sex))
	switch sex {
	case "":
		return "O", nil
	case "M", "F", "O":
		return sex, nil
	default:
		return "", apperrors.NewValidationError("sex", "must be one of M, F, or O")
	}
}
