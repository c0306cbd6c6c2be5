package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/common/logger"
	"membership-backend/internal/features/user/repository"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 4
	maxCodeAttempts = 10
)

// CodeAllocator produces referral codes that are unique against the
// persisted code set.
type CodeAllocator interface {
	Allocate(ctx context.Context) (string, error)
}

type codeAllocator struct {
	repo repository.UserRepository
}

func NewCodeAllocator(repo repository.UserRepository) CodeAllocator {
	return &codeAllocator{repo: repo}
}

// Allocate draws random candidates and rejects collisions, bounded by
// maxCodeAttempts. Exhaustion is a capacity condition, not a transient one:
// the caller must surface it rather than loop. The check-then-use window is
// not atomic; the users.code unique constraint closes it at persistence time.
func (a *codeAllocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}

		exists, err := a.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", apperrors.NewDatabaseError("check code", err)
		}
		if !exists {
			logger.Debug().Int("attempts", attempt).Msg("Generated unique referral code")
			return code, nil
		}

		logger.Warn().Int("attempt", attempt).Msg("Referral code collision")
	}

	logger.Error().Int("attempts", maxCodeAttempts).Msg("Failed to generate unique referral code")
	return "", apperrors.NewUnavailableError("could not generate unique code, system at capacity")
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
