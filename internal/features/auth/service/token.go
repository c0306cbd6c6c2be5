package service

import (
	"crypto/sha256"
	"fmt"
	"time"

	"membership-backend/internal/common/logger"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies the bearer tokens carrying the acting
// caller's email as subject.
type TokenService interface {
	Generate(email string) (string, error)
	ParseSubject(token string) (string, error)
}

type tokenService struct {
	signingKey []byte
	expiry     time.Duration
}

func NewTokenService(secret string, expiry time.Duration) TokenService {
	return &tokenService{
		signingKey: normalizeKeyBytes(secret),
		expiry:     expiry,
	}
}

func (s *tokenService) Generate(email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(s.expiry).Unix(),
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *tokenService) ParseSubject(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}

// HS256 needs at least 32 bytes of key material; shorter configured secrets
// are stretched through SHA-256.
func normalizeKeyBytes(secret string) []byte {
	keyBytes := []byte(secret)
	if len(keyBytes) >= 32 {
		return keyBytes
	}
	logger.Warn().Msg("Configured JWT secret is shorter than 32 bytes; deriving SHA-256 key material")
	sum := sha256.Sum256(keyBytes)
	return sum[:]
}
