package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "membership-backend/internal/common/errors"

	"github.com/google/uuid"
)

// Storage persists uploaded files and returns the stored file name.
type Storage interface {
	Store(ctx context.Context, name string, r io.Reader) (string, error)
}

type localStorage struct {
	dir string
}

func NewLocalStorage(dir string) (Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &localStorage{dir: dir}, nil
}

func (s *localStorage) Store(ctx context.Context, name string, r io.Reader) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidationError("file", "file name must not be empty")
	}
	if strings.Contains(name, "..") {
		return "", apperrors.NewValidationError("file", "file name must not contain path sequences")
	}

	stored := uuid.New().String() + filepath.Ext(name)
	path := filepath.Join(s.dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return stored, nil
}
