package repository

import (
	"context"
	"errors"

	"membership-backend/internal/features/news/models"
)

var ErrNewsNotFound = errors.New("news not found")

type NewsRepository interface {
	Create(ctx context.Context, news *models.News) error
	GetByID(ctx context.Context, id int64) (*models.News, error)
	List(ctx context.Context, offset, limit int) ([]*models.News, int64, error)
}
