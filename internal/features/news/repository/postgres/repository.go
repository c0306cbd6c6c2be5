package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"membership-backend/internal/features/news/models"
	"membership-backend/internal/features/news/repository"
)

type newsRepository struct {
	db *sql.DB
}

func NewNewsRepository(db *sql.DB) repository.NewsRepository {
	return &newsRepository{db: db}
}

func (r *newsRepository) Create(ctx context.Context, news *models.News) error {
	query := `
		INSERT INTO news (title, content, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, news.Title, news.Content).
		Scan(&news.ID, &news.CreatedAt, &news.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create news: %w", err)
	}
	return nil
}

func (r *newsRepository) GetByID(ctx context.Context, id int64) (*models.News, error) {
	query := `
		SELECT id, title, content, created_at, updated_at
		FROM news
		WHERE id = $1`

	news := &models.News{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&news.ID, &news.Title, &news.Content, &news.CreatedAt, &news.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNewsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news: %w", err)
	}
	return news, nil
}

func (r *newsRepository) List(ctx context.Context, offset, limit int) ([]*models.News, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count news: %w", err)
	}

	query := `
		SELECT id, title, content, created_at, updated_at
		FROM news
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list news: %w", err)
	}
	defer rows.Close()

	items := make([]*models.News, 0, limit)
	for rows.Next() {
		news := &models.News{}
		if err := rows.Scan(&news.ID, &news.Title, &news.Content, &news.CreatedAt, &news.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan news: %w", err)
		}
		items = append(items, news)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate news: %w", err)
	}
	return items, total, nil
}
