package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-backend/internal/common/cache"
	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/common/logger"
	"membership-backend/internal/features/news/models"
	"membership-backend/internal/features/news/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	pageCachePrefix = "news:pages"
	pageCacheTTL    = 5 * time.Minute
)

type NewsService interface {
	Create(ctx context.Context, req *models.CreateNewsRequest) (*models.News, error)
	GetByID(ctx context.Context, id int64) (*models.News, error)
	List(ctx context.Context, page, size int) (*models.PagedNews, error)
}

type newsService struct {
	repo  repository.NewsRepository
	cache cache.Store
}

func NewNewsService(repo repository.NewsRepository, cache cache.Store) NewsService {
	return &newsService{
		repo:  repo,
		cache: cache,
	}
}

func (s *newsService) Create(ctx context.Context, req *models.CreateNewsRequest) (*models.News, error) {
	news := &models.News{
		Title:   req.Title,
		Content: req.Content,
	}
	if err := s.repo.Create(ctx, news); err != nil {
		return nil, apperrors.NewDatabaseError("create news", err)
	}

	// Cached pages are stale once a new item exists. Eviction failures are
	// logged, not surfaced: the TTL bounds staleness anyway.
	if err := s.cache.DeletePattern(ctx, pageCachePrefix+":*"); err != nil {
		logger.Warn().Err(err).Msg("failed to evict news page cache")
	}

	logger.Info().Int64("news_id", news.ID).Str("title", news.Title).Msg("news created")
	return news, nil
}

func (s *newsService) GetByID(ctx context.Context, id int64) (*models.News, error) {
	news, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNewsNotFound) {
		return nil, apperrors.NewNewsNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get news", err)
	}
	return news, nil
}

func (s *newsService) List(ctx context.Context, page, size int) (*models.PagedNews, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	key := fmt.Sprintf("%s:%d:%d", pageCachePrefix, page, size)

	var cached models.PagedNews
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Warn().Err(err).Str("key", key).Msg("news page cache read failed, falling back to database")
	}

	items, total, err := s.repo.List(ctx, page*size, size)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list news", err)
	}

	result := &models.PagedNews{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
	}
	if err := s.cache.Set(ctx, key, result, pageCacheTTL); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to cache news page")
	}
	return result, nil
}
