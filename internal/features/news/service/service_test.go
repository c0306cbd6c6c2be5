package service_test

import (
	"context"
	"encoding/json"
	"path"
	"testing"
	"time"

	commoncache "membership-backend/internal/common/cache"
	"membership-backend/internal/features/news/models"
	"membership-backend/internal/features/news/repository"
	"membership-backend/internal/features/news/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNewsRepo struct {
	nextID    int64
	items     map[int64]*models.News
	listCalls int
}

func newMockNewsRepo(items ...*models.News) *mockNewsRepo {
	repo := &mockNewsRepo{nextID: 1, items: make(map[int64]*models.News)}
	for _, item := range items {
		repo.items[item.ID] = item
		if item.ID >= repo.nextID {
			repo.nextID = item.ID + 1
		}
	}
	return repo
}

func (m *mockNewsRepo) Create(ctx context.Context, news *models.News) error {
	news.ID = m.nextID
	m.nextID++
	news.CreatedAt = time.Now()
	news.UpdatedAt = news.CreatedAt
	m.items[news.ID] = news
	return nil
}

func (m *mockNewsRepo) GetByID(ctx context.Context, id int64) (*models.News, error) {
	news, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNewsNotFound
	}
	return news, nil
}

func (m *mockNewsRepo) List(ctx context.Context, offset, limit int) ([]*models.News, int64, error) {
	m.listCalls++
	all := make([]*models.News, 0, len(m.items))
	for id := m.nextID - 1; id >= 1; id-- {
		if news, ok := m.items[id]; ok {
			all = append(all, news)
		}
	}

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// memStore is an in-memory commoncache.Store with glob pattern deletion.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return commoncache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) DeletePattern(ctx context.Context, pattern string) error {
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
		}
	}
	return nil
}

func TestNewsList_CachesPages(t *testing.T) {
	repo := newMockNewsRepo(&models.News{ID: 1, Title: "First", Content: "Hello"})
	store := newMemStore()
	svc := service.NewNewsService(repo, store)
	ctx := context.Background()

	page, err := svc.List(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, repo.listCalls)
	assert.Contains(t, store.data, "news:pages:0:20")

	// Second read is answered from the cache, not the repository.
	again, err := svc.List(ctx, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, page.Total, again.Total)
}

func TestNewsCreate_EvictsPageCache(t *testing.T) {
	repo := newMockNewsRepo(&models.News{ID: 1, Title: "First", Content: "Hello"})
	store := newMemStore()
	svc := service.NewNewsService(repo, store)
	ctx := context.Background()

	_, err := svc.List(ctx, 0, 20)
	require.NoError(t, err)
	require.Contains(t, store.data, "news:pages:0:20")

	_, err = svc.Create(ctx, &models.CreateNewsRequest{Title: "Second", Content: "World"})
	require.NoError(t, err)
	assert.NotContains(t, store.data, "news:pages:0:20")

	// The next read repopulates with the new item first.
	page, err := svc.List(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Second", page.Items[0].Title)
}

func TestNewsGetByID_NotFound(t *testing.T) {
	svc := service.NewNewsService(newMockNewsRepo(), newMemStore())

	_, err := svc.GetByID(context.Background(), 99)
	assert.Error(t, err)
}

func TestNewsList_ClampsPaging(t *testing.T) {
	repo := newMockNewsRepo()
	svc := service.NewNewsService(repo, newMemStore())

	page, err := svc.List(context.Background(), -1, 500)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 100, page.Size)
}
