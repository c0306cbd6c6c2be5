package cache_test

import (
	"context"
	"encoding/json"
	"path"
	"testing"
	"time"

	commoncache "membership-backend/internal/common/cache"
	usercache "membership-backend/internal/features/user/cache"
	"membership-backend/internal/features/user/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory commoncache.Store backed by JSON, mirroring the
// redis service's encoding.
type memStore struct {
	data    map[string][]byte
	getErr  error
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
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
		m.deleted = append(m.deleted, key)
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) DeletePattern(ctx context.Context, pattern string) error {
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			m.deleted = append(m.deleted, key)
			delete(m.data, key)
		}
	}
	return nil
}

func TestLookupCache_PutAndGet(t *testing.T) {
	store := newMemStore()
	lookup := usercache.NewLookupCache(store)
	ctx := context.Background()

	user := &models.UserResponse{ID: 7, Email: "Ana@Example.com", Code: "AB12"}
	lookup.Put(ctx, user)

	byID := lookup.GetByID(ctx, 7)
	require.NotNil(t, byID)
	assert.Equal(t, "Ana@Example.com", byID.Email)

	// The email key is normalized, so lookups match regardless of casing.
	byEmail := lookup.GetByEmail(ctx, "  ANA@EXAMPLE.COM ")
	require.NotNil(t, byEmail)
	assert.Equal(t, int64(7), byEmail.ID)
}

func TestLookupCache_MissReturnsNil(t *testing.T) {
	lookup := usercache.NewLookupCache(newMemStore())
	ctx := context.Background()

	assert.Nil(t, lookup.GetByID(ctx, 999))
	assert.Nil(t, lookup.GetByEmail(ctx, "nobody@example.com"))
}

func TestLookupCache_FailureTreatedAsMiss(t *testing.T) {
	store := newMemStore()
	store.getErr = assert.AnError
	lookup := usercache.NewLookupCache(store)

	assert.Nil(t, lookup.GetByID(context.Background(), 7))
}

func TestLookupCache_InvalidateEvictsAllKeys(t *testing.T) {
	store := newMemStore()
	lookup := usercache.NewLookupCache(store)
	ctx := context.Background()

	lookup.Put(ctx, &models.UserResponse{ID: 7, Email: "old@example.com"})

	lookup.Invalidate(ctx, 7, "new@example.com", "old@example.com", " ")

	assert.Nil(t, lookup.GetByID(ctx, 7))
	assert.Nil(t, lookup.GetByEmail(ctx, "old@example.com"))

	// Blank emails are skipped, the rest mapped to normalized keys.
	assert.ElementsMatch(t, []string{
		"user:id:7",
		"user:email:new@example.com",
		"user:email:old@example.com",
	}, store.deleted)
}
