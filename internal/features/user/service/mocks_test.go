package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	levelmodels "membership-backend/internal/features/leveling/models"
	"membership-backend/internal/features/user/models"
	"membership-backend/internal/features/user/repository"
)

// mockUserRepo is an in-memory repository.UserRepository.
type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User

	// control outputs
	createErrs []error // consumed per Create call, nil falls through
	updateErr  error

	// capture inputs
	createCalls int
	updateCalls int
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[int64]*models.User), nextID: 1}
	for _, user := range users {
		repo.users[user.ID] = user
		if user.ID >= repo.nextID {
			repo.nextID = user.ID + 1
		}
	}
	return repo
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrEmailTaken
		}
		if existing.Code == user.Code {
			return repository.ErrCodeTaken
		}
	}

	user.ID = m.nextID
	m.nextID++
	user.Level = levelmodels.NewLevel(user.ID)
	if user.Profile != nil {
		user.Profile.UserID = user.ID
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepo) GetByCode(ctx context.Context, code string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Code == code {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*models.User, 0, len(m.users))
	for id := int64(1); id < m.nextID; id++ {
		if user, ok := m.users[id]; ok {
			all = append(all, user)
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

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, existing := range m.users {
		if existing.ID != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// mockLookupCache records every operation for assertions on eviction order
// and key coverage.
type mockLookupCache struct {
	byID    map[int64]*models.UserResponse
	byEmail map[string]*models.UserResponse

	puts         int
	invalidated  []int64
	evictedMails []string
}

func newMockLookupCache() *mockLookupCache {
	return &mockLookupCache{
		byID:    make(map[int64]*models.UserResponse),
		byEmail: make(map[string]*models.UserResponse),
	}
}

func (m *mockLookupCache) GetByID(ctx context.Context, id int64) *models.UserResponse {
	return m.byID[id]
}

func (m *mockLookupCache) GetByEmail(ctx context.Context, email string) *models.UserResponse {
	return m.byEmail[strings.ToLower(email)]
}

func (m *mockLookupCache) Put(ctx context.Context, user *models.UserResponse) {
	m.puts++
	m.byID[user.ID] = user
	m.byEmail[strings.ToLower(user.Email)] = user
}

func (m *mockLookupCache) Invalidate(ctx context.Context, id int64, emails ...string) {
	m.invalidated = append(m.invalidated, id)
	delete(m.byID, id)
	for _, email := range emails {
		m.evictedMails = append(m.evictedMails, strings.ToLower(email))
		delete(m.byEmail, strings.ToLower(email))
	}
}

// mockHasher is a transparent stand-in for bcrypt.
type mockHasher struct{}

func (mockHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (mockHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// mockAllocator hands out a fixed sequence of codes.
type mockAllocator struct {
	codes []string
	calls int
	err   error
}

func (m *mockAllocator) Allocate(ctx context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	code := m.codes[m.calls%len(m.codes)]
	m.calls++
	return code, nil
}

// mockAwarder captures referral rewards.
type mockAwarder struct {
	awards map[int64]int64
	err    error
}

func newMockAwarder() *mockAwarder {
	return &mockAwarder{awards: make(map[int64]int64)}
}

func (m *mockAwarder) AddXP(ctx context.Context, userID int64, amount int64) (*levelmodels.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.awards[userID] += amount
	return &levelmodels.Snapshot{CurrentLevel: 1, CurrentXP: m.awards[userID]}, nil
}
