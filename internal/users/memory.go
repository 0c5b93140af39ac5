package users

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps accounts in process memory. It backs the memory
// storage driver and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]User
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, byID: make(map[int64]User)}
}

func (m *MemoryRepository) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) GetUser(ctx context.Context, id int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *MemoryRepository) CreateUser(ctx context.Context, user User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Username == user.Username {
			return User{}, ErrUsernameTaken
		}
	}
	user.ID = m.nextID
	m.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	m.byID[user.ID] = user
	return user, nil
}

func (m *MemoryRepository) UpdateUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	cur.Role = user.Role
	cur.PasswordHash = user.PasswordHash
	m.byID[user.ID] = cur
	return nil
}

func (m *MemoryRepository) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *MemoryRepository) CountByRole(ctx context.Context, role string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.byID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

var _ RepositoryPort = (*MemoryRepository)(nil)
