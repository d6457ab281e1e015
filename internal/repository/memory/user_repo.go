package memory

import (
	"context"
	"sync"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User // keyed by userId
	email map[string]string       // email -> userId
}

func NewUserRepository() repository.UserRepository {
	return &userRepository{
		users: make(map[string]*domain.User),
		email: make(map[string]string),
	}
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.email[user.Email]; exists {
		return domain.ErrEmailExists
	}

	u := *user
	r.users[u.UserID] = &u
	r.email[u.Email] = u.UserID
	return nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.email[email]
	if !ok {
		return nil, nil
	}
	u := *r.users[id]
	return &u, nil
}

func (r *userRepository) FindByID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *userRepository) MarkVerified(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}
