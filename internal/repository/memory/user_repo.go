package memory

import (
	"context"
	"errors"
	"sync"

	"driverfeed/internal/domain/entities"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entities.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*entities.User),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}
