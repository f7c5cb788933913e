package users

import (
	"context"
	"sync"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

// MemoryRepository keeps accounts in process memory. It is safe for
// concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User)}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return common.ErrorAlreadyExists
	}
	if r.emailTakenLocked(user.Email, "") {
		return common.ErrorAlreadyExists
	}
	r.users[user.Username] = *user
	return nil
}

func (r *MemoryRepository) Upsert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(user.Email, user.Username) {
		return common.ErrorAlreadyExists
	}
	r.users[user.Username] = *user
	return nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// emailTakenLocked reports whether an account other than owner uses email.
func (r *MemoryRepository) emailTakenLocked(email, owner string) bool {
	for name, u := range r.users {
		if u.Email == email && name != owner {
			return true
		}
	}
	return false
}
