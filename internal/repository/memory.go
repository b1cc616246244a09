package repository

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/halolight/console/internal/models"
)

// SeedUser is a user with a plain-text password to load at startup.
type SeedUser struct {
	ID       string
	Email    string
	Password string
	Name     string
	Avatar   string
	Role     string
}

// DefaultUsers returns the demo accounts. All use the password 123456.
func DefaultUsers() []SeedUser {
	return []SeedUser{
		{ID: "1", Email: "admin@halolight.h7ml.cn", Password: "123456", Name: "管理员", Role: models.RoleAdmin},
		{ID: "2", Email: "admin@halolight.h7ml.cn", Password: "123456", Name: "管理员", Role: models.RoleAdmin},
		{ID: "3", Email: "user@example.com", Password: "123456", Name: "普通用户", Role: models.RoleUser},
	}
}

// MemoryAuthRepository keeps users in memory.
type MemoryAuthRepository struct {
	mu    sync.RWMutex
	users []models.User
	cost  int
}

// NewMemoryAuthRepository returns a repository holding seed. Hashes use
// the given bcrypt cost.
func NewMemoryAuthRepository(seed []SeedUser, cost int) (*MemoryAuthRepository, error) {
	r := &MemoryAuthRepository{cost: cost}
	for _, su := range seed {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", su.ID, err)
		}
		r.users = append(r.users, models.User{
			ID:           su.ID,
			Email:        su.Email,
			Name:         su.Name,
			Avatar:       su.Avatar,
			Role:         su.Role,
			PasswordHash: hash,
		})
	}
	return r, nil
}

// FindByCredentials returns the first user whose email and password match.
func (r *MemoryAuthRepository) FindByCredentials(_ context.Context, email, password string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil {
			return u, nil
		}
	}
	return models.User{}, ErrInvalidCredentials
}

// FindByID returns the user with id.
func (r *MemoryAuthRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

// Create appends user with a hash of password.
func (r *MemoryAuthRepository) Create(_ context.Context, user models.User, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	return user, nil
}
