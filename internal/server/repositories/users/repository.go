// Package users stores index accounts keyed by username.
package users

import (
	"context"

	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

type Repository interface {
	// Create inserts a new account. It fails with common.ErrorAlreadyExists
	// when the username or the email is taken.
	Create(ctx context.Context, user *models.User) error
	// Upsert writes user, replacing any account with the same username.
	Upsert(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
