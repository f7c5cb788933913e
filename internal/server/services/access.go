package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// AccessControl answers whether a caller may act, reading only the store.
// A false answer is a refusal; a non-nil error means the store could not
// be consulted.
type AccessControl struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAccessControl(db *sql.DB, m repomanager.RepositoryManager) *AccessControl {
	return &AccessControl{db: db, repomanager: m}
}

// VerifyCredentials reports whether password matches the stored hash of
// username. Unknown users are refused.
func (a *AccessControl) VerifyCredentials(ctx context.Context, username, password string) (bool, error) {
	user, err := a.repomanager.Users(a.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load user %q: %w", username, err)
	}
	return checkPassword(user.PasswordHash, password)
}

// VerifyPackagePermission reports whether the credentials are valid and
// username is among the stored authors of package name.
func (a *AccessControl) VerifyPackagePermission(ctx context.Context, username, password, name string) (bool, error) {
	ok, err := a.VerifyCredentials(ctx, username, password)
	if err != nil || !ok {
		return false, err
	}

	pkg, err := a.repomanager.Packages(a.db).Get(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load package %q: %w", name, err)
	}
	return pkg.HasAuthor(username), nil
}

func checkPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password hash: %w", err)
	}
}

func hashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
