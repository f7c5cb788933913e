// Package repomanager hands out store-specific repositories so services can
// stay agnostic of the backing store.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/sampottinger/kipling-package-index/internal/dbx"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/packages"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Packages(db dbx.DBTX) packages.Repository
	// WithTx runs fn with a transactional handle when the store has one.
	WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error
}
