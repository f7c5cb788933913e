package repomanager

import (
	"context"
	"database/sql"

	"github.com/sampottinger/kipling-package-index/internal/dbx"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/packages"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/users"
)

// MemoryRepositoryManager serves one process-wide in-memory store. The db
// handles it receives are ignored and may be nil.
type MemoryRepositoryManager struct {
	users    *users.MemoryRepository
	packages *packages.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:    users.NewMemoryRepository(),
		packages: packages.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) Packages(dbx.DBTX) packages.Repository { return m.packages }

// WithTx calls fn directly. Each memory repository call is atomic on its
// own; there is no multi-statement rollback.
func (m *MemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}
