package packages

import (
	"context"
	"sync"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

// MemoryRepository keeps packages in process memory. Every write happens
// under one lock, so Insert is an atomic insert-if-absent.
type MemoryRepository struct {
	mu       sync.RWMutex
	packages map[string]*models.Package
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{packages: make(map[string]*models.Package)}
}

func (r *MemoryRepository) Get(_ context.Context, name string) (*models.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.packages[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(p), nil
}

func (r *MemoryRepository) Upsert(_ context.Context, pkg *models.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.packages[pkg.Name] = clone(pkg.Merge(r.packages[pkg.Name]))
	return nil
}

func (r *MemoryRepository) Insert(_ context.Context, pkg *models.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.packages[pkg.Name]; ok {
		return common.ErrorAlreadyExists
	}
	r.packages[pkg.Name] = clone(pkg)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.packages, name)
	return nil
}

func clone(p *models.Package) *models.Package {
	c := *p
	c.Authors = append([]string(nil), p.Authors...)
	c.Description = cloneString(p.Description)
	c.Homepage = cloneString(p.Homepage)
	c.Repository = cloneString(p.Repository)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
