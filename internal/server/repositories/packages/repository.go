// Package packages stores package records keyed by their machine-safe name.
package packages

import (
	"context"

	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when no package has that name.
	Get(ctx context.Context, name string) (*models.Package, error)
	// Upsert creates pkg or merges it over the stored record. Optional fields
	// left nil keep their stored value.
	Upsert(ctx context.Context, pkg *models.Package) error
	// Insert stores pkg only if the name is free, else common.ErrorAlreadyExists.
	Insert(ctx context.Context, pkg *models.Package) error
	// Delete removes the record. A missing record is not an error.
	Delete(ctx context.Context, name string) error
}
