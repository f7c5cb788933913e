package packages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/dbx"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, name string) (*models.Package, error) {
	query :=
		`SELECT name, human_name, version, authors, license, description, homepage, repository
		 FROM packages
		 WHERE name = $1
		 `

	var (
		p                                  models.Package
		authors                            []byte
		description, homepage, repository sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&p.Name, &p.HumanName, &p.Version, &authors, &p.License,
		&description, &homepage, &repository,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(authors, &p.Authors); err != nil {
		return nil, fmt.Errorf("decode authors of %q: %w", name, err)
	}
	p.Description = fromNull(description)
	p.Homepage = fromNull(homepage)
	p.Repository = fromNull(repository)
	return &p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, pkg *models.Package) error {
	query :=
		`INSERT INTO packages (name, human_name, version, authors, license, description, homepage, repository)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (name) DO UPDATE SET
		   human_name  = EXCLUDED.human_name,
		   version     = EXCLUDED.version,
		   authors     = EXCLUDED.authors,
		   license     = EXCLUDED.license,
		   description = COALESCE(EXCLUDED.description, packages.description),
		   homepage    = COALESCE(EXCLUDED.homepage, packages.homepage),
		   repository  = COALESCE(EXCLUDED.repository, packages.repository)
		 `

	args, err := packageArgs(pkg)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, pkg *models.Package) error {
	query :=
		`INSERT INTO packages (name, human_name, version, authors, license, description, homepage, repository)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (name) DO NOTHING
		 `

	args, err := packageArgs(pkg)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, name string) error {
	query := `DELETE FROM packages WHERE name = $1`

	if _, err := r.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// packageArgs orders pkg's columns for the insert statements. Authors are
// sent as JSON text and cast by the JSONB column.
func packageArgs(pkg *models.Package) ([]any, error) {
	authors, err := json.Marshal(pkg.Authors)
	if err != nil {
		return nil, fmt.Errorf("encode authors: %w", err)
	}
	return []any{
		pkg.Name, pkg.HumanName, pkg.Version, string(authors), pkg.License,
		toNull(pkg.Description), toNull(pkg.Homepage), toNull(pkg.Repository),
	}, nil
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
