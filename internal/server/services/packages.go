package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/logging"
	"github.com/sampottinger/kipling-package-index/internal/server/metadata"
	"github.com/sampottinger/kipling-package-index/internal/server/metrics"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/repomanager"
	"github.com/sampottinger/kipling-package-index/internal/server/uploads"
)

// Submission is a create or update request: the submitter's credentials and
// the raw form carrying the package metadata.
type Submission struct {
	Username string
	Password string
	Form     url.Values
}

// PublishResult is what a successful create or update hands back: the stored
// record and a credential for uploading its archive.
type PublishResult struct {
	Record     *models.Package
	Credential *models.UploadCredential
}

// PackageService runs package operations through the stages
// validating, authorizing, persisting and credentialing. Any failure is a
// *PublishError naming the stage it happened in.
type PackageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *AccessControl
	issuer      uploads.Issuer
	log         logging.Logger
	metrics     *metrics.Recorder
	now         func() time.Time
}

func NewPackageService(db *sql.DB, m repomanager.RepositoryManager, issuer uploads.Issuer,
	log logging.Logger, rec *metrics.Recorder) *PackageService {
	return &PackageService{
		db:          db,
		repomanager: m,
		access:      NewAccessControl(db, m),
		issuer:      issuer,
		log:         log.With("module", "packages"),
		metrics:     rec,
		now:         time.Now,
	}
}

// Create adds a package that does not exist yet. The submitter must be one
// of the submitted authors.
func (s *PackageService) Create(ctx context.Context, sub Submission) (res *PublishResult, err error) {
	defer s.observe(ctx, "create", &err)

	pkg, err := s.validate(sub.Form, "")
	if err != nil {
		return nil, err
	}

	ok, err := s.access.VerifyCredentials(ctx, sub.Username, sub.Password)
	if err != nil {
		return nil, failed(StageAuthorizing, err)
	}
	if !ok {
		return nil, failed(StageAuthorizing, ErrPermission)
	}
	if !pkg.HasAuthor(sub.Username) {
		return nil, failed(StageAuthorizing, ErrNotAnAuthor)
	}

	repo := s.repomanager.Packages(s.db)

	_, err = repo.Get(ctx, pkg.Name)
	switch {
	case err == nil:
		return nil, failed(StageAuthorizing, ErrDuplicateName)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, failed(StageAuthorizing, err)
	}

	// The lookup above is a fast path only; Insert settles concurrent creates.
	if err := repo.Insert(ctx, pkg); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, failed(StagePersisting, ErrDuplicateName)
		}
		return nil, failed(StagePersisting, err)
	}

	cred, err := s.issue(ctx, pkg.Name)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "package created", "name", pkg.Name, "version", pkg.Version, "user", sub.Username)
	return &PublishResult{Record: pkg, Credential: cred}, nil
}

// Update merges the submission over package name. The submitter must be an
// author of the stored record; the submitted authors list replaces it.
func (s *PackageService) Update(ctx context.Context, name string, sub Submission) (res *PublishResult, err error) {
	defer s.observe(ctx, "update", &err)

	pkg, err := s.validate(sub.Form, name)
	if err != nil {
		return nil, err
	}

	ok, err := s.access.VerifyPackagePermission(ctx, sub.Username, sub.Password, name)
	if err != nil {
		return nil, failed(StageAuthorizing, err)
	}
	if !ok {
		return nil, failed(StageAuthorizing, ErrPermission)
	}

	repo := s.repomanager.Packages(s.db)
	if err := repo.Upsert(ctx, pkg); err != nil {
		return nil, failed(StagePersisting, err)
	}
	stored, err := repo.Get(ctx, name)
	if err != nil {
		return nil, failed(StagePersisting, err)
	}

	cred, err := s.issue(ctx, name)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "package updated", "name", name, "version", stored.Version, "user", sub.Username)
	return &PublishResult{Record: stored, Credential: cred}, nil
}

// Delete removes package name. Valid credentials are always required; an
// absent package then counts as deleted, a present one needs the caller
// among its authors.
func (s *PackageService) Delete(ctx context.Context, name, user, password string) (err error) {
	defer s.observe(ctx, "delete", &err)

	ok, err := s.access.VerifyCredentials(ctx, user, password)
	if err != nil {
		return failed(StageAuthorizing, err)
	}
	if !ok {
		return failed(StageAuthorizing, ErrPermission)
	}

	repo := s.repomanager.Packages(s.db)
	pkg, err := repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return failed(StageAuthorizing, err)
	}
	if !pkg.HasAuthor(user) {
		return failed(StageAuthorizing, ErrPermission)
	}

	if err := repo.Delete(ctx, name); err != nil {
		return failed(StagePersisting, err)
	}

	s.log.Info(ctx, "package deleted", "name", name, "user", user)
	return nil
}

// Read returns the stored record. It needs no credentials.
func (s *PackageService) Read(ctx context.Context, name string) (*models.Package, error) {
	pkg, err := s.repomanager.Packages(s.db).Get(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read package %q: %w", name, err)
	}
	return pkg, nil
}

// validate turns the form into a package. For updates pathName is the
// package addressed by the request; a form without a name takes it, a form
// with a different name is rejected.
func (s *PackageService) validate(form url.Values, pathName string) (*models.Package, error) {
	fields := metadata.Project(form)
	if len(fields) == 0 {
		return nil, failed(StageValidating, ErrMissingDescriptor)
	}

	if pathName != "" {
		switch {
		case !fields.Has(metadata.FieldName):
			fields[metadata.FieldName] = []string{pathName}
		case fields.Get(metadata.FieldName) != pathName:
			return nil, failed(StageValidating, &metadata.ValidationError{
				Field:  metadata.FieldName,
				Reason: "must match the package being updated",
			})
		}
	}

	pkg, err := metadata.ToPackage(fields)
	if err != nil {
		return nil, failed(StageValidating, err)
	}
	return pkg, nil
}

func (s *PackageService) issue(ctx context.Context, name string) (*models.UploadCredential, error) {
	cred, err := s.issuer.Issue(ctx, name, s.now())
	if err != nil {
		return nil, failed(StageCredentialing, fmt.Errorf("%w: %w", ErrCredentialIssuance, err))
	}
	return cred, nil
}

func (s *PackageService) observe(ctx context.Context, operation string, errp *error) {
	outcome := metrics.OutcomeSuccess
	if err := *errp; err != nil {
		outcome = "failed"
		var pe *PublishError
		if errors.As(err, &pe) {
			outcome = string(pe.Stage)
		}
		if !IsDomainError(err) {
			s.log.Error(ctx, "package operation failed", "operation", operation, "error", err)
		}
	}
	s.metrics.ObserveOperation(operation, outcome)
}

// IsDomainError reports whether err is an expected refusal rather than an
// infrastructure failure.
func IsDomainError(err error) bool {
	var ve *metadata.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, ErrMissingDescriptor),
		errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrNotAnAuthor),
		errors.Is(err, ErrPermission),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUserExists):
		return true
	}
	return false
}
