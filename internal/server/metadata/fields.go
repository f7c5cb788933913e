// Package metadata turns untrusted, form-encoded package submissions into
// validated models.Package records.
package metadata

import (
	"fmt"
	"regexp"

	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

// Submission keys understood by the index.
const (
	FieldAuthors     = "authors"
	// FieldAuthorsList carries authors as an explicit list, one value per
	// author, whatever the count.
	FieldAuthorsList = "authors[]"
	FieldLicense     = "license"
	FieldName        = "name"
	FieldHumanName   = "humanName"
	FieldVersion     = "version"
	FieldDescription = "description"
	FieldHomepage    = "homepage"
	FieldRepository  = "repository"
)

// AllowedFields is the allow-list applied by Project.
var AllowedFields = []string{
	FieldAuthors,
	FieldAuthorsList,
	FieldLicense,
	FieldName,
	FieldHumanName,
	FieldVersion,
	FieldDescription,
	FieldHomepage,
	FieldRepository,
}

// RequiredFields are checked in this order; the first absent one is reported.
var RequiredFields = []string{
	FieldAuthors,
	FieldLicense,
	FieldName,
	FieldHumanName,
	FieldVersion,
}

var namePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidationError names the submission field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return e.Field + " is required but not provided."
	}
	return fmt.Sprintf("%s %s.", e.Field, e.Reason)
}

// Fields is a projected submission: allowed keys only, each with the raw
// values it arrived with.
type Fields map[string][]string

// Has reports whether key was submitted with at least one value. An empty
// string counts as submitted.
func (f Fields) Has(key string) bool {
	return len(f[key]) > 0
}

// HasAuthors reports whether authors came under either encoding.
func (f Fields) HasAuthors() bool {
	return f.Has(FieldAuthors) || f.Has(FieldAuthorsList)
}

// Authors tags the submitted authors. Values under authors[] are a list
// used verbatim and win over the authors key.
func (f Fields) Authors() Authors {
	if f.Has(FieldAuthorsList) {
		return Authors{Kind: AuthorsList, List: append([]string(nil), f[FieldAuthorsList]...)}
	}
	return AuthorsFromValues(f[FieldAuthors])
}

// Get returns the first value of key, or "".
func (f Fields) Get(key string) string {
	if v := f[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Project copies only AllowedFields out of input. Everything else, including
// credentials that share the form, is dropped.
func Project(input map[string][]string) Fields {
	out := make(Fields, len(AllowedFields))
	for _, key := range AllowedFields {
		if values, ok := input[key]; ok && len(values) > 0 {
			out[key] = append([]string(nil), values...)
		}
	}
	return out
}

// ValidateRequired returns a *ValidationError for the first field of
// RequiredFields that f lacks.
func ValidateRequired(f Fields) error {
	for _, key := range RequiredFields {
		present := f.Has(key)
		if key == FieldAuthors {
			present = f.HasAuthors()
		}
		if !present {
			return &ValidationError{Field: key}
		}
	}
	return nil
}

// ToPackage validates f and builds the normalized record. Authors are
// normalized to an ordered list which must not be empty; the name must be
// an identifier so it is safe in URLs and object keys.
func ToPackage(f Fields) (*models.Package, error) {
	if err := ValidateRequired(f); err != nil {
		return nil, err
	}

	authors := NormalizeAuthors(f.Authors())
	if len(authors) == 0 {
		return nil, &ValidationError{Field: FieldAuthors, Reason: "must list at least one username"}
	}

	name := f.Get(FieldName)
	if !namePattern.MatchString(name) {
		return nil, &ValidationError{Field: FieldName, Reason: "must be a machine-safe identifier"}
	}

	p := &models.Package{
		Name:      name,
		HumanName: f.Get(FieldHumanName),
		Version:   f.Get(FieldVersion),
		Authors:   authors,
		License:   f.Get(FieldLicense),
	}
	if f.Has(FieldDescription) {
		p.Description = optional(f.Get(FieldDescription))
	}
	if f.Has(FieldHomepage) {
		p.Homepage = optional(f.Get(FieldHomepage))
	}
	if f.Has(FieldRepository) {
		p.Repository = optional(f.Get(FieldRepository))
	}
	return p, nil
}

func optional(s string) *string {
	return &s
}
