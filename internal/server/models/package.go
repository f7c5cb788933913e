package models

// Package is the index record of a distributable module, keyed by Name.
//
// Optional fields are pointers: nil means "not submitted", which lets an
// update leave the stored value in place.
type Package struct {
	// Name is the machine-safe identifier and unique key.
	Name string `json:"name"`
	// HumanName is the display name.
	HumanName string `json:"humanName"`
	// Version is opaque to the index.
	Version string `json:"version"`
	// Authors lists, in order, the usernames allowed to change the package.
	Authors []string `json:"authors"`
	License string   `json:"license"`

	Description *string `json:"description,omitempty"`
	Homepage    *string `json:"homepage,omitempty"`
	Repository  *string `json:"repository,omitempty"`
}

// HasAuthor reports whether username is listed in p.Authors.
func (p *Package) HasAuthor(username string) bool {
	for _, a := range p.Authors {
		if a == username {
			return true
		}
	}
	return false
}

// Merge returns prior with the fields present in p written over it.
// Required fields are always present; optional ones only when non-nil.
func (p *Package) Merge(prior *Package) *Package {
	merged := *p
	merged.Authors = append([]string(nil), p.Authors...)
	if prior == nil {
		return &merged
	}
	if merged.Description == nil {
		merged.Description = prior.Description
	}
	if merged.Homepage == nil {
		merged.Homepage = prior.Homepage
	}
	if merged.Repository == nil {
		merged.Repository = prior.Repository
	}
	return &merged
}
