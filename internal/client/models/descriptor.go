// Package models holds the client-side shapes of package metadata: the
// module.json descriptor read from disk and the record returned by the index.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Authors is the authors entry of module.json. Authors may be written as a
// JSON list or as one comma-separated string; Joined records which.
type Authors struct {
	Names  []string
	Joined bool
}

func (a *Authors) UnmarshalJSON(b []byte) error {
	var joined string
	if err := json.Unmarshal(b, &joined); err == nil {
		a.Names, a.Joined = []string{joined}, true
		return nil
	}
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return errors.New("authors must be a string or a list of strings")
	}
	a.Names, a.Joined = names, false
	return nil
}

func (a Authors) MarshalJSON() ([]byte, error) {
	if a.Joined && len(a.Names) == 1 {
		return json.Marshal(a.Names[0])
	}
	return json.Marshal(a.Names)
}

// Empty reports whether no non-blank author name is given.
func (a Authors) Empty() bool {
	for _, n := range a.Names {
		for _, part := range strings.Split(n, ",") {
			if strings.TrimSpace(part) != "" {
				return false
			}
		}
	}
	return true
}

// Descriptor is the module.json file shipped next to a package archive.
type Descriptor struct {
	Name        string  `json:"name"`
	HumanName   string  `json:"humanName"`
	Version     string  `json:"version"`
	Authors     Authors `json:"authors"`
	License     string  `json:"license"`
	Description *string `json:"description,omitempty"`
	Homepage    *string `json:"homepage,omitempty"`
	Repository  *string `json:"repository,omitempty"`
}

// MissingFieldError names the first required descriptor field that is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s field is required but missing in module.json", e.Field)
}

// ParseDescriptor decodes module.json contents.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Check reports the first missing field among name, humanName, version and
// authors, in that order, and fills in defaultLicense when none is given.
func (d *Descriptor) Check(defaultLicense string) error {
	switch {
	case d.Name == "":
		return &MissingFieldError{Field: "name"}
	case d.HumanName == "":
		return &MissingFieldError{Field: "humanName"}
	case d.Version == "":
		return &MissingFieldError{Field: "version"}
	case d.Authors.Empty():
		return &MissingFieldError{Field: "authors"}
	}
	if d.License == "" {
		d.License = defaultLicense
	}
	return nil
}

// Form encodes the descriptor plus credentials as the publish request body.
// A list of authors is sent under authors[], one value per entry, so a list
// of one stays a list; a joined string is sent under authors as is.
func (d *Descriptor) Form(username, password string) url.Values {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("name", d.Name)
	form.Set("humanName", d.HumanName)
	form.Set("version", d.Version)
	form.Set("license", d.License)
	key := "authors[]"
	if d.Authors.Joined {
		key = "authors"
	}
	for _, a := range d.Authors.Names {
		form.Add(key, a)
	}
	setOptional(form, "description", d.Description)
	setOptional(form, "homepage", d.Homepage)
	setOptional(form, "repository", d.Repository)
	return form
}

func setOptional(form url.Values, key string, v *string) {
	if v != nil {
		form.Set(key, *v)
	}
}
