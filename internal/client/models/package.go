package models

import (
	"strings"
	"time"
)

// Package is an index record as returned by the server.
type Package struct {
	Name        string   `json:"name"`
	HumanName   string   `json:"humanName"`
	Version     string   `json:"version"`
	Authors     []string `json:"authors"`
	License     string   `json:"license"`
	Description *string  `json:"description,omitempty"`
	Homepage    *string  `json:"homepage,omitempty"`
	Repository  *string  `json:"repository,omitempty"`
}

// AuthorList joins the authors for display.
func (p *Package) AuthorList() string {
	return strings.Join(p.Authors, ", ")
}

// UploadCredential is the signed archive upload returned by a publish call.
type UploadCredential struct {
	URL       string
	ExpiresAt time.Time
	Signature string
}
