package models

import "time"

// UploadCredential lets its holder PUT one package archive into the blob
// store until ExpiresAt. It is generated per publish call and never stored.
type UploadCredential struct {
	// URL is the complete signed request URL.
	URL string `json:"url"`
	// ExpiresAt is when the blob store stops honouring URL.
	ExpiresAt time.Time `json:"expiresAt"`
	// Signature is the signature carried in URL, before query escaping.
	Signature string `json:"signature"`
}
