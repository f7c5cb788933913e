// Package models defines server-side data models persisted in the store or
// handed back to clients.
package models

// User is an account allowed to publish packages. PasswordHash is a bcrypt
// hash and is never serialised to clients.
type User struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}
