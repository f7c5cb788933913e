package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sampottinger/kipling-package-index/internal/server/metadata"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
	"github.com/sampottinger/kipling-package-index/internal/server/services"
)

const internalMessage = "internal server error"

// envelope is the body of every response.
type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Record    *models.Package `json:"record,omitempty"`
	URL       string          `json:"url,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	Signature string          `json:"signature,omitempty"`
}

func success(message string) envelope {
	return envelope{Success: true, Message: message}
}

func failure(message string) envelope {
	return envelope{Success: false, Message: message}
}

func published(message string, res *services.PublishResult) envelope {
	e := success(message)
	e.Record = res.Record
	e.URL = res.Credential.URL
	e.ExpiresAt = &res.Credential.ExpiresAt
	e.Signature = res.Credential.Signature
	return e
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var domainErrors = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrMissingDescriptor, http.StatusBadRequest, "No package metadata provided."},
	{services.ErrPermission, http.StatusForbidden, "Username, password, or package name incorrect."},
	{services.ErrNotAnAuthor, http.StatusForbidden, "Your username must be in the author's list."},
	{services.ErrNotFound, http.StatusNotFound, "Package not found in the index."},
	{services.ErrDuplicateName, http.StatusConflict, "A package by that name already exists."},
	{services.ErrUserExists, http.StatusConflict, "A user with that username or email address already exists."},
}

// writeAccountError is writeError for the account routes, which refuse bad
// credentials without mentioning packages.
func writeAccountError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrPermission) {
		writeJSON(w, http.StatusForbidden, failure("Incorrect username or password provided."))
		return
	}
	writeError(w, err)
}

// writeError maps err to a status and a client-facing message. Anything
// that is not a domain error is reported as a bare 500.
func writeError(w http.ResponseWriter, err error) {
	var ve *metadata.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, failure(ve.Error()))
		return
	}
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			writeJSON(w, d.status, failure(d.message))
			return
		}
	}
	writeJSON(w, http.StatusInternalServerError, failure(internalMessage))
}
