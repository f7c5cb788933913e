package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sampottinger/kipling-package-index/internal/server/metadata"
	"github.com/sampottinger/kipling-package-index/internal/server/services"
)

// readForm returns the form-encoded body. DELETE bodies are parsed by hand
// since net/http only reads bodies of POST, PUT and PATCH.
func readForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if r.Method != http.MethodDelete {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return r.PostForm, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	return form, nil
}

// badForm answers an unparsable body as a missing descriptor.
func badForm(w http.ResponseWriter, err error) error {
	writeError(w, services.ErrMissingDescriptor)
	return fmt.Errorf("%w: %w", services.ErrMissingDescriptor, err)
}

func submission(form url.Values) services.Submission {
	return services.Submission{
		Username: form.Get("username"),
		Password: form.Get("password"),
		Form:     form,
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) error {
	form, err := readForm(w, r)
	if err != nil {
		return badForm(w, err)
	}

	res, err := s.packages.Create(r.Context(), submission(form))
	if err != nil {
		writeError(w, err)
		return err
	}

	writeJSON(w, http.StatusOK, published("Package created.", res))
	return nil
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) error {
	pkg, err := s.packages.Read(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return err
	}

	body := success("")
	body.Record = pkg
	writeJSON(w, http.StatusOK, body)
	return nil
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) error {
	form, err := readForm(w, r)
	if err != nil {
		return badForm(w, err)
	}

	res, err := s.packages.Update(r.Context(), r.PathValue("name"), submission(form))
	if err != nil {
		writeError(w, err)
		return err
	}

	writeJSON(w, http.StatusOK, published("Package updated.", res))
	return nil
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) error {
	form, err := readForm(w, r)
	if err != nil {
		return badForm(w, err)
	}

	err = s.packages.Delete(r.Context(), r.PathValue("name"), form.Get("username"), form.Get("password"))
	if err != nil {
		writeError(w, err)
		return err
	}

	writeJSON(w, http.StatusOK, success("Package deleted."))
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	form, err := readForm(w, r)
	if err != nil {
		return badForm(w, err)
	}

	if err := s.users.Register(r.Context(), form.Get("username"), form.Get("email")); err != nil {
		writeError(w, err)
		return err
	}

	writeJSON(w, http.StatusOK, success("User account created."))
	return nil
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) error {
	form, err := readForm(w, r)
	if err != nil {
		return badForm(w, err)
	}

	oldPassword, newPassword := form.Get("old_password"), form.Get("new_password")
	if oldPassword == "" {
		err := &metadata.ValidationError{Field: "old_password"}
		writeError(w, err)
		return err
	}

	err = s.users.ChangePassword(r.Context(), r.PathValue("username"), oldPassword, newPassword)
	if err != nil {
		writeAccountError(w, err)
		return err
	}

	writeJSON(w, http.StatusOK, success("User password updated."))
	return nil
}
