package services

import "errors"

// Domain errors. Everything else a service returns is an infrastructure
// failure.
var (
	ErrMissingDescriptor  = errors.New("no package metadata submitted")
	ErrDuplicateName      = errors.New("a package by that name already exists")
	ErrNotAnAuthor        = errors.New("submitter is not in the authors list")
	ErrPermission         = errors.New("incorrect username, password, or package name")
	ErrNotFound           = errors.New("package not found in the index")
	ErrCredentialIssuance = errors.New("could not issue upload credential")
	ErrUserExists         = errors.New("a user with that username or email address already exists")
	ErrNotification       = errors.New("account e-mail could not be delivered")
)

// Stage is a step of a package operation.
type Stage string

const (
	StageValidating    Stage = "validating"
	StageAuthorizing   Stage = "authorizing"
	StagePersisting    Stage = "persisting"
	StageCredentialing Stage = "credentialing"
)

// PublishError reports the stage in which a package operation failed.
type PublishError struct {
	Stage Stage
	Err   error
}

func (e *PublishError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func failed(stage Stage, err error) error {
	return &PublishError{Stage: stage, Err: err}
}
