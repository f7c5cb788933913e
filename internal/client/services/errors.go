package services

import (
	"errors"
	"fmt"

	"github.com/sampottinger/kipling-package-index/internal/client/client"
)

var (
	// ErrMissingDescriptor means module.json could not be read or parsed.
	ErrMissingDescriptor = errors.New("could not load module.json")
	// ErrArchive means the package archive could not be read.
	ErrArchive = errors.New("zip file not found or invalid")
	// ErrNameMismatch means the requested name differs from module.json.
	ErrNameMismatch = errors.New("package name does not match module.json")
	// ErrBlobUpload means the archive upload failed after the server
	// accepted the metadata. The index is not rolled back.
	ErrBlobUpload = errors.New("archive upload failed")
)

// PartialPublishError reports a publish whose metadata was stored but whose
// archive was not. Result is the server's answer to the publish call.
type PartialPublishError struct {
	Result *client.Response
	Err    error
}

func (e *PartialPublishError) Error() string {
	return fmt.Sprintf("metadata published but archive not stored: %v", e.Err)
}

func (e *PartialPublishError) Unwrap() error {
	return e.Err
}
