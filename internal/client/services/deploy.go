package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/sampottinger/kipling-package-index/internal/client/client"
	"github.com/sampottinger/kipling-package-index/internal/client/models"
	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/logging"
	"github.com/sampottinger/kipling-package-index/internal/netx"
)

// PackageAPI is the part of the index API the deploy driver calls.
type PackageAPI interface {
	CreatePackage(ctx context.Context, form url.Values) (*client.Response, error)
	UpdatePackage(ctx context.Context, name string, form url.Values) (*client.Response, error)
}

// DeployRequest describes one create or update.
//
// Name, when set, must equal the name in module.json.
type DeployRequest struct {
	Create         bool
	Name           string
	Username       string
	Password       string
	DescriptorPath string
	ArchivePath    string
}

// Deployer publishes packages: metadata through the API, then the archive
// to the signed URL the server hands back.
type Deployer struct {
	api  PackageAPI
	http *http.Client
	log  logging.Logger
}

// NewDeployer wires a Deployer. httpClient is used for archive uploads; nil
// means http.DefaultClient.
func NewDeployer(api PackageAPI, httpClient *http.Client, log logging.Logger) *Deployer {
	return &Deployer{api: api, http: httpClient, log: log}
}

// Deploy runs a create or update.
//
// Outcomes:
//   - local problems (descriptor, archive, name) fail before any request;
//   - a rejected or failed publish returns the client error untouched;
//   - a failed upload returns *PartialPublishError wrapping ErrBlobUpload;
//   - otherwise the server's publish response.
func (d *Deployer) Deploy(ctx context.Context, req DeployRequest) (*client.Response, error) {
	desc, err := loadDescriptor(req.DescriptorPath)
	if err != nil {
		return nil, err
	}
	if err := desc.Check(common.DefaultLicense); err != nil {
		return nil, err
	}
	if req.Name != "" && req.Name != desc.Name {
		return nil, fmt.Errorf("%w: %q vs %q", ErrNameMismatch, req.Name, desc.Name)
	}

	archive, err := os.ReadFile(req.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchive, err)
	}

	form := desc.Form(req.Username, req.Password)

	var resp *client.Response
	if req.Create {
		resp, err = d.api.CreatePackage(ctx, form)
	} else {
		resp, err = d.api.UpdatePackage(ctx, desc.Name, form)
	}
	if err != nil {
		return nil, err
	}

	cred := resp.Credential()
	if cred == nil {
		return nil, &PartialPublishError{Result: resp, Err: fmt.Errorf("%w: no upload url in response", ErrBlobUpload)}
	}

	if err := netx.UploadArchive(ctx, d.http, cred.URL, archive); err != nil {
		d.log.Warn(ctx, "archive upload failed", "name", desc.Name, "expires_at", cred.ExpiresAt, "error", err)
		return nil, &PartialPublishError{Result: resp, Err: fmt.Errorf("%w: %w", ErrBlobUpload, err)}
	}

	d.log.Debug(ctx, "package deployed", "name", desc.Name, "version", desc.Version, "bytes", len(archive))
	return resp, nil
}

func loadDescriptor(path string) (*models.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingDescriptor, err)
	}
	desc, err := models.ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingDescriptor, err)
	}
	return desc, nil
}

// IsPartial reports whether err is a deploy that stored metadata only.
func IsPartial(err error) bool {
	var pe *PartialPublishError
	return errors.As(err, &pe)
}
