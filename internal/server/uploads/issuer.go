// Package uploads issues short-lived signed URLs that let a publisher PUT a
// package archive straight into the blob store.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"time"

	sc "github.com/sampottinger/kipling-package-index/internal/server/config"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

// DefaultTTL is used when no positive TTL is configured.
const DefaultTTL = 15 * time.Minute

var errNoName = errors.New("package name is empty")

// Issuer produces an upload credential for the archive of one package. The
// result depends only on the inputs and the issuer's configuration.
type Issuer interface {
	Issue(ctx context.Context, packageName string, now time.Time) (*models.UploadCredential, error)
}

// New returns the issuer selected by cfg.UploadSigner.
func New(ctx context.Context, cfg *sc.Config) (Issuer, error) {
	switch cfg.UploadSigner {
	case sc.SignerQuery, "":
		return NewQueryAuthIssuer(QueryAuthOptions{
			Bucket:     cfg.S3Bucket,
			ObjectHost: cfg.S3ObjectHost,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			TTL:        cfg.UploadTTL,
		})
	case sc.SignerPresign:
		return NewPresignIssuer(ctx, PresignOptions{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
			TTL:          cfg.UploadTTL,
		})
	default:
		return nil, fmt.Errorf("unknown upload signer %q", cfg.UploadSigner)
	}
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
