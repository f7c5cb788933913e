package uploads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sampottinger/kipling-package-index/internal/common"
	sc "github.com/sampottinger/kipling-package-index/internal/server/config"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

type PresignOptions struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// BaseEndpoint points at an S3-compatible store such as MinIO; it also
	// switches to path-style addressing.
	BaseEndpoint string
	TTL          time.Duration
}

// PresignIssuer signs URLs with SigV4 through the AWS SDK.
type PresignIssuer struct {
	opts   PresignOptions
	client *s3.PresignClient
}

func NewPresignIssuer(ctx context.Context, opts PresignOptions) (*PresignIssuer, error) {
	if opts.Bucket == "" {
		return nil, errors.New("presign issuer: bucket is required")
	}
	opts.TTL = ttlOrDefault(opts.TTL)
	if opts.TTL > sc.MaxPresignTTL {
		return nil, fmt.Errorf("presign issuer: ttl %s exceeds %s", opts.TTL, sc.MaxPresignTTL)
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey, opts.SecretKey, "",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &PresignIssuer{opts: opts, client: newS3PresignClient(client)}, nil
}

func (i *PresignIssuer) Issue(ctx context.Context, packageName string, now time.Time) (*models.UploadCredential, error) {
	if packageName == "" {
		return nil, errNoName
	}

	now = now.UTC().Truncate(time.Second)
	key := common.ArchiveObjectKey(packageName)

	req, err := presignPutObject(i.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(i.opts.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(common.ArchiveContentType),
		ACL:         types.ObjectCannedACLPublicRead,
	}, s3.WithPresignExpires(i.opts.TTL), func(o *s3.PresignOptions) {
		o.Presigner = archivePresigner{next: v4.NewSigner(), at: now}
	})
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parse presigned url: %w", err)
	}

	return &models.UploadCredential{
		URL:       req.URL,
		ExpiresAt: now.Add(i.opts.TTL),
		Signature: u.Query().Get("X-Amz-Signature"),
	}, nil
}

// archivePresigner signs with a fixed time instead of the SDK clock. It also
// puts the archive content type back on the request, since the SDK strips
// Content-Type from body-less presigns, so the upload must send it.
type archivePresigner struct {
	next s3.HTTPPresignerV4
	at   time.Time
}

func (p archivePresigner) PresignHTTP(
	ctx context.Context, creds aws.Credentials, r *http.Request,
	payloadHash string, service string, region string, _ time.Time,
	optFns ...func(*v4.SignerOptions),
) (string, http.Header, error) {
	r.Header.Set("Content-Type", common.ArchiveContentType)
	return p.next.PresignHTTP(ctx, creds, r, payloadHash, service, region, p.at, optFns...)
}
