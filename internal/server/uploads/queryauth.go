package uploads

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
)

type QueryAuthOptions struct {
	Bucket string
	// ObjectHost defaults to "{Bucket}.s3.amazonaws.com".
	ObjectHost string
	AccessKey  string
	SecretKey  string
	TTL        time.Duration
}

// QueryAuthIssuer signs URLs with S3 query-string authentication
// (signature version 2, HMAC-SHA1).
type QueryAuthIssuer struct {
	opts QueryAuthOptions
}

func NewQueryAuthIssuer(opts QueryAuthOptions) (*QueryAuthIssuer, error) {
	if opts.Bucket == "" {
		return nil, errors.New("query auth issuer: bucket is required")
	}
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, errors.New("query auth issuer: access and secret keys are required")
	}
	if opts.ObjectHost == "" {
		opts.ObjectHost = opts.Bucket + ".s3.amazonaws.com"
	}
	opts.TTL = ttlOrDefault(opts.TTL)
	return &QueryAuthIssuer{opts: opts}, nil
}

func (i *QueryAuthIssuer) Issue(_ context.Context, packageName string, now time.Time) (*models.UploadCredential, error) {
	if packageName == "" {
		return nil, errNoName
	}

	expiresAt := now.Add(i.opts.TTL).Truncate(time.Second)
	expires := expiresAt.Unix()
	key := common.ArchiveObjectKey(packageName)

	signature := i.sign(CanonicalString(i.opts.Bucket, key, expires))

	q := "AWSAccessKeyId=" + url.QueryEscape(i.opts.AccessKey) +
		"&Expires=" + strconv.FormatInt(expires, 10) +
		"&Signature=" + url.QueryEscape(signature)

	return &models.UploadCredential{
		URL:       fmt.Sprintf("https://%s/%s?%s", i.opts.ObjectHost, key, q),
		ExpiresAt: time.Unix(expires, 0).UTC(),
		Signature: signature,
	}, nil
}

func (i *QueryAuthIssuer) sign(canonical string) string {
	mac := hmac.New(sha1.New, []byte(i.opts.SecretKey))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// CanonicalString is the string-to-sign for a public-read archive PUT.
func CanonicalString(bucket, objectKey string, expires int64) string {
	return "PUT\n" +
		"\n" +
		common.ArchiveContentType + "\n" +
		strconv.FormatInt(expires, 10) + "\n" +
		common.ArchiveACLHeader + ":" + common.ArchiveACL + "\n" +
		"/" + bucket + "/" + objectKey
}
