// Package netx holds the client side of the blob channel: a plain HTTP PUT
// against a signed URL, with no server in between.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sampottinger/kipling-package-index/internal/common"
)

// UploadArchive PUTs a package archive to a signed upload URL. The content
// type and ACL headers are part of the signed request and must match it.
// Any 2xx response is a success.
func UploadArchive(ctx context.Context, client *http.Client, url string, archive []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(archive))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", common.ArchiveContentType)
	req.Header.Set(common.ArchiveACLHeader, common.ArchiveACL)

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
