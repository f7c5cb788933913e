package netx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadArchive(t *testing.T) {
	archive := []byte("PK\x03\x04 fake zip")

	t.Run("success 200 OK", func(t *testing.T) {
		var gotBody []byte
		var gotCT, gotACL, gotMethod, gotQuery string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotACL = r.Header.Get("x-amz-acl")
			gotQuery = r.URL.RawQuery
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := UploadArchive(context.Background(), ts.Client(), ts.URL+"/simple_ain.zip?AWSAccessKeyId=k&Expires=1&Signature=abc%2B", archive)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodPut {
			t.Fatalf("method = %q, want PUT", gotMethod)
		}
		if gotCT != "application/zip" {
			t.Fatalf("Content-Type = %q, want application/zip", gotCT)
		}
		if gotACL != "public-read" {
			t.Fatalf("x-amz-acl = %q, want public-read", gotACL)
		}
		if gotQuery != "AWSAccessKeyId=k&Expires=1&Signature=abc%2B" {
			t.Fatalf("query altered: %q", gotQuery)
		}
		if !bytes.Equal(gotBody, archive) {
			t.Fatalf("body = %q, want %q", gotBody, archive)
		}
	})

	t.Run("non-2xx -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("SignatureDoesNotMatch"))
		}))
		defer ts.Close()

		err := UploadArchive(context.Background(), nil, ts.URL, archive)
		if err == nil {
			t.Fatal("expected error for 403")
		}
		if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "SignatureDoesNotMatch") {
			t.Fatalf("unexpected error text: %v", err)
		}
	})

	t.Run("bad url -> error", func(t *testing.T) {
		if err := UploadArchive(context.Background(), nil, "://bad", archive); err == nil {
			t.Fatal("expected error for malformed URL")
		}
	})
}
