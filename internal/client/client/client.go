package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sampottinger/kipling-package-index/internal/client/models"
)

const maxResponseBytes = 1 << 20

// Response is the decoded body of a successful call. Publish calls fill in
// the upload fields; reads fill in Record.
type Response struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Record    *models.Package `json:"record,omitempty"`
	URL       string          `json:"url,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	Signature string          `json:"signature,omitempty"`
}

// Credential returns the upload credential carried by a publish response,
// or nil when there is none.
func (r *Response) Credential() *models.UploadCredential {
	if r.URL == "" {
		return nil
	}
	c := &models.UploadCredential{URL: r.URL, Signature: r.Signature}
	if r.ExpiresAt != nil {
		c.ExpiresAt = *r.ExpiresAt
	}
	return c
}

// Client calls the index API rooted at a base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}, nil
}

// HTTPClient returns the underlying *http.Client, shared with archive uploads.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

func packagePath(name string) string {
	return "/package/" + url.PathEscape(name)
}

// CreatePackage submits a new package. form carries the credentials and
// the package fields.
func (c *Client) CreatePackage(ctx context.Context, form url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/packages", form)
}

// UpdatePackage submits changes to the package stored under name.
func (c *Client) UpdatePackage(ctx context.Context, name string, form url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPut, packagePath(name), form)
}

// DeletePackage removes a package. Removing an absent package succeeds.
func (c *Client) DeletePackage(ctx context.Context, name, username, password string) (*Response, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	return c.do(ctx, http.MethodDelete, packagePath(name), form)
}

// ReadPackage fetches the stored record of a package.
func (c *Client) ReadPackage(ctx context.Context, name string) (*Response, error) {
	return c.do(ctx, http.MethodGet, packagePath(name), nil)
}

// Register creates an account. The server mails the generated password.
func (c *Client) Register(ctx context.Context, username, email string) (*Response, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("email", email)
	return c.do(ctx, http.MethodPost, "/users", form)
}

// ChangePassword replaces the password of username.
func (c *Client) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) (*Response, error) {
	form := url.Values{}
	form.Set("old_password", oldPassword)
	form.Set("new_password", newPassword)
	return c.do(ctx, http.MethodPut, "/user/"+url.PathEscape(username), form)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (*Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, &ServerError{Status: resp.StatusCode, Message: "unexpected response: " + resp.Status}
	}
	if !out.Success || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ServerError{Status: resp.StatusCode, Message: out.Message}
	}
	return &out, nil
}
