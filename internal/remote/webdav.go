package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// WebDAVClient syncs the document against a user-configured WebDAV URL
// with GET/PUT and optional Basic auth. A 404 on GET means no document
// exists yet.
type WebDAVClient struct {
	url        string
	username   string
	password   string
	httpClient *http.Client
}

// NewWebDAVClient creates a client for the given document URL.
// Credentials may be empty for unauthenticated endpoints.
func NewWebDAVClient(url, username, password string, timeout time.Duration) *WebDAVClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebDAVClient{
		url:      url,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements Remote.
func (c *WebDAVClient) Name() string {
	return "webdav"
}

// Fetch implements Remote.
func (c *WebDAVClient) Fetch(ctx context.Context) (*model.AppData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.auth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webdav get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProtocolError{Status: resp.StatusCode, Detail: string(body)}
	}

	var data model.AppData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode remote document: %w", err)
	}
	data.Normalize()
	return &data, nil
}

// Store implements Remote.
func (c *WebDAVClient) Store(ctx context.Context, data *model.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webdav put: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &ProtocolError{Status: resp.StatusCode, Detail: string(body)}
	}
	return nil
}

// auth attaches Basic credentials when configured.
func (c *WebDAVClient) auth(req *http.Request) {
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}
