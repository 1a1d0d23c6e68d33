package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// DefaultGistAPI is the GitHub REST endpoint; overridable for tests.
const DefaultGistAPI = "https://api.github.com"

// DefaultGistFilename is the file inside the gist holding the document.
const DefaultGistFilename = "tabdeck.json"

// GistClient syncs the document as a single file inside a private gist.
// When no gist ID is configured the first Store creates the gist; the
// assigned ID is exposed through ID() so the caller can persist it into
// settings.
type GistClient struct {
	apiBase    string
	token      string
	filename   string
	httpClient *http.Client

	mu sync.Mutex
	id string
}

// NewGistClient creates a client. id may be empty (create on first
// save); apiBase of "" uses the public GitHub API.
func NewGistClient(token, id, filename, apiBase string, timeout time.Duration) *GistClient {
	if filename == "" {
		filename = DefaultGistFilename
	}
	if apiBase == "" {
		apiBase = DefaultGistAPI
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GistClient{
		apiBase:  apiBase,
		token:    token,
		filename: filename,
		id:       id,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements Remote.
func (c *GistClient) Name() string {
	return "gist"
}

// ID returns the gist ID, which may have been assigned by the first
// Store.
func (c *GistClient) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// gistFile mirrors the file entry in the gist API payload.
type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistDocument struct {
	ID          string              `json:"id,omitempty"`
	Description string              `json:"description,omitempty"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

// Fetch implements Remote. Truncated file content is re-fetched via the
// raw content URL the API hands back.
func (c *GistClient) Fetch(ctx context.Context) (*model.AppData, error) {
	id := c.ID()
	if id == "" {
		return nil, ErrNotFound
	}

	body, err := c.do(ctx, http.MethodGet, c.apiBase+"/gists/"+id, nil)
	if err != nil {
		return nil, err
	}

	var doc gistDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode gist: %w", err)
	}
	file, ok := doc.Files[c.filename]
	if !ok {
		return nil, ErrNotFound
	}

	content := []byte(file.Content)
	if file.Truncated {
		content, err = c.fetchRaw(ctx, file.RawURL)
		if err != nil {
			return nil, err
		}
	}

	var data model.AppData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("decode remote document: %w", err)
	}
	data.Normalize()
	return &data, nil
}

// Store implements Remote, creating the gist when no ID is configured.
func (c *GistClient) Store(ctx context.Context, data *model.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	payload := gistDocument{
		Description: "tabdeck bookmarks",
		Public:      false,
		Files:       map[string]gistFile{c.filename: {Content: string(raw)}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal gist payload: %w", err)
	}

	id := c.ID()
	if id == "" {
		respBody, err := c.do(ctx, http.MethodPost, c.apiBase+"/gists", body)
		if err != nil {
			return err
		}
		var created gistDocument
		if err := json.Unmarshal(respBody, &created); err != nil {
			return fmt.Errorf("decode created gist: %w", err)
		}
		c.mu.Lock()
		c.id = created.ID
		c.mu.Unlock()
		return nil
	}

	_, err = c.do(ctx, http.MethodPatch, c.apiBase+"/gists/"+id, body)
	return err
}

// do runs one authenticated API request and returns the response body.
func (c *GistClient) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gist %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProtocolError{Status: resp.StatusCode, Detail: string(respBody)}
	}
	return respBody, nil
}

// fetchRaw downloads full file content via the raw URL.
func (c *GistClient) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gist raw fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProtocolError{Status: resp.StatusCode, Detail: string(body)}
	}
	return body, nil
}
