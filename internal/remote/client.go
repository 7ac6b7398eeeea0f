package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/scribe/internal/notes"
)

// Ensure Client implements Store at compile time.
var _ Store = (*Client)(nil)

// Client talks to the notes HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	stream    *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:7490"
	defaultUserAgent = "scribe/0.1"
	requestTimeout   = 5 * time.Second

	notesPath  = "/api/notes"
	eventsPath = "/api/notes/events"
)

// NewClient builds a Client for the apiBind host:port value. A zero timeout
// uses the default.
func NewClient(apiBind string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		stream:    &http.Client{},
		userAgent: defaultUserAgent,
	}, nil
}

// List retrieves every note in server order.
func (c *Client) List(ctx context.Context) ([]notes.Note, error) {
	var payload ListResponse
	if err := c.do(ctx, http.MethodGet, notesPath, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// Create stores the full note record.
func (c *Client) Create(ctx context.Context, note notes.Note) error {
	return c.do(ctx, http.MethodPost, notesPath, note, nil)
}

// Delete removes the note with id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("note id required")
	}
	return c.do(ctx, http.MethodDelete, notesPath+"/"+url.PathEscape(id), nil, nil)
}

// Update applies a partial update to the note with id.
func (c *Client) Update(ctx context.Context, id string, patch notes.Patch) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("note id required")
	}
	return c.do(ctx, http.MethodPatch, notesPath+"/"+url.PathEscape(id), patch, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(rel.Path, resp.StatusCode); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(path string, code int) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("api %s: %w", path, ErrNotFound)
	case code == http.StatusConflict:
		return fmt.Errorf("api %s: %w", path, ErrConflict)
	default:
		return fmt.Errorf("api %s returned status %d", path, code)
	}
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
