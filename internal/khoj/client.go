package khoj

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	configPath        = "/api/config/data"
	defaultConfigPath = "/api/config/data/default"
	updatePath        = "/api/update"
	searchPath        = "/api/search"

	// ContentMarkdown is the content type khojlink indexes.
	ContentMarkdown = "markdown"

	maxBodySize    = 8 << 20
	defaultTimeout = 30 * time.Second
)

// Client talks to the Khoj backend HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// SearchHit is one entry of a search response.
type SearchHit struct {
	Entry    string
	Score    float64
	File     string
	Heading  string
	Compiled string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// RawConfig returns the backend's current config body as sent, which is the
// literal null when the backend is unconfigured.
func (c *Client) RawConfig(ctx context.Context) ([]byte, error) {
	return c.get(ctx, configPath, nil)
}

// Config fetches and decodes the current config. An unconfigured backend
// yields ErrNotConfigured.
func (c *Client) Config(ctx context.Context) (*BackendConfig, error) {
	body, err := c.RawConfig(ctx)
	if err != nil {
		return nil, err
	}
	return ParseBackendConfig(body)
}

func (c *Client) DefaultConfig(ctx context.Context) (*BackendConfig, error) {
	body, err := c.RawDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return ParseBackendConfig(body)
}

// RawDefaultConfig returns the backend's default configuration body as is.
func (c *Client) RawDefaultConfig(ctx context.Context) ([]byte, error) {
	return c.get(ctx, defaultConfigPath, nil)
}

// SaveConfig replaces the backend configuration with cfg.
func (c *Client) SaveConfig(ctx context.Context, cfg *BackendConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode backend config: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, configPath, nil, bytes.NewReader(payload), "application/json")
	return err
}

// UpdateIndex asks the backend to refresh the index of one content type.
func (c *Client) UpdateIndex(ctx context.Context, contentType string) error {
	_, err := c.get(ctx, updatePath, url.Values{"t": {contentType}})
	return err
}

// Search queries the index of one content type.
func (c *Client) Search(ctx context.Context, query, contentType string, n int) ([]SearchHit, error) {
	params := url.Values{
		"q": {query},
		"t": {contentType},
		"r": {"false"},
	}
	if n > 0 {
		params.Set("n", strconv.Itoa(n))
	}

	body, err := c.get(ctx, searchPath, params)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Entry      string          `json:"entry"`
		Score      json.RawMessage `json:"score"`
		Additional struct {
			File     string `json:"file"`
			Heading  string `json:"heading"`
			Compiled string `json:"compiled"`
		} `json:"additional"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse search response: %w", err)
	}

	hits := make([]SearchHit, len(raw))
	for i, r := range raw {
		hits[i] = SearchHit{
			Entry:    r.Entry,
			Score:    parseScore(r.Score),
			File:     r.Additional.File,
			Heading:  r.Additional.Heading,
			Compiled: r.Additional.Compiled,
		}
	}
	return hits, nil
}

// parseScore accepts scores encoded either as numbers or as numeric strings.
func parseScore(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil, "")
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader, contentType string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method: method,
			URL:    endpoint,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}
