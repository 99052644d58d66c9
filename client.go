// Package snappa is a Go client for the snappa sign-in API.
package snappa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient implements Client over the service's JSON API
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures an HTTPClient
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) {
		h.http = c
	}
}

// NewClient creates a client for the service at baseURL, e.g. "http://localhost:9000"
func NewClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

// SignIn implements Client
func (c *HTTPClient) SignIn(ctx context.Context, req SignInRequest) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/sign-in", "", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// LocalSignIn implements Client
func (c *HTTPClient) LocalSignIn(ctx context.Context, fid uint64) (*Session, error) {
	body := struct {
		FID uint64 `json:"identityClaim"`
	}{FID: fid}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/local-sign-in", "", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Me implements Client
func (c *HTTPClient) Me(ctx context.Context, token string) (uint64, error) {
	var resp struct {
		Success bool   `json:"success"`
		FID     uint64 `json:"identityClaim"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", token, nil, &resp); err != nil {
		return 0, err
	}
	return resp.FID, nil
}

// SignOut implements Client
func (c *HTTPClient) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/sign-out", token, nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return newAPIError(resp.StatusCode, failure.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
