// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrServiceKeyRequired = errors.New("supabase: service key not configured")

// Client talks to the Supabase auth and storage REST APIs.
type Client struct {
	config Config
	http   *http.Client

	// streams carries uploads, bounded by the caller's context instead of Timeout
	streams *http.Client

	baseURL    string
	authURL    string
	storageURL string

	auth    *AuthClient
	storage *StorageClient
}

// New validates the config and derives the API base URLs.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, errors.New("supabase: project URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase: anon key is required")
	}

	baseURL := strings.TrimRight(cfg.ProjectURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("supabase: invalid project URL: %w", err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient, streamClient := cfg.HTTPClient, cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
		streamClient = &http.Client{}
	}

	c := &Client{
		config:     cfg,
		http:       httpClient,
		streams:    streamClient,
		baseURL:    baseURL,
		authURL:    baseURL + "/auth/v1",
		storageURL: baseURL + "/storage/v1",
	}
	c.auth = &AuthClient{client: c}
	c.storage = &StorageClient{client: c}

	return c, nil
}

// Auth returns the auth client.
func (c *Client) Auth() *AuthClient {
	return c.auth
}

// Storage returns the storage client.
func (c *Client) Storage() *StorageClient {
	return c.storage
}

// RealtimeURL is the Phoenix websocket endpoint, authenticated with the
// service key when present.
func (c *Client) RealtimeURL() string {
	key := c.config.ServiceKey
	if key == "" {
		key = c.config.AnonKey
	}

	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}

	return u + "/realtime/v1/websocket?apikey=" + url.QueryEscape(key) + "&vsn=1.0.0"
}

// request sends body as JSON with the anon key
func (c *Client) request(ctx context.Context, method, urlPath string, body any) ([]byte, int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
	}
	return c.do(ctx, method, urlPath, payload, "application/json", c.config.AnonKey)
}

// requestWithToken authenticates as the given user
func (c *Client) requestWithToken(ctx context.Context, method, urlPath, accessToken string) ([]byte, int, error) {
	return c.do(ctx, method, urlPath, nil, "application/json", accessToken)
}

func (c *Client) do(ctx context.Context, method, urlPath string, body []byte, contentType, bearer string) ([]byte, int, error) {
	if body == nil {
		return c.send(ctx, c.http, method, urlPath, nil, 0, contentType, bearer)
	}
	return c.send(ctx, c.http, method, urlPath, bytes.NewReader(body), int64(len(body)), contentType, bearer)
}

// send streams body as the request payload. size becomes Content-Length.
func (c *Client) send(ctx context.Context, hc *http.Client, method, urlPath string, body io.Reader, size int64, contentType, bearer string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlPath, body)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.config.AnonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.ContentLength = size
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

// parseError turns an error body from any Supabase API into *Error.
func parseError(body []byte, statusCode int) error {
	var errResp struct {
		Code             any    `json:"code"`
		ErrorCode        string `json:"error_code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Details          string `json:"details"`
		Hint             string `json:"hint"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return &Error{
			Code:       "unknown",
			Message:    string(body),
			StatusCode: statusCode,
		}
	}

	// Auth returns code as a number and the name in error_code
	code := errResp.ErrorCode
	if s, ok := errResp.Code.(string); ok && code == "" {
		code = s
	}

	msg := errResp.Message
	for _, alt := range []string{errResp.Msg, errResp.ErrorDescription, errResp.Error} {
		if msg == "" {
			msg = alt
		}
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	return &Error{
		Code:       code,
		Message:    msg,
		Details:    errResp.Details,
		Hint:       errResp.Hint,
		StatusCode: statusCode,
	}
}
