// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package muxvideo

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

const (
	DefaultBaseURL = "https://api.mux.com"
	rtmpBase       = "rtmps://global-live.mux.com:443/live/"
	playbackBase   = "https://stream.mux.com/"
)

// Live stream statuses reported by Mux
const (
	StatusIdle     = "idle"
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// PlaybackURL is the public HLS manifest for a playback id
func PlaybackURL(playbackID string) string {
	return playbackBase + playbackID + ".m3u8"
}

// RTMPURL is the ingest URL an encoder pushes to
func RTMPURL(streamKey string) string {
	return rtmpBase + streamKey
}

type PlaybackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

type LiveStream struct {
	ID               string       `json:"id"`
	Status           string       `json:"status"`
	StreamKey        string       `json:"stream_key"`
	PlaybackIDs      []PlaybackID `json:"playback_ids"`
	ActiveAssetID    string       `json:"active_asset_id,omitempty"`
	RecentAssetIDs   []string     `json:"recent_asset_ids,omitempty"`
	ReconnectWindow  float64      `json:"reconnect_window,omitempty"`
	LatencyMode      string       `json:"latency_mode,omitempty"`
	Passthrough      string       `json:"passthrough,omitempty"`
	MaxContinuousSec int          `json:"max_continuous_duration,omitempty"`
	CreatedAt        string       `json:"created_at"`
}

// PublicPlaybackID returns the first public playback id, or the first of
// any policy.
func (s *LiveStream) PublicPlaybackID() string {
	for _, p := range s.PlaybackIDs {
		if p.Policy == "public" {
			return p.ID
		}
	}
	if len(s.PlaybackIDs) > 0 {
		return s.PlaybackIDs[0].ID
	}
	return ""
}

// CreateOptions are merged over the public playback defaults.
type CreateOptions struct {
	ReconnectWindow  float64 `json:"reconnect_window,omitempty"`
	LatencyMode      string  `json:"latency_mode,omitempty"` // low, reduced or standard
	Passthrough      string  `json:"passthrough,omitempty"`
	MaxContinuousSec int     `json:"max_continuous_duration,omitempty"`
	Test             bool    `json:"test,omitempty"`
}

// APIError is a non-2xx answer from Mux.
type APIError struct {
	StatusCode int
	Type       string
	Messages   []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mux: %s: %s (status %d)", e.Type, strings.Join(e.Messages, "; "), e.StatusCode)
}

// IsNotFound reports a missing live stream
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Config struct {
	TokenID     string
	TokenSecret string
	BaseURL     string
	HTTPClient  *http.Client
}

// Client is a Mux Video live stream client.
type Client struct {
	config  Config
	http    *http.Client
	baseURL string
}

func New(cfg Config) (*Client, error) {
	if cfg.TokenID == "" || cfg.TokenSecret == "" {
		return nil, errors.New("mux: token id and secret are required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{config: cfg, http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// CreateLiveStream creates a stream with public playback whose recordings
// are public assets.
func (c *Client) CreateLiveStream(ctx context.Context, opts CreateOptions) (*LiveStream, error) {
	body := map[string]any{
		"playback_policy": []string{"public"},
		"new_asset_settings": map[string]any{
			"playback_policy": []string{"public"},
		},
	}

	// Merge caller options over the defaults
	raw, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}
	var extra map[string]any
	if err := json.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("merge options: %w", err)
	}
	for k, v := range extra {
		body[k] = v
	}

	var stream LiveStream
	if err := c.do(ctx, http.MethodPost, "/video/v1/live-streams", body, &stream); err != nil {
		return nil, err
	}
	return &stream, nil
}

func (c *Client) GetLiveStream(ctx context.Context, id string) (*LiveStream, error) {
	var stream LiveStream
	if err := c.do(ctx, http.MethodGet, "/video/v1/live-streams/"+url.PathEscape(id), nil, &stream); err != nil {
		return nil, err
	}
	return &stream, nil
}

// ListLiveStreams returns the first page (up to 100) of streams.
func (c *Client) ListLiveStreams(ctx context.Context) ([]LiveStream, error) {
	var streams []LiveStream
	if err := c.do(ctx, http.MethodGet, "/video/v1/live-streams?limit=100", nil, &streams); err != nil {
		return nil, err
	}
	if streams == nil {
		streams = []LiveStream{}
	}
	return streams, nil
}

func (c *Client) DeleteLiveStream(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/video/v1/live-streams/"+url.PathEscape(id), nil, nil)
}

// do unwraps the {"data": ...} envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.config.TokenID, c.config.TokenSecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mux request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error struct {
				Type     string   `json:"type"`
				Messages []string `json:"messages"`
			} `json:"error"`
		}
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Type != "" {
			apiErr.Type = envelope.Error.Type
			apiErr.Messages = envelope.Error.Messages
		} else {
			apiErr.Type = http.StatusText(resp.StatusCode)
			apiErr.Messages = []string{string(respBody)}
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return errors.New("mux: response has no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}

	return nil
}
