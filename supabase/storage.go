// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package supabase

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// StorageClient uploads objects to Supabase Storage buckets.
type StorageClient struct {
	client *Client
}

// Upload streams size bytes from body to bucket/path. Uploads use the
// service key so the bucket can stay write-protected for browsers.
func (s *StorageClient) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader, size int64) error {
	if s.client.config.ServiceKey == "" {
		return ErrServiceKeyRequired
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	urlPath := s.client.storageURL + "/object/" + bucket + "/" + escapePath(path)
	respBody, statusCode, err := s.client.send(ctx, s.client.streams, http.MethodPost, urlPath, body, size, contentType, s.client.config.ServiceKey)
	if err != nil {
		return err
	}
	if statusCode >= 400 {
		return parseError(respBody, statusCode)
	}

	return nil
}

// PublicURL is where a public bucket serves the object.
func (s *StorageClient) PublicURL(bucket, path string) string {
	return s.client.storageURL + "/object/public/" + bucket + "/" + escapePath(path)
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
