// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/danielhkuo/riot-network/middleware"
	"github.com/danielhkuo/riot-network/muxvideo"
	"github.com/danielhkuo/riot-network/paypal"
	"github.com/danielhkuo/riot-network/supabase"
)

// AccessChecker is satisfied by *auth.Authorizer
type AccessChecker interface {
	HasAccess(ctx context.Context, userID, email, eventID string) (bool, error)
}

// Payments is satisfied by *paypal.Client
type Payments interface {
	CreateOrder(ctx context.Context, amount float64, currency, referenceID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	WebhookConfigured() bool
	VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) (bool, error)
}

// LiveStreams is satisfied by *muxvideo.Client
type LiveStreams interface {
	CreateLiveStream(ctx context.Context, opts muxvideo.CreateOptions) (*muxvideo.LiveStream, error)
	GetLiveStream(ctx context.Context, id string) (*muxvideo.LiveStream, error)
	ListLiveStreams(ctx context.Context) ([]muxvideo.LiveStream, error)
	DeleteLiveStream(ctx context.Context, id string) error
}

// ObjectStore is satisfied by *supabase.StorageClient
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader, size int64) error
	PublicURL(bucket, path string) string
}

// AuthProvider is satisfied by *supabase.AuthClient
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignUp(ctx context.Context, email, password string) (*supabase.Session, error)
}

// pathID reads and validates a uuid path parameter, writing 400 on failure
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid "+name)
		return "", false
	}
	return id.String(), true
}
