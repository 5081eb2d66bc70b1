// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/danielhkuo/riot-network/muxvideo"
	"github.com/danielhkuo/riot-network/paypal"
	"github.com/danielhkuo/riot-network/supabase"
)

type fakeAccess struct {
	ok    bool
	err   error
	calls int
}

func (f *fakeAccess) HasAccess(ctx context.Context, userID, email, eventID string) (bool, error) {
	f.calls++
	return f.ok, f.err
}

type fakePayments struct {
	created    *paypal.Order
	createErr  error
	captured   *paypal.Order
	captureErr error
	fetched    *paypal.Order
	getErr     error

	webhookConfigured bool
	signatureOK       bool
	verifyErr         error

	captureCalls []string
	getCalls     []string
}

func (f *fakePayments) CreateOrder(ctx context.Context, amount float64, currency, referenceID string) (*paypal.Order, error) {
	return f.created, f.createErr
}

func (f *fakePayments) CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	f.captureCalls = append(f.captureCalls, orderID)
	return f.captured, f.captureErr
}

func (f *fakePayments) GetOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	f.getCalls = append(f.getCalls, orderID)
	return f.fetched, f.getErr
}

func (f *fakePayments) WebhookConfigured() bool {
	return f.webhookConfigured
}

func (f *fakePayments) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) (bool, error) {
	return f.signatureOK, f.verifyErr
}

type fakeStreams struct {
	stream  *muxvideo.LiveStream
	list    []muxvideo.LiveStream
	err     error
	opts    muxvideo.CreateOptions
	deleted []string
}

func (f *fakeStreams) CreateLiveStream(ctx context.Context, opts muxvideo.CreateOptions) (*muxvideo.LiveStream, error) {
	f.opts = opts
	return f.stream, f.err
}

func (f *fakeStreams) GetLiveStream(ctx context.Context, id string) (*muxvideo.LiveStream, error) {
	return f.stream, f.err
}

func (f *fakeStreams) ListLiveStreams(ctx context.Context) ([]muxvideo.LiveStream, error) {
	return f.list, f.err
}

func (f *fakeStreams) DeleteLiveStream(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakeObjectStore struct {
	mu      sync.Mutex
	err     error
	uploads map[string][]byte
}

func (f *fakeObjectStore) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader, size int64) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("read %d bytes, size said %d", len(data), size)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[bucket+"/"+path] = data
	return nil
}

func (f *fakeObjectStore) PublicURL(bucket, path string) string {
	return "https://project.supabase.co/storage/v1/object/public/" + bucket + "/" + path
}

type fakeAuthProvider struct {
	session *supabase.Session
	err     error
}

func (f *fakeAuthProvider) SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error) {
	return f.session, f.err
}

func (f *fakeAuthProvider) SignUp(ctx context.Context, email, password string) (*supabase.Session, error) {
	return f.session, f.err
}

func completedPayPalOrder(id, value string) *paypal.Order {
	return &paypal.Order{
		ID:     id,
		Status: paypal.StatusCompleted,
		PurchaseUnits: []paypal.PurchaseUnit{{
			Payments: &paypal.Payments{Captures: []paypal.Capture{{
				ID:     "CAP-" + id,
				Status: paypal.CaptureStatusCompleted,
				Amount: paypal.Amount{CurrencyCode: "USD", Value: value},
			}}},
		}},
	}
}
