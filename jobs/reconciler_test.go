// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/riot-network/paypal"
	"github.com/danielhkuo/riot-network/testutil"
)

var orderColumns = []string{"id", "user_id", "email", "event_id", "provider", "provider_order_id", "amount", "currency", "status", "ip_hash", "created_at"}

type fakeProvider struct {
	orders   map[string]*paypal.Order
	getErr   error
	capture  *paypal.Order
	captured []string
}

func (f *fakeProvider) GetOrder(ctx context.Context, id string) (*paypal.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	po, ok := f.orders[id]
	if !ok {
		return nil, &paypal.APIError{StatusCode: 404, Name: "RESOURCE_NOT_FOUND"}
	}
	return po, nil
}

func (f *fakeProvider) CaptureOrder(ctx context.Context, id string) (*paypal.Order, error) {
	f.captured = append(f.captured, id)
	return f.capture, nil
}

func completed(id, value string) *paypal.Order {
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

func expectPending(mock sqlmock.Sqlmock, status string, createdAt time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs(sqlmock.AnyArg(), reconcileBatch).
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(
			"order-1", nil, "fan@example.com", nil, "paypal", "PP-1",
			19.99, "USD", status, nil, createdAt))
}

func expectTransition(mock sqlmock.Sqlmock, status string) {
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1")).
		WithArgs(status, "PP-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestReconciler_CapturesApprovedOrder(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	expectPending(mock, "APPROVED", time.Now().Add(-time.Hour))
	expectTransition(mock, "COMPLETED")

	provider := &fakeProvider{
		orders:  map[string]*paypal.Order{"PP-1": {ID: "PP-1", Status: paypal.StatusApproved}},
		capture: completed("PP-1", "19.99"),
	}

	if err := NewReconciler(db, provider).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(provider.captured) != 1 {
		t.Errorf("expected one capture, got %d", len(provider.captured))
	}
}

func TestReconciler_CompletesFromProvider(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	expectPending(mock, "CREATED", time.Now().Add(-time.Hour))
	expectTransition(mock, "COMPLETED")

	provider := &fakeProvider{orders: map[string]*paypal.Order{"PP-1": completed("PP-1", "19.99")}}

	if err := NewReconciler(db, provider).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(provider.captured) != 0 {
		t.Error("completed order should not be captured again")
	}
}

func TestReconciler_AmountMismatchLeavesOrder(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	expectPending(mock, "CREATED", time.Now().Add(-time.Hour))

	provider := &fakeProvider{orders: map[string]*paypal.Order{"PP-1": completed("PP-1", "1.00")}}

	if err := NewReconciler(db, provider).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestReconciler_CancelsMissingOrder(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	expectPending(mock, "CREATED", time.Now().Add(-time.Hour))
	expectTransition(mock, "CANCELED")

	if err := NewReconciler(db, &fakeProvider{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestReconciler_AbandonedOrders(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		cancels bool
	}{
		{"recent stays pending", time.Hour, false},
		{"day old is abandoned", 25 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := testutil.NewMockDB(t)
			expectPending(mock, "CREATED", time.Now().Add(-tt.age))
			if tt.cancels {
				expectTransition(mock, "CANCELED")
			}

			provider := &fakeProvider{orders: map[string]*paypal.Order{"PP-1": {ID: "PP-1", Status: paypal.StatusCreated}}}
			if err := NewReconciler(db, provider).Run(context.Background()); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestReconciler_ProviderErrorIsReported(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	expectPending(mock, "CREATED", time.Now().Add(-time.Hour))

	provider := &fakeProvider{getErr: errors.New("paypal down")}
	if err := NewReconciler(db, provider).Run(context.Background()); err == nil {
		t.Error("expected error when provider lookups fail")
	}
}
