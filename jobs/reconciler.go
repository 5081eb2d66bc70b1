// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/riot-network/metrics"
	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/orders"
	"github.com/danielhkuo/riot-network/paypal"
)

const (
	reconcileAfter = 10 * time.Minute
	abandonAfter   = 24 * time.Hour
	reconcileBatch = 100
)

// OrderProvider is satisfied by *paypal.Client
type OrderProvider interface {
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error)
}

// Reconciler settles orders whose capture never reached us: the browser
// closed after approval, capture timed out, or a webhook was lost.
type Reconciler struct {
	store    *orders.Store
	payments OrderProvider
	now      func() time.Time
}

func NewReconciler(db *sql.DB, payments OrderProvider) *Reconciler {
	return &Reconciler{store: orders.NewStore(db), payments: payments, now: time.Now}
}

func (r *Reconciler) Name() string { return "order_reconciler" }

func (r *Reconciler) Run(ctx context.Context) error {
	pending, err := r.store.Pending(ctx, reconcileAfter, reconcileBatch)
	if err != nil {
		return err
	}

	var failed int
	for i := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		o := &pending[i]
		outcome, err := r.reconcile(ctx, o)
		if err != nil {
			failed++
			metrics.ReconcilerOutcome("error")
			slog.Error("failed to reconcile order", "error", err, "order_id", o.ID)
			continue
		}

		metrics.ReconcilerOutcome(string(outcome))
		switch outcome {
		case orders.OutcomeCompleted:
			metrics.OrderStatus(models.OrderCompleted, "reconciler")
			slog.Info("order reconciled", "order_id", o.ID, "outcome", outcome)
		case orders.OutcomeCanceled:
			metrics.OrderStatus(models.OrderCanceled, "reconciler")
			slog.Info("order reconciled", "order_id", o.ID, "outcome", outcome)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d orders failed to reconcile", failed, len(pending))
	}
	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, o *models.Order) (orders.Outcome, error) {
	providerID := *o.ProviderOrderID

	po, err := r.payments.GetOrder(ctx, providerID)
	if paypal.IsNotFound(err) {
		return r.cancel(ctx, providerID)
	}
	if err != nil {
		return "", err
	}

	switch po.Status {
	case paypal.StatusApproved:
		// Buyer approved but nobody captured
		po, err = r.payments.CaptureOrder(ctx, providerID)
		if paypal.IsAlreadyCaptured(err) {
			po, err = r.payments.GetOrder(ctx, providerID)
		}
		if err != nil {
			return "", err
		}
	case paypal.StatusCreated, paypal.StatusPayerActionRequired, paypal.StatusSaved:
		if r.now().Sub(o.CreatedAt) > abandonAfter {
			return r.cancel(ctx, providerID)
		}
		return orders.OutcomePending, nil
	}

	return r.store.Apply(ctx, o, po)
}

func (r *Reconciler) cancel(ctx context.Context, providerID string) (orders.Outcome, error) {
	ok, err := r.store.Transition(ctx, providerID, models.OrderCanceled)
	if err != nil {
		return "", err
	}
	if !ok {
		return orders.OutcomeUnchanged, nil
	}
	return orders.OutcomeCanceled, nil
}

