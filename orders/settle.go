// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package orders

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/paypal"
)

// Outcome of applying a provider order to our row
type Outcome string

const (
	OutcomeCompleted      Outcome = "completed"
	OutcomeUnchanged      Outcome = "unchanged"
	OutcomeApproved       Outcome = "approved"
	OutcomePending        Outcome = "pending"
	OutcomeCanceled       Outcome = "canceled"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
)

// Apply moves row to match the provider's view of the order. A completed
// payment only completes the row when the captured total equals the order
// amount.
func (s *Store) Apply(ctx context.Context, row *models.Order, po *paypal.Order) (Outcome, error) {
	if row.ProviderOrderID == nil {
		return "", fmt.Errorf("order %s has no provider order id", row.ID)
	}
	providerID := *row.ProviderOrderID

	switch po.Status {
	case paypal.StatusCompleted:
		captured, err := po.CapturedCents()
		if err != nil {
			return "", err
		}
		expected := int64(math.Round(row.Amount * 100))
		if captured != expected {
			slog.Error("captured amount does not match order",
				"order_id", row.ID, "provider_order_id", providerID,
				"expected_cents", expected, "captured_cents", captured)
			return OutcomeAmountMismatch, nil
		}
		return s.transitionOutcome(ctx, providerID, models.OrderCompleted, OutcomeCompleted)

	case paypal.StatusApproved:
		out, err := s.transitionOutcome(ctx, providerID, models.OrderApproved, OutcomeApproved)
		if out == OutcomeUnchanged {
			out = OutcomePending
		}
		return out, err

	case paypal.StatusVoided:
		return s.transitionOutcome(ctx, providerID, models.OrderCanceled, OutcomeCanceled)

	default:
		return OutcomePending, nil
	}
}

func (s *Store) transitionOutcome(ctx context.Context, providerID, status string, changed Outcome) (Outcome, error) {
	ok, err := s.Transition(ctx, providerID, status)
	if err != nil {
		return "", err
	}
	if !ok {
		return OutcomeUnchanged, nil
	}
	return changed, nil
}
