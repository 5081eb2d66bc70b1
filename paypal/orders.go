// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package paypal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
)

// Order statuses
const (
	StatusCreated             = "CREATED"
	StatusSaved               = "SAVED"
	StatusApproved            = "APPROVED"
	StatusVoided              = "VOIDED"
	StatusCompleted           = "COMPLETED"
	StatusPayerActionRequired = "PAYER_ACTION_REQUIRED"
)

// Capture statuses
const (
	CaptureStatusCompleted = "COMPLETED"
	CaptureStatusPending   = "PENDING"
	CaptureStatusDeclined  = "DECLINED"
)

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// Cents parses Value into integer minor units
func (a Amount) Cents() (int64, error) {
	f, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", a.Value, err)
	}
	return int64(math.Round(f * 100)), nil
}

type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

type Payments struct {
	Captures []Capture `json:"captures"`
}

type PurchaseUnit struct {
	ReferenceID string    `json:"reference_id,omitempty"`
	CustomID    string    `json:"custom_id,omitempty"`
	Amount      Amount    `json:"amount"`
	Payments    *Payments `json:"payments,omitempty"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type Payer struct {
	PayerID      string `json:"payer_id"`
	EmailAddress string `json:"email_address"`
}

type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Intent        string         `json:"intent,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
	Payer         *Payer         `json:"payer,omitempty"`
	Links         []Link         `json:"links,omitempty"`
}

// ApproveURL is where the buyer approves the payment
func (o *Order) ApproveURL() string {
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

// CapturedCents sums completed captures across purchase units
func (o *Order) CapturedCents() (int64, error) {
	var total int64
	for _, pu := range o.PurchaseUnits {
		if pu.Payments == nil {
			continue
		}
		for _, c := range pu.Payments.Captures {
			if c.Status != CaptureStatusCompleted {
				continue
			}
			cents, err := c.Amount.Cents()
			if err != nil {
				return 0, err
			}
			total += cents
		}
	}
	return total, nil
}

// FormatAmount renders a major-unit price the way the Orders API expects
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(math.Round(amount*100)/100, 'f', 2, 64)
}

// CreateOrder opens a CAPTURE order. referenceID ties it to our order row
// and doubles as the idempotency key.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, referenceID string) (*Order, error) {
	if amount <= 0 {
		return nil, errors.New("paypal: amount must be positive")
	}
	if currency == "" {
		currency = "USD"
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []PurchaseUnit{{
			ReferenceID: referenceID,
			CustomID:    referenceID,
			Amount:      Amount{CurrencyCode: currency, Value: FormatAmount(amount)},
		}},
	}
	headers := map[string]string{
		"PayPal-Request-Id": "create-" + referenceID,
		"Prefer":            "return=representation",
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", body, headers, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder captures an approved order. Repeats with the same id are
// safe; PayPal replays the first result.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	headers := map[string]string{
		"PayPal-Request-Id": "capture-" + orderID,
		"Prefer":            "return=representation",
	}

	var order Order
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.do(ctx, http.MethodPost, path, map[string]any{}, headers, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches the current state of an order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
