// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package paypal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from PayPal.
type APIError struct {
	StatusCode int           `json:"-"`
	Name       string        `json:"name"`
	Message    string        `json:"message"`
	DebugID    string        `json:"debug_id"`
	Details    []ErrorDetail `json:"details"`
}

type ErrorDetail struct {
	Issue       string `json:"issue"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("paypal: %s: %s (status %d", e.Name, e.Message, e.StatusCode)
	if e.DebugID != "" {
		msg += ", debug_id " + e.DebugID
	}
	return msg + ")"
}

// HasIssue reports whether any detail carries the given issue code
func (e *APIError) HasIssue(issue string) bool {
	for _, d := range e.Details {
		if d.Issue == issue {
			return true
		}
	}
	return false
}

// Temporary is true for rate limiting and server errors
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsNotFound reports a missing order id
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound || apiErr.Name == "RESOURCE_NOT_FOUND"
}

// IsAlreadyCaptured reports a capture of an order that was captured before
func IsAlreadyCaptured(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HasIssue("ORDER_ALREADY_CAPTURED")
}

func parseError(body []byte, statusCode int) error {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.Name == "" && apiErr.Message == "") {
		// OAuth errors use a different shape
		var oauth struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal(body, &oauth) == nil && oauth.Error != "" {
			apiErr.Name = oauth.Error
			apiErr.Message = oauth.Description
		} else {
			apiErr.Name = http.StatusText(statusCode)
			apiErr.Message = string(body)
		}
	}
	return apiErr
}
