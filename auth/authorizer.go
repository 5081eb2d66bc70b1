// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
)

// Authorizer answers the two authorization questions the server asks:
// is this user an admin, and may this user watch.
type Authorizer struct {
	db          *sql.DB
	adminEmails []string
}

// NewAuthorizer expects adminEmails already lowercased (cliparse does this)
func NewAuthorizer(db *sql.DB, adminEmails []string) *Authorizer {
	return &Authorizer{db: db, adminEmails: adminEmails}
}

// IsAdmin is true when the email is on the allow-list or the profile row
// carries the admin role.
func (a *Authorizer) IsAdmin(ctx context.Context, userID, email string) (bool, error) {
	if email != "" && slices.Contains(a.adminEmails, strings.ToLower(email)) {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}

	var isAdmin bool
	err := a.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM profiles WHERE id::text = $1 AND role = 'admin'
		)
	`, userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check admin role: %w", err)
	}

	return isAdmin, nil
}

// HasAccess is true for admins, and otherwise when a completed order belongs
// to the user by id or email. A non-empty eventID narrows the check to that
// event.
func (a *Authorizer) HasAccess(ctx context.Context, userID, email, eventID string) (bool, error) {
	isAdmin, err := a.IsAdmin(ctx, userID, email)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	var ok bool
	err = a.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE status = 'COMPLETED'
			  AND (user_id::text = $1 OR lower(email) = lower($2))
			  AND ($3 = '' OR event_id::text = $3)
		)
	`, userID, email, eventID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check order access: %w", err)
	}

	return ok, nil
}
