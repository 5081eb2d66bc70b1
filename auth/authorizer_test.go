// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		email     string
		mockRole  bool // expect a profiles lookup
		roleAdmin bool
		want      bool
	}{
		{"allow-listed email", "u1", "Boss@Example.com", false, false, true},
		{"profile role admin", "u2", "fan@example.com", true, true, true},
		{"plain fan", "u3", "fan@example.com", true, false, false},
		{"no user id", "", "fan@example.com", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatal(err)
			}
			defer db.Close()

			if tt.mockRole {
				mock.ExpectQuery(`SELECT EXISTS \(\s*SELECT 1 FROM profiles`).
					WithArgs(tt.userID).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.roleAdmin))
			}

			a := NewAuthorizer(db, []string{"boss@example.com"})
			got, err := a.IsAdmin(context.Background(), tt.userID, tt.email)
			if err != nil {
				t.Fatalf("IsAdmin() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestHasAccess(t *testing.T) {
	tests := []struct {
		name    string
		eventID string
		orderOK bool
		want    bool
	}{
		{"completed order any event", "", true, true},
		{"completed order for event", "e1", true, true},
		{"no completed order", "e1", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatal(err)
			}
			defer db.Close()

			mock.ExpectQuery(`FROM profiles`).
				WithArgs("u1").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			mock.ExpectQuery(`FROM orders\s+WHERE status = 'COMPLETED'`).
				WithArgs("u1", "fan@example.com", tt.eventID).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.orderOK))

			a := NewAuthorizer(db, nil)
			got, err := a.HasAccess(context.Background(), "u1", "fan@example.com", tt.eventID)
			if err != nil {
				t.Fatalf("HasAccess() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HasAccess() = %v, want %v", got, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestHasAccess_AdminSkipsOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	a := NewAuthorizer(db, []string{"boss@example.com"})
	ok, err := a.HasAccess(context.Background(), "u1", "boss@example.com", "e1")
	if err != nil || !ok {
		t.Fatalf("admin should always have access, got %v, %v", ok, err)
	}
	// No queries expected
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHasAccess_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(`FROM profiles`).WillReturnError(dbErr)

	a := NewAuthorizer(db, nil)
	if _, err := a.HasAccess(context.Background(), "u1", "fan@example.com", ""); !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped db error, got %v", err)
	}
}
