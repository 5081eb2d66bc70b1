// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertStreamLog appends one stream_logs row. bitrate may be nil.
func InsertStreamLog(ctx context.Context, conn *sql.DB, status string, bitrate *int, notes string) error {
	_, err := conn.ExecContext(ctx,
		"INSERT INTO stream_logs (status, bitrate, notes) VALUES ($1, $2, $3)",
		status, bitrate, notes)
	if err != nil {
		return fmt.Errorf("failed to insert stream log: %w", err)
	}
	return nil
}
