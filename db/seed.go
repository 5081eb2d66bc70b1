// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/riot-network/models"
)

//go:embed seed/merchandise.yaml
var merchandiseCatalog []byte

// MerchandiseCatalog returns the launch catalog bundled with the binary
func MerchandiseCatalog() ([]models.MerchRequest, error) {
	var items []models.MerchRequest
	if err := yaml.Unmarshal(merchandiseCatalog, &items); err != nil {
		return nil, fmt.Errorf("failed to parse merchandise catalog: %w", err)
	}
	return items, nil
}

// SeedMerchandise inserts the launch catalog when the merchandise table is
// empty. Returns the number of rows inserted (0 when data already exists).
func SeedMerchandise(ctx context.Context, conn *sql.DB) (int, error) {
	items, err := MerchandiseCatalog()
	if err != nil {
		return 0, err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock so two concurrent seeds can't both see an empty table
	if _, err := tx.ExecContext(ctx, `LOCK TABLE merchandise IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("failed to lock merchandise: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM merchandise`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count merchandise: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, item := range items {
		active := true
		if item.IsActive != nil {
			active = *item.IsActive
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO merchandise (name, description, price, stock, is_active, image_url)
			VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''))
		`, item.Name, item.Description, item.Price, item.Stock, active, item.ImageURL)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}

	return len(items), nil
}
