package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteBackend stores records in the calculations table.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (b *SQLiteBackend) Insert(ctx context.Context, rec Record) (int64, error) {
	result, err := b.db.ExecContext(ctx, `
		INSERT INTO calculations (
			id,
			created_at,
			product_name,
			cost_price,
			taxes,
			shipping,
			target_margin_percent,
			sale_price,
			gross_profit,
			net_profit
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID.String(),
		rec.CreatedAt.UnixNano(),
		rec.Input.ProductName,
		rec.Input.CostPrice,
		rec.Input.Taxes,
		rec.Input.Shipping,
		rec.Input.TargetMarginPercent,
		rec.Result.SalePrice,
		rec.Result.GrossProfit,
		rec.Result.NetProfit,
	)
	if err != nil {
		return 0, fmt.Errorf("insert calculation: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read calculation seq: %w", err)
	}
	return seq, nil
}

func (b *SQLiteBackend) Recent(ctx context.Context, limit int) ([]Record, error) {
	// LIMIT -1 means no limit in SQLite.
	if limit <= 0 {
		limit = -1
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT
			seq,
			id,
			created_at,
			product_name,
			cost_price,
			taxes,
			shipping,
			target_margin_percent,
			sale_price,
			gross_profit,
			net_profit
		FROM calculations
		ORDER BY created_at DESC, seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			rec       Record
			id        string
			createdAt int64
		)
		if err := rows.Scan(
			&rec.Seq,
			&id,
			&createdAt,
			&rec.Input.ProductName,
			&rec.Input.CostPrice,
			&rec.Input.Taxes,
			&rec.Input.Shipping,
			&rec.Input.TargetMarginPercent,
			&rec.Result.SalePrice,
			&rec.Result.GrossProfit,
			&rec.Result.NetProfit,
		); err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse calculation id %q: %w", id, err)
		}
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}

	return records, nil
}
