package postgres

import (
	"context"
	"fmt"

	"github.com/adaptive-retail/asr-engine/internal/asrerr"
	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/lib/pq"
)

// GetHistory returns history records for a SKU within [fromYear.fromPeriod,
// toYear.toPeriod] inclusive, oldest first (store.HistoryStore, spec.md §4.2).
func (s *Store) GetHistory(ctx context.Context, skuID string, fromYear, fromPeriod, toYear, toPeriod int) ([]model.DemandHistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku_id, period_year, period_number, shipped, lost_sales, promotional_demand,
		       total_demand, out_of_stock_days, is_ignored, is_adjusted
		FROM demand_history
		WHERE sku_id = $1
		  AND (period_year, period_number) >= ($2, $3)
		  AND (period_year, period_number) <= ($4, $5)
		ORDER BY period_year, period_number`,
		skuID, fromYear, fromPeriod, toYear, toPeriod)
	if err != nil {
		return nil, fmt.Errorf("get history for sku %s: %w", skuID, err)
	}
	defer rows.Close()

	var out []model.DemandHistoryRecord
	for rows.Next() {
		var r model.DemandHistoryRecord
		if err := rows.Scan(&r.SKUID, &r.PeriodYear, &r.PeriodNumber, &r.Shipped, &r.LostSales,
			&r.PromotionalDemand, &r.TotalDemand, &r.OutOfStockDays, &r.IsIgnored, &r.IsAdjusted); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertHistory creates a new (sku, year, period) record, failing with
// an asrerr.ValidationFailure wrapping an "already exists" conflict
// per spec.md §4.2 "Attempting
// to create an existing (sku, year, period) record fails with
// AlreadyExists."
func (s *Store) InsertHistory(ctx context.Context, rec model.DemandHistoryRecord) error {
	rec.Recompute()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO demand_history
			(sku_id, period_year, period_number, shipped, lost_sales, promotional_demand,
			 total_demand, out_of_stock_days, is_ignored, is_adjusted)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.SKUID, rec.PeriodYear, rec.PeriodNumber, rec.Shipped, rec.LostSales, rec.PromotionalDemand,
		rec.TotalDemand, rec.OutOfStockDays, rec.IsIgnored, rec.IsAdjusted)
	if err != nil {
		if isUniqueViolation(err) {
			return asrerr.Wrap(asrerr.ValidationFailure, fmt.Sprintf("history:%s:%d.%d", rec.SKUID, rec.PeriodYear, rec.PeriodNumber), fmt.Errorf("already exists: %w", err))
		}
		return fmt.Errorf("insert history for sku %s: %w", rec.SKUID, err)
	}
	return nil
}

// UpsertHistory idempotently creates-or-updates a (sku, year, period)
// record (store.HistoryStore).
func (s *Store) UpsertHistory(ctx context.Context, rec model.DemandHistoryRecord) error {
	rec.Recompute()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO demand_history
			(sku_id, period_year, period_number, shipped, lost_sales, promotional_demand,
			 total_demand, out_of_stock_days, is_ignored, is_adjusted)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (sku_id, period_year, period_number) DO UPDATE SET
			shipped = EXCLUDED.shipped,
			lost_sales = EXCLUDED.lost_sales,
			promotional_demand = EXCLUDED.promotional_demand,
			total_demand = EXCLUDED.total_demand,
			out_of_stock_days = EXCLUDED.out_of_stock_days,
			is_adjusted = true`,
		rec.SKUID, rec.PeriodYear, rec.PeriodNumber, rec.Shipped, rec.LostSales, rec.PromotionalDemand,
		rec.TotalDemand, rec.OutOfStockDays, rec.IsIgnored, rec.IsAdjusted)
	if err != nil {
		return fmt.Errorf("upsert history for sku %s: %w", rec.SKUID, err)
	}
	return nil
}

// SetIgnored flags or unflags a history record (store.HistoryStore).
func (s *Store) SetIgnored(ctx context.Context, skuID string, year, period int, ignored bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE demand_history SET is_ignored = $4
		WHERE sku_id = $1 AND period_year = $2 AND period_number = $3`,
		skuID, year, period, ignored)
	if err != nil {
		return fmt.Errorf("set ignored for sku %s %d.%d: %w", skuID, year, period, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return asrerr.WrapNotFound(fmt.Sprintf("history:%s:%d.%d", skuID, year, period), nil)
	}
	return nil
}

// PurgeHistoryBefore deletes records older than (year, period)
// exclusive, returning the row count removed (store.HistoryStore,
// spec.md §4.2 purge operation). Calling it again on an already-purged
// window returns zero, satisfying the idempotence law of spec.md §8.
func (s *Store) PurgeHistoryBefore(ctx context.Context, skuID string, year, period int) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM demand_history
		WHERE sku_id = $1 AND (period_year, period_number) < ($2, $3)`,
		skuID, year, period)
	if err != nil {
		return 0, fmt.Errorf("purge history for sku %s: %w", skuID, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// isUniqueViolation reports whether err is a Postgres unique/primary
// key violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
