package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adaptive-retail/asr-engine/internal/model"
)

const vendorSelectColumns = `SELECT
	vendor_id, warehouse_id, order_cycle_days, header_cost, line_cost,
	service_level_goal_default, lead_time_quoted_days, lead_time_forecast_days, lead_time_variance_pct,
	order_days_in_week, order_week_parity, order_day_in_month, next_order_date, last_order_date,
	current_bracket, automatic_rebuild, order_when_minimum_met, at_risk_threshold_pct, active_items_count`

// GetVendor retrieves a single vendor (store.VendorStore).
func (s *Store) GetVendor(ctx context.Context, vendorID, warehouseID string) (*model.Vendor, error) {
	row := s.db.QueryRowContext(ctx, vendorSelectColumns+` FROM vendors WHERE vendor_id = $1 AND warehouse_id = $2`, vendorID, warehouseID)
	v, err := scanVendor(row)
	if err != nil {
		return nil, fmt.Errorf("get vendor %s/%s: %w", vendorID, warehouseID, err)
	}
	return v, nil
}

// QueryVendors lists every vendor active at a warehouse.
func (s *Store) QueryVendors(ctx context.Context, warehouseID string) ([]*model.Vendor, error) {
	rows, err := s.db.QueryContext(ctx, vendorSelectColumns+` FROM vendors WHERE warehouse_id = $1 ORDER BY vendor_id`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("query vendors for warehouse %s: %w", warehouseID, err)
	}
	defer rows.Close()

	var out []*model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateVendor persists the full vendor row.
func (s *Store) UpdateVendor(ctx context.Context, v *model.Vendor) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE vendors SET
			order_cycle_days = $3, header_cost = $4, line_cost = $5,
			service_level_goal_default = $6, lead_time_quoted_days = $7, lead_time_forecast_days = $8, lead_time_variance_pct = $9,
			order_days_in_week = $10, order_week_parity = $11, order_day_in_month = $12, next_order_date = $13, last_order_date = $14,
			current_bracket = $15, automatic_rebuild = $16, order_when_minimum_met = $17, at_risk_threshold_pct = $18, active_items_count = $19
		WHERE vendor_id = $1 AND warehouse_id = $2`,
		v.VendorID, v.WarehouseID,
		v.OrderCycleDays, v.HeaderCost, v.LineCost,
		v.ServiceLevelGoalDefault, v.LeadTimeQuotedDays, v.LeadTimeForecastDays, v.LeadTimeVariancePct,
		v.OrderDaysInWeek, v.OrderWeekParity, v.OrderDayInMonth, nullTime(v.NextOrderDate), nullTime(v.LastOrderDate),
		v.CurrentBracket, int(v.AutomaticRebuild), v.OrderWhenMinimumMet, v.AtRiskThresholdPct, v.ActiveItemsCount,
	)
	if err != nil {
		return fmt.Errorf("update vendor %s/%s: %w", v.VendorID, v.WarehouseID, err)
	}
	return nil
}

// GetBrackets lists a vendor's discount brackets ordered by minimum
// (store.VendorStore), satisfying the "totally ordered sequence"
// invariant of spec.md §3.
func (s *Store) GetBrackets(ctx context.Context, vendorID string) ([]model.Bracket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vendor_id, bracket_number, unit, minimum, maximum, discount_percentage
		FROM vendor_brackets WHERE vendor_id = $1 ORDER BY unit, minimum ASC`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("get brackets for vendor %s: %w", vendorID, err)
	}
	defer rows.Close()

	var out []model.Bracket
	for rows.Next() {
		var b model.Bracket
		var unit string
		if err := rows.Scan(&b.VendorID, &b.BracketNumber, &unit, &b.Minimum, &b.Maximum, &b.DiscountPercentage); err != nil {
			return nil, fmt.Errorf("scan bracket row: %w", err)
		}
		b.Unit = model.BracketUnit(unit)
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanVendor(row rowScanner) (*model.Vendor, error) {
	var v model.Vendor
	var nextOrderDate, lastOrderDate sql.NullTime
	var automaticRebuild int

	err := row.Scan(
		&v.VendorID, &v.WarehouseID, &v.OrderCycleDays, &v.HeaderCost, &v.LineCost,
		&v.ServiceLevelGoalDefault, &v.LeadTimeQuotedDays, &v.LeadTimeForecastDays, &v.LeadTimeVariancePct,
		&v.OrderDaysInWeek, &v.OrderWeekParity, &v.OrderDayInMonth, &nextOrderDate, &lastOrderDate,
		&v.CurrentBracket, &automaticRebuild, &v.OrderWhenMinimumMet, &v.AtRiskThresholdPct, &v.ActiveItemsCount,
	)
	if err != nil {
		return nil, err
	}
	v.NextOrderDate = nextOrderDate.Time
	v.LastOrderDate = lastOrderDate.Time
	v.AutomaticRebuild = model.RebuildPolicy(automaticRebuild)
	return &v, nil
}
