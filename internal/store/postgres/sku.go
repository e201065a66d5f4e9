package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/adaptive-retail/asr-engine/internal/store"
)

// GetSKU retrieves a single SKU by id (store.SKUStore).
func (s *Store) GetSKU(ctx context.Context, skuID string) (*model.SKU, error) {
	row := s.db.QueryRowContext(ctx, skuSelectColumns+` FROM skus WHERE sku_id = $1`, skuID)
	sku, err := scanSKU(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sku %s: %w", skuID, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("get sku %s: %w", skuID, err)
	}
	return sku, nil
}

// QuerySKUs lists SKUs matching the filter (store.SKUStore).
func (s *Store) QuerySKUs(ctx context.Context, filter store.SKUFilter) ([]*model.SKU, error) {
	query := skuSelectColumns + ` FROM skus WHERE 1=1`
	var args []interface{}
	argN := 1

	if filter.WarehouseID != "" {
		query += fmt.Sprintf(" AND warehouse_id = $%d", argN)
		args = append(args, filter.WarehouseID)
		argN++
	}
	if filter.VendorID != "" {
		query += fmt.Sprintf(" AND vendor_id = $%d", argN)
		args = append(args, filter.VendorID)
		argN++
	}
	if len(filter.BuyerClasses) > 0 {
		placeholders := make([]string, len(filter.BuyerClasses))
		for i, bc := range filter.BuyerClasses {
			placeholders[i] = fmt.Sprintf("$%d", argN)
			args = append(args, string(bc))
			argN++
		}
		query += fmt.Sprintf(" AND buyer_class IN (%s)", strings.Join(placeholders, ","))
	}
	query += " ORDER BY sku_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query skus: %w", err)
	}
	defer rows.Close()

	var out []*model.SKU
	for rows.Next() {
		sku, err := scanSKU(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sku row: %w", err)
		}
		out = append(out, sku)
	}
	return out, rows.Err()
}

// UpdateSKU persists the full SKU row (store.SKUStore). The engine
// always reads-then-writes a whole SKU within one transaction-scoped
// operation (spec.md §5 "Transactions"), so a single UPDATE suffices.
func (s *Store) UpdateSKU(ctx context.Context, sku *model.SKU) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE skus SET
			warehouse_id = $2, vendor_id = $3,
			buyer_class = $4, system_class = $5, forecast_method = $6, periodicity = $7,
			purchase_price = $8, sales_price = $9, buying_multiple = $10, minimum_quantity = $11,
			shelf_life_days = $12, ignore_multiple = $13,
			on_hand = $14, on_order = $15, customer_back_order = $16, reserved = $17, quantity_held = $18,
			weekly_forecast = $19, period_forecast = $20, quarterly_forecast = $21, yearly_forecast = $22,
			madp = $23, track = $24,
			last_forecast_date = $25, freeze_until_date = $26, periods_with_zero_demand = $27, first_active_date = $28,
			service_level_goal_pct = $29, service_level_attained_pct = $30,
			lead_time_forecast_days = $31, lead_time_variance_pct = $32, sstf_days = $33,
			item_order_point_days = $34, item_order_point_units = $35, vendor_order_point_days = $36,
			order_up_to_level_days = $37, order_up_to_level_units = $38,
			manual_safety_stock = $39, ss_type = $40, min_presentation_stock = $41, outl_hard_max = $42,
			item_cycle_days = $43, seasonal_profile_id = $44, own_lead_time_observations = $45
		WHERE sku_id = $1`,
		sku.SKUID, sku.WarehouseID, sku.VendorID,
		string(sku.BuyerClass), string(sku.SystemClass), string(sku.ForecastMethod), int(sku.Periodicity),
		sku.PurchasePrice, sku.SalesPrice, sku.BuyingMultiple, sku.MinimumQuantity,
		sku.ShelfLifeDays, sku.IgnoreMultiple,
		sku.OnHand, sku.OnOrder, sku.CustomerBackOrder, sku.Reserved, sku.QuantityHeld,
		sku.WeeklyForecast, sku.PeriodForecast, sku.QuarterlyForecast, sku.YearlyForecast,
		sku.MADP, sku.Track,
		nullTime(sku.LastForecastDate), nullTime(sku.FreezeUntilDate), sku.PeriodsWithZeroDemand, nullTime(sku.FirstActiveDate),
		sku.ServiceLevelGoalPct, sku.ServiceLevelAttainedPct,
		sku.LeadTimeForecastDays, sku.LeadTimeVariancePct, sku.SSTFDays,
		sku.ItemOrderPointDays, sku.ItemOrderPointUnits, sku.VendorOrderPointDays,
		sku.OrderUpToLevelDays, sku.OrderUpToLevelUnits,
		sku.ManualSafetyStock, string(sku.SSType), sku.MinPresentationStock, sku.OUTLHardMax,
		sku.ItemCycleDays, nullString(sku.SeasonalProfileID), sku.OwnLeadTimeObservations,
	)
	if err != nil {
		return fmt.Errorf("update sku %s: %w", sku.SKUID, err)
	}
	return nil
}

const skuSelectColumns = `SELECT
	sku_id, warehouse_id, vendor_id,
	buyer_class, system_class, forecast_method, periodicity,
	purchase_price, sales_price, buying_multiple, minimum_quantity, shelf_life_days, ignore_multiple,
	on_hand, on_order, customer_back_order, reserved, quantity_held,
	weekly_forecast, period_forecast, quarterly_forecast, yearly_forecast, madp, track,
	last_forecast_date, freeze_until_date, periods_with_zero_demand, first_active_date,
	service_level_goal_pct, service_level_attained_pct,
	lead_time_forecast_days, lead_time_variance_pct, sstf_days,
	item_order_point_days, item_order_point_units, vendor_order_point_days,
	order_up_to_level_days, order_up_to_level_units,
	manual_safety_stock, ss_type, min_presentation_stock, outl_hard_max,
	item_cycle_days, seasonal_profile_id, own_lead_time_observations`

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSKU(row rowScanner) (*model.SKU, error) {
	var sku model.SKU
	var buyerClass, systemClass, forecastMethod, ssType string
	var periodicity int
	var lastForecastDate, freezeUntilDate, firstActiveDate sql.NullTime
	var seasonalProfileID sql.NullString

	err := row.Scan(
		&sku.SKUID, &sku.WarehouseID, &sku.VendorID,
		&buyerClass, &systemClass, &forecastMethod, &periodicity,
		&sku.PurchasePrice, &sku.SalesPrice, &sku.BuyingMultiple, &sku.MinimumQuantity, &sku.ShelfLifeDays, &sku.IgnoreMultiple,
		&sku.OnHand, &sku.OnOrder, &sku.CustomerBackOrder, &sku.Reserved, &sku.QuantityHeld,
		&sku.WeeklyForecast, &sku.PeriodForecast, &sku.QuarterlyForecast, &sku.YearlyForecast, &sku.MADP, &sku.Track,
		&lastForecastDate, &freezeUntilDate, &sku.PeriodsWithZeroDemand, &firstActiveDate,
		&sku.ServiceLevelGoalPct, &sku.ServiceLevelAttainedPct,
		&sku.LeadTimeForecastDays, &sku.LeadTimeVariancePct, &sku.SSTFDays,
		&sku.ItemOrderPointDays, &sku.ItemOrderPointUnits, &sku.VendorOrderPointDays,
		&sku.OrderUpToLevelDays, &sku.OrderUpToLevelUnits,
		&sku.ManualSafetyStock, &ssType, &sku.MinPresentationStock, &sku.OUTLHardMax,
		&sku.ItemCycleDays, &seasonalProfileID, &sku.OwnLeadTimeObservations,
	)
	if err != nil {
		return nil, err
	}

	sku.BuyerClass = model.BuyerClass(buyerClass)
	sku.SystemClass = model.SystemClass(systemClass)
	sku.ForecastMethod = model.ForecastMethod(forecastMethod)
	sku.Periodicity = model.Periodicity(periodicity)
	sku.SSType = model.SafetyStockOverrideType(ssType)
	sku.LastForecastDate = lastForecastDate.Time
	sku.FreezeUntilDate = freezeUntilDate.Time
	sku.FirstActiveDate = firstActiveDate.Time
	sku.SeasonalProfileID = seasonalProfileID.String
	return &sku, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
