// Package history implements the demand-history maintenance
// operations of spec.md §4.2: lookback reads, idempotent upserts,
// ignore flags, scaled copies between SKUs, retention purges, and
// out-of-stock lost-sales backfill.
package history

import (
	"context"
	"fmt"

	"github.com/adaptive-retail/asr-engine/internal/calendar"
	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/adaptive-retail/asr-engine/internal/store"
)

// Service operates over a HistoryStore plus the seasonal/SKU lookups
// it needs for backfill.
type Service struct {
	Store store.HistoryStore
	SKUs  store.SKUStore
	Seasons store.SeasonalProfileStore
	Clock store.Clock
}

func New(s store.Store, clock store.Clock) *Service {
	return &Service{Store: s, SKUs: s, Seasons: s, Clock: clock}
}

// Window reads history for a SKU over the last years years up to the
// current period, oldest first (spec.md §4.2 "lookback window").
func (svc *Service) Window(ctx context.Context, sku *model.SKU, years int) ([]model.DemandHistoryRecord, error) {
	now := svc.Clock.Now()
	cur, err := calendar.ToPeriod(now, sku.Periodicity)
	if err != nil {
		return nil, fmt.Errorf("history window for sku %s: %w", sku.SKUID, err)
	}
	from := cur
	for i := 0; i < years*int(sku.Periodicity); i++ {
		from = calendar.Previous(from, sku.Periodicity)
	}
	return svc.Store.GetHistory(ctx, sku.SKUID, from.Year, from.Number, cur.Year, cur.Number)
}

// Upsert creates-or-replaces one (sku, year, period) record,
// recomputing total_demand and marking it adjusted (spec.md §4.2
// contract).
func (svc *Service) Upsert(ctx context.Context, rec model.DemandHistoryRecord) error {
	return svc.Store.UpsertHistory(ctx, rec)
}

// Create inserts a brand-new record, failing if one already exists
// for the key (spec.md §4.2 "AlreadyExists").
func (svc *Service) Create(ctx context.Context, rec model.DemandHistoryRecord) error {
	return svc.Store.InsertHistory(ctx, rec)
}

// SetIgnored flags or clears the is_ignored bit on a period, excluding
// it from (or restoring it to) forecast computation without deleting
// it (spec.md §4.2).
func (svc *Service) SetIgnored(ctx context.Context, skuID string, year, period int, ignored bool) error {
	return svc.Store.SetIgnored(ctx, skuID, year, period, ignored)
}

// Purge removes records for a SKU older than (year, period) exclusive.
func (svc *Service) Purge(ctx context.Context, skuID string, year, period int) (int, error) {
	return svc.Store.PurgeHistoryBefore(ctx, skuID, year, period)
}

// Copy bulk-copies history from one SKU to another with a
// multiplicative scale factor, used when a replacement item inherits
// a discontinued one's demand (spec.md §4.2 "bulk copy with
// multiplicative scaling").
func (svc *Service) Copy(ctx context.Context, fromSKU, toSKU string, fromYear, fromPeriod, toYear, toPeriod int, scale float64) (int, error) {
	records, err := svc.Store.GetHistory(ctx, fromSKU, fromYear, fromPeriod, toYear, toPeriod)
	if err != nil {
		return 0, fmt.Errorf("copy history from %s: %w", fromSKU, err)
	}
	n := 0
	for _, r := range records {
		dst := model.DemandHistoryRecord{
			SKUID:             toSKU,
			PeriodYear:        r.PeriodYear,
			PeriodNumber:      r.PeriodNumber,
			Shipped:           r.Shipped * scale,
			LostSales:         r.LostSales * scale,
			PromotionalDemand: r.PromotionalDemand * scale,
			OutOfStockDays:    r.OutOfStockDays,
			IsIgnored:         r.IsIgnored,
		}
		if err := svc.Store.UpsertHistory(ctx, dst); err != nil {
			return n, fmt.Errorf("copy history %s %d.%d: %w", toSKU, r.PeriodYear, r.PeriodNumber, err)
		}
		n++
	}
	return n, nil
}

// BackfillLostSales fills lost_sales for a period with
// out_of_stock_days > 0, estimating unmet demand as daily forecast
// times OOS days, optionally deseasonalized/reseasonalized against
// the SKU's profile for that period (spec.md §4.2). Out-of-stock with
// zero daily demand yields lost_sales = 0 (spec.md §8 boundary case).
func (svc *Service) BackfillLostSales(ctx context.Context, sku *model.SKU, rec *model.DemandHistoryRecord) error {
	if rec.OutOfStockDays <= 0 {
		return nil
	}
	dailyDemand := sku.DailyDemand()
	if dailyDemand <= 0 {
		rec.LostSales = 0
		rec.Recompute()
		return svc.Store.UpsertHistory(ctx, *rec)
	}

	estimate := dailyDemand * float64(rec.OutOfStockDays)
	if sku.SeasonalProfileID != "" {
		profile, err := svc.Seasons.GetSeasonalProfile(ctx, sku.SeasonalProfileID)
		if err == nil && profile != nil {
			estimate *= profile.IndexForPeriod(rec.PeriodNumber)
		}
	}

	rec.LostSales = estimate
	rec.Recompute()
	return svc.Store.UpsertHistory(ctx, *rec)
}
