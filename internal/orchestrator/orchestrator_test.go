package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/config"
	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/adaptive-retail/asr-engine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal in-memory store.Store for exercising
// orchestrator wiring without a database.
type fakeStore struct {
	skus     map[string]*model.SKU
	vendors  map[string]*model.Vendor
	history  map[string]model.DemandHistoryRecord
	profiles map[string]*model.SeasonalProfile
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		skus:     map[string]*model.SKU{},
		vendors:  map[string]*model.Vendor{},
		history:  map[string]model.DemandHistoryRecord{},
		profiles: map[string]*model.SeasonalProfile{},
	}
}

func histKey(skuID string, year, period int) string {
	return skuID + ":" + time.Duration(year).String() + ":" + time.Duration(period).String()
}

func (f *fakeStore) GetSKU(ctx context.Context, skuID string) (*model.SKU, error) { return f.skus[skuID], nil }
func (f *fakeStore) QuerySKUs(ctx context.Context, filter store.SKUFilter) ([]*model.SKU, error) {
	var out []*model.SKU
	for _, s := range f.skus {
		out = append(out, s)
	}
	return out, nil
}
func (f *fakeStore) UpdateSKU(ctx context.Context, sku *model.SKU) error {
	f.skus[sku.SKUID] = sku
	return nil
}

func (f *fakeStore) GetVendor(ctx context.Context, vendorID, warehouseID string) (*model.Vendor, error) {
	return f.vendors[vendorID], nil
}
func (f *fakeStore) QueryVendors(ctx context.Context, warehouseID string) ([]*model.Vendor, error) {
	var out []*model.Vendor
	for _, v := range f.vendors {
		out = append(out, v)
	}
	return out, nil
}
func (f *fakeStore) UpdateVendor(ctx context.Context, v *model.Vendor) error {
	f.vendors[v.VendorID] = v
	return nil
}
func (f *fakeStore) GetBrackets(ctx context.Context, vendorID string) ([]model.Bracket, error) {
	return nil, nil
}

func (f *fakeStore) GetHistory(ctx context.Context, skuID string, fromYear, fromPeriod, toYear, toPeriod int) ([]model.DemandHistoryRecord, error) {
	if rec, ok := f.history[histKey(skuID, fromYear, fromPeriod)]; ok && fromYear == toYear && fromPeriod == toPeriod {
		return []model.DemandHistoryRecord{rec}, nil
	}
	return nil, nil
}
func (f *fakeStore) InsertHistory(ctx context.Context, rec model.DemandHistoryRecord) error {
	f.history[histKey(rec.SKUID, rec.PeriodYear, rec.PeriodNumber)] = rec
	return nil
}
func (f *fakeStore) UpsertHistory(ctx context.Context, rec model.DemandHistoryRecord) error {
	f.history[histKey(rec.SKUID, rec.PeriodYear, rec.PeriodNumber)] = rec
	return nil
}
func (f *fakeStore) SetIgnored(ctx context.Context, skuID string, year, period int, ignored bool) error {
	return nil
}
func (f *fakeStore) PurgeHistoryBefore(ctx context.Context, skuID string, year, period int) (int, error) {
	return 0, nil
}

func (f *fakeStore) GetSeasonalProfile(ctx context.Context, profileID string) (*model.SeasonalProfile, error) {
	return f.profiles[profileID], nil
}
func (f *fakeStore) UpsertSeasonalProfile(ctx context.Context, p *model.SeasonalProfile) error {
	f.profiles[p.ProfileID] = p
	return nil
}

func (f *fakeStore) InsertOrder(ctx context.Context, o *model.Order) error { return nil }
func (f *fakeStore) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return nil, nil
}
func (f *fakeStore) UpdateOrder(ctx context.Context, o *model.Order) error { return nil }
func (f *fakeStore) QueryOrders(ctx context.Context, vendorID string, statuses []model.OrderStatus) ([]*model.Order, error) {
	return nil, nil
}
func (f *fakeStore) PurgeOrdersBefore(ctx context.Context, warehouseID string, before time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) FindUnresolved(ctx context.Context, key model.ExceptionKey) (*model.ExceptionRecord, error) {
	return nil, nil
}
func (f *fakeStore) InsertException(ctx context.Context, e *model.ExceptionRecord) error { return nil }
func (f *fakeStore) ArchiveResolvedBefore(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) GetCompletedOrders(ctx context.Context, vendorID, skuID string, since time.Time) ([]store.LeadTimeOrder, error) {
	return nil, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestIsPeriodEnd_LastDayOfPeriod13(t *testing.T) {
	// day 28 is the last day of period 1 under the 28-day scheme.
	last := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	notLast := time.Date(2026, 1, 27, 0, 0, 0, 0, time.UTC)
	assert.True(t, isPeriodEnd(last))
	assert.False(t, isPeriodEnd(notLast))
}

func TestPeriodDays_KnownPeriodicities(t *testing.T) {
	assert.InDelta(t, 7.0, periodDays(model.Periodicity52), 1e-9)
	assert.InDelta(t, 28.0, periodDays(model.Periodicity13), 1e-9)
	assert.InDelta(t, 365.0/12.0, periodDays(model.Periodicity12), 1e-9)
}

func TestCounters_ConcurrentSnapshotIsConsistent(t *testing.T) {
	var c counters
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		go func() {
			c.addSKUProcessed()
			c.addVendor(true, false)
			c.addExceptions(2)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 50; i++ {
		<-done
	}
	s := c.snapshot("run-1")
	assert.Equal(t, 50, s.SKUsProcessed)
	assert.Equal(t, 50, s.VendorsProcessed)
	assert.Equal(t, 50, s.OrdersBuilt)
	assert.Equal(t, 100, s.ExceptionsRaised)
}

func TestCounters_VendorFailureIncrementsErrorsNotBuilt(t *testing.T) {
	var c counters
	c.addVendor(false, true)
	s := c.snapshot("run-2")
	assert.Equal(t, 1, s.VendorsProcessed)
	assert.Equal(t, 1, s.VendorErrors)
	assert.Equal(t, 0, s.OrdersBuilt)
}

// TestRefreshSKU_BackfillsLostSalesBeforeRecomputingPoints exercises
// nightly pipeline step 2 wired into refreshSKU: a closed period with
// out-of-stock days must have its lost_sales backfilled before the
// safety-stock/order-point recompute runs.
func TestRefreshSKU_BackfillsLostSalesBeforeRecomputingPoints(t *testing.T) {
	now := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC) // period 2 under the 28-day scheme; previous period is 1
	s := newFakeStore()
	s.vendors["v1"] = &model.Vendor{VendorID: "v1", WarehouseID: "w1", OrderCycleDays: 14}
	s.history[histKey("sku-1", 2026, 1)] = model.DemandHistoryRecord{
		SKUID: "sku-1", PeriodYear: 2026, PeriodNumber: 1, OutOfStockDays: 4,
	}

	sku := &model.SKU{
		SKUID:                "sku-1",
		WarehouseID:          "w1",
		VendorID:             "v1",
		Periodicity:          model.Periodicity13,
		WeeklyForecast:       70, // daily demand = 10
		ServiceLevelGoalPct:  95,
		LeadTimeForecastDays: 7,
	}
	s.skus["sku-1"] = sku

	o := New(s, &config.Config{}, fixedClock{now}, nil, nil)
	var c counters
	require.NoError(t, o.refreshSKU(context.Background(), sku, &c))

	rec := s.history[histKey("sku-1", 2026, 1)]
	assert.InDelta(t, 40.0, rec.LostSales, 1e-9) // 10/day * 4 OOS days
	assert.True(t, rec.IsAdjusted)

	updated := s.skus["sku-1"]
	assert.NotZero(t, updated.ItemOrderPointDays)
}
