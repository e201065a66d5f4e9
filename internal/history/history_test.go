package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type fakeHistoryStore struct {
	records map[string]model.DemandHistoryRecord
	ignored map[string]bool
}

func key(sku string, year, period int) string {
	return fmt.Sprintf("%s:%d:%d", sku, year, period)
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{records: map[string]model.DemandHistoryRecord{}, ignored: map[string]bool{}}
}

func (f *fakeHistoryStore) GetHistory(ctx context.Context, skuID string, fromYear, fromPeriod, toYear, toPeriod int) ([]model.DemandHistoryRecord, error) {
	var out []model.DemandHistoryRecord
	for y := fromYear; y <= toYear; y++ {
		for p := 1; p <= 13; p++ {
			if y == fromYear && p < fromPeriod {
				continue
			}
			if y == toYear && p > toPeriod {
				continue
			}
			if rec, ok := f.records[key(skuID, y, p)]; ok {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (f *fakeHistoryStore) InsertHistory(ctx context.Context, rec model.DemandHistoryRecord) error {
	k := key(rec.SKUID, rec.PeriodYear, rec.PeriodNumber)
	if _, exists := f.records[k]; exists {
		return errors.New("history record already exists")
	}
	f.records[k] = rec
	return nil
}

func (f *fakeHistoryStore) UpsertHistory(ctx context.Context, rec model.DemandHistoryRecord) error {
	f.records[key(rec.SKUID, rec.PeriodYear, rec.PeriodNumber)] = rec
	return nil
}

func (f *fakeHistoryStore) SetIgnored(ctx context.Context, skuID string, year, period int, ignored bool) error {
	f.ignored[key(skuID, year, period)] = ignored
	return nil
}

func (f *fakeHistoryStore) PurgeHistoryBefore(ctx context.Context, skuID string, year, period int) (int, error) {
	n := 0
	for k, rec := range f.records {
		if rec.SKUID != skuID {
			continue
		}
		if rec.PeriodYear < year || (rec.PeriodYear == year && rec.PeriodNumber < period) {
			delete(f.records, k)
			n++
		}
	}
	return n, nil
}

type fakeSeasonalStore struct {
	profiles map[string]*model.SeasonalProfile
}

func (f *fakeSeasonalStore) GetSeasonalProfile(ctx context.Context, profileID string) (*model.SeasonalProfile, error) {
	return f.profiles[profileID], nil
}

func (f *fakeSeasonalStore) UpsertSeasonalProfile(ctx context.Context, p *model.SeasonalProfile) error {
	f.profiles[p.ProfileID] = p
	return nil
}

func TestBackfillLostSales_EstimatesFromDailyDemandAndOOSDays(t *testing.T) {
	svc := &Service{Store: newFakeHistoryStore(), Seasons: &fakeSeasonalStore{profiles: map[string]*model.SeasonalProfile{}}, Clock: fakeClock{time.Now()}}

	sku := &model.SKU{SKUID: "sku-1", WeeklyForecast: 70} // daily demand = 10
	rec := &model.DemandHistoryRecord{SKUID: "sku-1", PeriodYear: 2026, PeriodNumber: 1, OutOfStockDays: 5}

	err := svc.BackfillLostSales(context.Background(), sku, rec)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, rec.LostSales, 1e-9)
	assert.True(t, rec.IsAdjusted)
}

func TestBackfillLostSales_ZeroOOSDaysIsNoop(t *testing.T) {
	svc := &Service{Store: newFakeHistoryStore(), Seasons: &fakeSeasonalStore{profiles: map[string]*model.SeasonalProfile{}}, Clock: fakeClock{time.Now()}}

	sku := &model.SKU{SKUID: "sku-1", WeeklyForecast: 70}
	rec := &model.DemandHistoryRecord{SKUID: "sku-1", PeriodYear: 2026, PeriodNumber: 1, OutOfStockDays: 0}

	err := svc.BackfillLostSales(context.Background(), sku, rec)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.LostSales)
	assert.False(t, rec.IsAdjusted)
}

func TestBackfillLostSales_ZeroDailyDemandYieldsZeroLostSales(t *testing.T) {
	svc := &Service{Store: newFakeHistoryStore(), Seasons: &fakeSeasonalStore{profiles: map[string]*model.SeasonalProfile{}}, Clock: fakeClock{time.Now()}}

	sku := &model.SKU{SKUID: "sku-1", WeeklyForecast: 0}
	rec := &model.DemandHistoryRecord{SKUID: "sku-1", PeriodYear: 2026, PeriodNumber: 1, OutOfStockDays: 5}

	err := svc.BackfillLostSales(context.Background(), sku, rec)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.LostSales)
	assert.True(t, rec.IsAdjusted)
}

func TestBackfillLostSales_AppliesSeasonalIndex(t *testing.T) {
	seasons := &fakeSeasonalStore{profiles: map[string]*model.SeasonalProfile{
		"prof-1": {ProfileID: "prof-1", Periodicity: model.Periodicity13, Indices: []float64{1.5}},
	}}
	svc := &Service{Store: newFakeHistoryStore(), Seasons: seasons, Clock: fakeClock{time.Now()}}

	sku := &model.SKU{SKUID: "sku-1", WeeklyForecast: 70, SeasonalProfileID: "prof-1"} // daily demand = 10
	rec := &model.DemandHistoryRecord{SKUID: "sku-1", PeriodYear: 2026, PeriodNumber: 1, OutOfStockDays: 5}

	err := svc.BackfillLostSales(context.Background(), sku, rec)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, rec.LostSales, 1e-9)
}

func TestPurge_RemovesOlderPeriodsOnly(t *testing.T) {
	store := newFakeHistoryStore()
	store.records[key("sku-1", 2025, 1)] = model.DemandHistoryRecord{SKUID: "sku-1", PeriodYear: 2025, PeriodNumber: 1}
	store.records[key("sku-1", 2026, 1)] = model.DemandHistoryRecord{SKUID: "sku-1", PeriodYear: 2026, PeriodNumber: 1}
	svc := &Service{Store: store, Seasons: &fakeSeasonalStore{profiles: map[string]*model.SeasonalProfile{}}, Clock: fakeClock{time.Now()}}

	n, err := svc.Purge(context.Background(), "sku-1", 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, stillThere := store.records[key("sku-1", 2026, 1)]
	assert.True(t, stillThere)
}

func TestCopy_ScalesDemandIntoDestinationSKU(t *testing.T) {
	store := newFakeHistoryStore()
	store.records[key("sku-a", 2026, 1)] = model.DemandHistoryRecord{SKUID: "sku-a", PeriodYear: 2026, PeriodNumber: 1, Shipped: 100, LostSales: 20}
	svc := &Service{Store: store, Seasons: &fakeSeasonalStore{profiles: map[string]*model.SeasonalProfile{}}, Clock: fakeClock{time.Now()}}

	n, err := svc.Copy(context.Background(), "sku-a", "sku-b", 2026, 1, 2026, 1, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	dst := store.records[key("sku-b", 2026, 1)]
	assert.InDelta(t, 50.0, dst.Shipped, 1e-9)
	assert.InDelta(t, 10.0, dst.LostSales, 1e-9)
}
