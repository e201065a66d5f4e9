package exception

import (
	"context"
	"testing"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestDetect_DemandFilterHigh(t *testing.T) {
	hits := Detect(Snapshot{Forecast: 100, ActualDemand: 160, Sigma: 10}, Thresholds{DemandFilterHigh: 3})
	assert.Contains(t, hits, model.ExceptionDemandFilterHigh)
}

func TestDetect_DemandFilterHigh_DegenerateMADP(t *testing.T) {
	hits := Detect(Snapshot{Forecast: 100, ActualDemand: 250, Sigma: 0}, Thresholds{DemandFilterHigh: 3})
	assert.Contains(t, hits, model.ExceptionDemandFilterHigh)
}

func TestDetect_DemandFilterLow_DegenerateMADP(t *testing.T) {
	hits := Detect(Snapshot{Forecast: 100, ActualDemand: 40, Sigma: 0}, Thresholds{DemandFilterLow: 3})
	assert.Contains(t, hits, model.ExceptionDemandFilterLow)
}

func TestDetect_TrackingSignalHighAndLow(t *testing.T) {
	high := Detect(Snapshot{Track: 60}, Thresholds{TrackingSignalLimit: 55})
	assert.Contains(t, high, model.ExceptionTrackingSignalHigh)

	low := Detect(Snapshot{Track: -60}, Thresholds{TrackingSignalLimit: 55})
	assert.Contains(t, low, model.ExceptionTrackingSignalLow)
}

func TestDetect_ServiceLevelCheck(t *testing.T) {
	hits := Detect(Snapshot{ServiceLevelGoalPct: 95, ServiceLevelAttainedPct: 80}, Thresholds{})
	assert.Contains(t, hits, model.ExceptionServiceLevelCheck)
}

func TestDetect_InfinityCheck(t *testing.T) {
	hits := Detect(Snapshot{Forecast: 0, ActualDemand: 5}, Thresholds{DemandFilterHigh: 3, DemandFilterLow: 3})
	assert.Contains(t, hits, model.ExceptionInfinityCheck)
	assert.NotContains(t, hits, model.ExceptionDemandFilterHigh)
	assert.NotContains(t, hits, model.ExceptionDemandFilterLow)
}

func TestDetect_ClassificationTags(t *testing.T) {
	hits := Detect(Snapshot{BuyerClass: model.BuyerClassWatch, HasSeasonalProfile: true, IsNew: true}, Thresholds{})
	assert.Contains(t, hits, model.ExceptionWatchSku)
	assert.Contains(t, hits, model.ExceptionSeasonalSku)
	assert.Contains(t, hits, model.ExceptionNewSku)
}

func TestDetect_NoHitsOnNormalSnapshot(t *testing.T) {
	hits := Detect(Snapshot{
		Forecast: 100, ActualDemand: 102, Sigma: 10,
		Track: 5, ServiceLevelGoalPct: 95, ServiceLevelAttainedPct: 96,
		BuyerClass: model.BuyerClassRegular,
	}, Thresholds{DemandFilterHigh: 3, DemandFilterLow: 3, TrackingSignalLimit: 55})
	assert.Empty(t, hits)
}

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type fakeExceptionStore struct {
	unresolved map[model.ExceptionKey]*model.ExceptionRecord
	inserted   []*model.ExceptionRecord
}

func (f *fakeExceptionStore) FindUnresolved(ctx context.Context, key model.ExceptionKey) (*model.ExceptionRecord, error) {
	return f.unresolved[key], nil
}

func (f *fakeExceptionStore) InsertException(ctx context.Context, e *model.ExceptionRecord) error {
	f.inserted = append(f.inserted, e)
	return nil
}

func (f *fakeExceptionStore) ArchiveResolvedBefore(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

func TestRaise_SkipsDuplicateUnresolved(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	existingKey := model.ExceptionKey{SKUID: "sku-1", PeriodYear: 2026, PeriodNumber: 1, Type: model.ExceptionInfinityCheck}
	es := &fakeExceptionStore{unresolved: map[model.ExceptionKey]*model.ExceptionRecord{
		existingKey: {SKUID: "sku-1"},
	}}

	snap := Snapshot{SKUID: "sku-1", PeriodYear: 2026, PeriodNumber: 1, Forecast: 0, ActualDemand: 5}
	created, err := Raise(context.Background(), es, fakeClock{now}, snap, Thresholds{})
	assert.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, es.inserted)
}

func TestRaise_InsertsNewException(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	es := &fakeExceptionStore{unresolved: map[model.ExceptionKey]*model.ExceptionRecord{}}

	snap := Snapshot{SKUID: "sku-2", PeriodYear: 2026, PeriodNumber: 2, Forecast: 0, ActualDemand: 5}
	created, err := Raise(context.Background(), es, fakeClock{now}, snap, Thresholds{})
	assert.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, model.ExceptionInfinityCheck, created[0].Type)
	assert.Equal(t, now, created[0].CreatedAt)
}
