package leadtime

import (
	"testing"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/store"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFilter_DiscardsExpeditedAndDelayed(t *testing.T) {
	orders := []store.LeadTimeOrder{
		{OrderDate: day(2025, 1, 1), ReceiptDate: day(2025, 1, 8), IsExpedited: true},
		{OrderDate: day(2025, 1, 1), ReceiptDate: day(2025, 1, 8), IsDelayed: true},
		{OrderDate: day(2025, 1, 1), ReceiptDate: day(2025, 1, 8)},
	}
	got := Filter(orders)
	assert.Len(t, got, 1)
	assert.InDelta(t, 7.0, got[0].Days, 1e-9)
}

func TestFilter_DiscardsOutOfBandExpectedWindow(t *testing.T) {
	orders := []store.LeadTimeOrder{
		{OrderDate: day(2025, 1, 1), ReceiptDate: day(2025, 1, 3), ExpectedDeliveryDate: day(2025, 1, 15)}, // too fast
		{OrderDate: day(2025, 1, 1), ReceiptDate: day(2025, 2, 15), ExpectedDeliveryDate: day(2025, 1, 15)}, // too slow
		{OrderDate: day(2025, 1, 1), ReceiptDate: day(2025, 1, 16), ExpectedDeliveryDate: day(2025, 1, 15)}, // within band
	}
	got := Filter(orders)
	assert.Len(t, got, 1)
}

func TestFilter_DiscardsNonPositiveLeadTime(t *testing.T) {
	orders := []store.LeadTimeOrder{
		{OrderDate: day(2025, 1, 10), ReceiptDate: day(2025, 1, 5)},
	}
	assert.Empty(t, Filter(orders))
}

func TestComputeStats_Basic(t *testing.T) {
	obs := []Observation{{Days: 5}, {Days: 7}, {Days: 9}}
	stats := ComputeStats(obs)
	assert.InDelta(t, 7.0, stats.Mean, 1e-9)
	assert.InDelta(t, 7.0, stats.Median, 1e-9)
	assert.Equal(t, 5.0, stats.Min)
	assert.Equal(t, 9.0, stats.Max)
}

func TestComputeStats_VariancePctFloor(t *testing.T) {
	obs := []Observation{{Days: 10}, {Days: 10}, {Days: 10}}
	stats := ComputeStats(obs)
	assert.Equal(t, minVariancePct, stats.VariancePct)
}

func TestForecast_FloorsAtOneDay(t *testing.T) {
	stats := Stats{Median: 0.2}
	assert.Equal(t, 1.0, Forecast(stats, false))
}

func TestForecast_AppliesHalfTrendWhenSignificant(t *testing.T) {
	stats := Stats{Median: 10, Trend: 4, TrendSignificant: true}
	assert.InDelta(t, 12.0, Forecast(stats, true), 1e-9)
}

func TestForecast_IgnoresTrendWhenDisabled(t *testing.T) {
	stats := Stats{Median: 10, Trend: 4, TrendSignificant: true}
	assert.InDelta(t, 10.0, Forecast(stats, false), 1e-9)
}

func TestDetectMonthlySeasonality_FlagsLargeSpread(t *testing.T) {
	obs := []Observation{
		{Days: 20, ReceiptMonth: time.December},
		{Days: 20, ReceiptMonth: time.December},
		{Days: 5, ReceiptMonth: time.June},
		{Days: 5, ReceiptMonth: time.June},
	}
	result := DetectMonthlySeasonality(obs)
	assert.True(t, result.IsSeasonal)
}

func TestDetectMonthlySeasonality_FlatNotSeasonal(t *testing.T) {
	obs := []Observation{
		{Days: 10, ReceiptMonth: time.December},
		{Days: 10, ReceiptMonth: time.June},
	}
	result := DetectMonthlySeasonality(obs)
	assert.False(t, result.IsSeasonal)
}
