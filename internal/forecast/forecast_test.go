package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegularAVS_SpecScenario(t *testing.T) {
	// spec.md §8 scenario 1: forecast=100, track=0.20 (i.e. 20 on the
	// [-100,100] scale), alpha_factor=10, latest demand 80.
	got := RegularAVS(100, 80, 20, 10)
	assert.InDelta(t, 84.0, got, 1e-9)
}

func TestRegularAVS_ClampsAlpha(t *testing.T) {
	// track=100 -> |track|/100=1.0, capped to 0.5 before alphaFactor
	// scaling; alpha_factor=10 leaves it at 0.5, so the blend is
	// 0.5*200 + 0.5*100 = 150.
	got := RegularAVS(100, 200, 100, 10)
	assert.InDelta(t, 150.0, got, 1e-9)
}

func TestEnhancedAVS_NoUpdateScenario(t *testing.T) {
	// spec.md §8 scenario 5: forecast_demand_limit=1, demand=0,
	// track=30 (0.3 on a 0-100 scale), update_frequency_impact=5 used
	// as an integer divisor. With 4 zero periods below the force limit
	// (2*5=10) the level is not decreased, but the stored track still
	// damps by the fixed 0.95 base per zero period: 30 * 0.95^4 ≈ 24.435.
	result := EnhancedAVS(100, 0, 30, 4, 2.0, 5.0, 1.0, 10)
	assert.False(t, result.Forced)
	assert.InDelta(t, 100.0, result.NewForecast, 1e-9)
	assert.InDelta(t, 24.4351875, result.NewTrack, 1e-6)
}

func TestEnhancedAVS_ForcesDecreaseWhenStagnant(t *testing.T) {
	result := EnhancedAVS(100, 0, 30, 20, 2.0, 2.0, 1.0, 10)
	assert.True(t, result.Forced)
	assert.Less(t, result.NewForecast, 100.0)
}

func TestEnhancedAVS_RegularPathWhenDemandAboveLimit(t *testing.T) {
	result := EnhancedAVS(100, 80, 20, 0, 2.0, 2.0, 1.0, 10)
	assert.False(t, result.Forced)
	assert.InDelta(t, 84.0, result.NewForecast, 1e-9)
}

func TestComputeStats(t *testing.T) {
	actual := []float64{110, 90, 100, 120}
	forecasted := []float64{100, 100, 100, 100}
	stats := ComputeStats(actual, forecasted)

	assert.InDelta(t, 10.0, stats.MAD, 1e-9)
	assert.InDelta(t, 10.0, stats.MADP, 1e-9)
	assert.InDelta(t, 50.0, stats.Track, 1e-9)
}

func TestComputeStats_EmptyInput(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil, nil))
}

func TestExpectedZeroPeriods_ZeroForecast(t *testing.T) {
	assert.Equal(t, 12.0, ExpectedZeroPeriods(0, 25))
}

func TestExpectedZeroPeriods_HighZScore(t *testing.T) {
	assert.Equal(t, 0.0, ExpectedZeroPeriods(1000, 1))
}

func TestInitialForecast_UsesHistoryWhenPresent(t *testing.T) {
	got := InitialForecast([]float64{100, 90, 80}, nil)
	assert.Greater(t, got, 80.0)
	assert.Less(t, got, 100.0)
}

func TestInitialForecast_FallsBackToPeerMean(t *testing.T) {
	got := InitialForecast(nil, []float64{10, 20, 30})
	assert.InDelta(t, 20.0, got, 1e-9)
}

func TestInitialForecast_FinalFallback(t *testing.T) {
	assert.Equal(t, 1.0, InitialForecast(nil, nil))
}
