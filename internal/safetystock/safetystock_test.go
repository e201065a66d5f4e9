package safetystock

import (
	"testing"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestDays_SpecScenario(t *testing.T) {
	// spec.md §8 scenario 2.
	got := Days(Inputs{
		ServiceLevelGoalPct: 95,
		MADP:                25,
		LeadTimeDays:        7,
		LeadTimeVariancePct: 10,
		OrderCycleDays:      14,
	})
	assert.InDelta(t, 2.365, got, 0.01)
}

func TestDays_ZeroOrderCycleNoDivideByZero(t *testing.T) {
	got := Days(Inputs{ServiceLevelGoalPct: 95, MADP: 25, LeadTimeDays: 7, LeadTimeVariancePct: 10})
	assert.Greater(t, got, 0.0)
}

func TestServiceFactor_ClampsRange(t *testing.T) {
	assert.InDelta(t, ServiceFactor(1), ServiceFactor(50), 1e-9)
	assert.InDelta(t, ServiceFactor(999), ServiceFactor(99.99), 1e-9)
}

func TestApplyOverride(t *testing.T) {
	assert.Equal(t, 10.0, ApplyOverride(10, model.SSTypeNever, 99))
	assert.Equal(t, 5.0, ApplyOverride(10, model.SSTypeLesserOf, 5))
	assert.Equal(t, 99.0, ApplyOverride(10, model.SSTypeAlways, 99))
}

func TestDerivePoints_SpecScenario(t *testing.T) {
	// spec.md §8 scenario 3: daily_demand=5, lead_time=7, SS_days=3,
	// order_cycle=14 => OUTL_days=24, OUTL_units=120.
	pts := DerivePoints(3, 7, 5, 14, 14, 0, 0)
	assert.InDelta(t, 10.0, pts.ItemOrderPointDays, 1e-9)
	assert.InDelta(t, 50.0, pts.ItemOrderPointUnits, 1e-9)
	assert.InDelta(t, 24.0, pts.OrderUpToLevelDays, 1e-9)
	assert.InDelta(t, 120.0, pts.OrderUpToLevelUnits, 1e-9)
}

func TestDerivePoints_RespectsOUTLHardMax(t *testing.T) {
	pts := DerivePoints(3, 7, 5, 14, 14, 0, 50)
	assert.Equal(t, 50.0, pts.OrderUpToLevelUnits)
}

func TestDerivePoints_PresentationMinimum(t *testing.T) {
	pts := DerivePoints(1, 7, 1, 7, 7, 100, 0)
	assert.Equal(t, 100.0, pts.SSUnits)
}

func TestEmpiricalAdjust_ClampsDelta(t *testing.T) {
	got := EmpiricalAdjust(10, 95, 50, 10)
	assert.InDelta(t, 11.0, got, 1e-9)
}
