// Package safetystock implements C6: service-factor based
// safety-stock sizing, manual overrides, presentation minimums, and
// the derived order-point/OUTL levels (spec.md §4.6). Grounded on
// warehouse_replenishment/core/safety_stock.py's
// calculate_safety_stock, adapted to spec.md's exact
// E = lead_time + order_cycle/2 formulation.
package safetystock

import (
	"math"

	"github.com/adaptive-retail/asr-engine/internal/mathx"
	"github.com/adaptive-retail/asr-engine/internal/model"
)

const minServiceLevel = 50.0
const maxServiceLevel = 99.99

// ServiceFactor returns z = Φ⁻¹(serviceLevelGoal/100), clamping the
// input to [50, 99.99] (spec.md §4.6 "Service factor").
func ServiceFactor(serviceLevelGoalPct float64) float64 {
	clamped := mathx.Clamp(serviceLevelGoalPct, minServiceLevel, maxServiceLevel)
	return mathx.InverseStdNormalCDF(clamped / 100.0)
}

// Inputs bundles the quantities SafetyStockDays needs, keeping the
// function itself a pure computation over plain numbers (spec.md §9
// "Numerical stability").
type Inputs struct {
	ServiceLevelGoalPct float64
	MADP                float64
	LeadTimeDays        float64
	LeadTimeVariancePct float64
	OrderCycleDays      float64 // 0 disables the attenuation term
	AttenuateByCycle    bool
}

// Days computes safety-stock days over the effective replenishment
// window E = lead_time + order_cycle/2 (spec.md §4.6). When
// order_cycle is 0, the formula reduces to z·√(lead_time·σ_d² +
// σ_lt) without a divide-by-zero, per spec.md §8's boundary case.
func Days(in Inputs) float64 {
	z := ServiceFactor(in.ServiceLevelGoalPct)
	sigmaD := (in.MADP / 100.0) * 1.25
	sigmaLT := in.LeadTimeDays * (in.LeadTimeVariancePct / 100.0)
	e := in.LeadTimeDays + in.OrderCycleDays/2

	days := z * math.Sqrt(e*sigmaD*sigmaD+sigmaLT)

	if in.AttenuateByCycle && in.OrderCycleDays > 0 {
		factor := 1.0 - 0.1*math.Log10(in.OrderCycleDays)
		factor = mathx.Clamp(factor, 0.5, 1.0)
		days *= factor
	}
	if days < 0 {
		days = 0
	}
	return days
}

// ApplySeasonality multiplies safety-stock days by the SKU's
// current-period seasonal index, when it carries a profile
// (spec.md §4.6 "Seasonality").
func ApplySeasonality(ssDays, seasonalIndex float64) float64 {
	if seasonalIndex <= 0 {
		return ssDays
	}
	return ssDays * seasonalIndex
}

// ApplyOverride resolves the manual safety-stock override per
// ss_type (spec.md §4.6 "Manual override").
func ApplyOverride(computedDays float64, ssType model.SafetyStockOverrideType, manualDays float64) float64 {
	switch ssType {
	case model.SSTypeAlways:
		return manualDays
	case model.SSTypeLesserOf:
		return math.Min(computedDays, manualDays)
	default: // SSTypeNever
		return computedDays
	}
}

// Points holds the derived order-point/OUTL levels of spec.md §4.6
// "Derived points".
type Points struct {
	SSUnits              float64
	ItemOrderPointDays   float64
	ItemOrderPointUnits  float64
	VendorOrderPointDays float64
	OrderUpToLevelDays   float64
	OrderUpToLevelUnits  float64
}

// DerivePoints computes item/vendor order points and OUTL from
// safety-stock days, lead time, daily demand, and the effective
// order cycle (spec.md §4.6 "Derived points"). outlHardMax of 0
// means "uncapped".
func DerivePoints(ssDays, leadTimeDays, dailyDemand, orderCycleDays float64, effectiveOrderCycleDays float64, minPresentationStock, outlHardMax float64) Points {
	ssUnits := math.Max(ssDays*dailyDemand, minPresentationStock)

	itemOPDays := ssDays + leadTimeDays
	itemOPUnits := itemOPDays * dailyDemand
	vendorOPDays := itemOPDays + orderCycleDays
	outlDays := itemOPDays + effectiveOrderCycleDays
	outlUnits := outlDays * dailyDemand
	if outlHardMax > 0 && outlUnits > outlHardMax {
		outlUnits = outlHardMax
	}

	return Points{
		SSUnits:              ssUnits,
		ItemOrderPointDays:   itemOPDays,
		ItemOrderPointUnits:  itemOPUnits,
		VendorOrderPointDays: vendorOPDays,
		OrderUpToLevelDays:   outlDays,
		OrderUpToLevelUnits:  outlUnits,
	}
}

// EmpiricalAdjust implements the post-period safety-stock adjustment
// of spec.md §4.6 "Empirical adjustment": Δ = (goal-attained)/100,
// clamped to ±maxAdjustPct/100, SS_days *= (1+Δ).
func EmpiricalAdjust(ssDays, goalPct, attainedPct, maxAdjustPct float64) float64 {
	delta := (goalPct - attainedPct) / 100.0
	bound := maxAdjustPct / 100.0
	delta = mathx.Clamp(delta, -bound, bound)
	return ssDays * (1 + delta)
}
