// Package policy implements C8, the Order Policy Analyzer: EOQ over
// candidate order cycles, single-SKU EOQ closed form, and bracket-
// build simulation (spec.md §4.8). Grounded on
// asr_system/services/order_policy.py's acquisition/carrying/EOQ cost
// model, adapted from its scipy-optimized search to spec.md's fixed
// candidate-cycle enumeration and exact profit-impact formula.
package policy

import (
	"math"
	"sort"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/shopspring/decimal"
)

// CandidateCycles are the fixed order-cycle lengths, in days, spec.md
// §4.8 requires the analyzer to search over.
var CandidateCycles = []int{1, 3, 7, 14, 21, 28, 35, 42, 56, 70, 84}

const (
	minEOQDays = 7.0
	maxEOQDays = 90.0
)

// SingleEOQDays returns the closed-form economic order quantity's
// days-of-supply for one SKU, clipped to [7, 90] (spec.md §4.8 "EOQ
// per single SKU"). annualDemand and dailyDemand must be positive;
// price is per unit, carryingCostRate is a fraction (e.g. 0.4 for 40%),
// lineCost is the acquisition cost per order line (K).
func SingleEOQDays(annualDemand, dailyDemand, price, carryingCostRate, lineCost float64) float64 {
	if annualDemand <= 0 || dailyDemand <= 0 || price <= 0 || carryingCostRate <= 0 {
		return minEOQDays
	}
	h := carryingCostRate * price
	eoqUnits := math.Sqrt(2 * annualDemand * lineCost / h)
	days := eoqUnits / dailyDemand
	if days < minEOQDays {
		return minEOQDays
	}
	if days > maxEOQDays {
		return maxEOQDays
	}
	return days
}

// SKUDemand is one SKU's demand/price inputs to a cycle evaluation
// (spec.md §4.8).
type SKUDemand struct {
	SKUID          string
	DailyDemand    float64
	PurchasePrice  decimal.Decimal
	BuyingMultiple int
	IgnoreMultiple bool
	Unit           model.BracketUnit
}

// CycleResult is one candidate cycle's evaluated economics (spec.md
// §4.8).
type CycleResult struct {
	CycleDays           int
	AnnualValue          decimal.Decimal
	OrderAmount          decimal.Decimal
	Bracket              model.Bracket
	BracketFound          bool
	DiscountPct          decimal.Decimal
	OrdersPerYear        float64
	AcquisitionCost      decimal.Decimal
	CarryingCost         decimal.Decimal
	DiscountSavings      decimal.Decimal
	ProfitImpact         decimal.Decimal
}

// EvaluateCycle computes the order value, applicable bracket/discount,
// acquisition/carrying cost and profit impact for one candidate cycle
// length (spec.md §4.8). safetyStockValue is the dollar value of
// safety stock held across the SKUs, included in average inventory.
func EvaluateCycle(cycleDays int, skus []SKUDemand, brackets []model.Bracket, unit model.BracketUnit, headerCost, lineCost decimal.Decimal, carryingCostRate float64, safetyStockValue decimal.Decimal) CycleResult {
	var orderAmount decimal.Decimal
	lineCount := 0
	for _, s := range skus {
		units := s.DailyDemand * float64(cycleDays)
		if units <= 0 {
			continue
		}
		if !s.IgnoreMultiple && s.BuyingMultiple > 1 {
			m := float64(s.BuyingMultiple)
			units = math.Ceil(units/m) * m
		}
		orderAmount = orderAmount.Add(s.PurchasePrice.Mul(decimal.NewFromFloat(units)))
		lineCount++
	}

	ordersPerYear := 365.0 / float64(cycleDays)
	annualValue := orderAmount.Mul(decimal.NewFromFloat(ordersPerYear))

	bracket, found := model.SelectBracket(brackets, unit, orderAmount)
	discountPct := decimal.Zero
	if found {
		discountPct = bracket.DiscountPercentage
	}

	acquisition := headerCost.Add(lineCost.Mul(decimal.NewFromInt(int64(lineCount)))).Mul(decimal.NewFromFloat(ordersPerYear))

	discountFraction, _ := discountPct.Div(decimal.NewFromInt(100)).Float64()
	avgCycleValue, _ := annualValue.Mul(decimal.NewFromFloat(float64(cycleDays) / 365.0 / 2)).Float64()
	avgInventory := (avgCycleValue + mustFloat(safetyStockValue)) * (1 - discountFraction)
	carrying := decimal.NewFromFloat(avgInventory * carryingCostRate)

	discountSavings := annualValue.Mul(decimal.NewFromFloat(discountFraction))
	profitImpact := discountSavings.Sub(acquisition.Add(carrying))

	return CycleResult{
		CycleDays:       cycleDays,
		AnnualValue:     annualValue,
		OrderAmount:     orderAmount,
		Bracket:         bracket,
		BracketFound:    found,
		DiscountPct:     discountPct,
		OrdersPerYear:   ordersPerYear,
		AcquisitionCost: acquisition,
		CarryingCost:    carrying,
		DiscountSavings: discountSavings,
		ProfitImpact:    profitImpact,
	}
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// SearchCycles evaluates every candidate cycle and returns the results
// sorted by descending profit impact, the first entry being the most
// profitable (spec.md §4.8 '"most profitable" cycle maximizes profit
// impact').
func SearchCycles(skus []SKUDemand, brackets []model.Bracket, unit model.BracketUnit, headerCost, lineCost decimal.Decimal, carryingCostRate float64, safetyStockValue decimal.Decimal) []CycleResult {
	results := make([]CycleResult, 0, len(CandidateCycles))
	for _, c := range CandidateCycles {
		results = append(results, EvaluateCycle(c, skus, brackets, unit, headerCost, lineCost, carryingCostRate, safetyStockValue))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ProfitImpact.GreaterThan(results[j].ProfitImpact)
	})
	return results
}

// BracketSimulation is the projected result of adding addDays worth
// of demand value to reach a target bracket (spec.md §4.8
// "Bracket-build simulation").
type BracketSimulation struct {
	TargetBracket   model.Bracket
	ProjectedAmount decimal.Decimal
	MinimumMet      bool
	MaximumExceeded bool
}

// SimulateBracketBuild projects the order amount after adding
// addDays worth of daily demand value for a vendor, and reports
// whether the target bracket's minimum is met and whether its
// maximum would be exceeded (spec.md §4.8 "Bracket-build simulation").
func SimulateBracketBuild(currentAmount decimal.Decimal, totalDailyDemandValue float64, addDays float64, target model.Bracket) BracketSimulation {
	projected := currentAmount.Add(decimal.NewFromFloat(totalDailyDemandValue * addDays))
	sim := BracketSimulation{
		TargetBracket:   target,
		ProjectedAmount: projected,
		MinimumMet:      !projected.LessThan(target.Minimum),
	}
	if !target.IsUnbounded() {
		sim.MaximumExceeded = projected.GreaterThan(target.Maximum)
	}
	return sim
}
