package policy

import (
	"testing"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSingleEOQDays_SpecScenario(t *testing.T) {
	// spec.md §8 scenario 6: D=5200, K=$1, price=$10, carrying=40%
	// -> EOQ~=50.99, days_of_supply~=3.58, clamped to the 7-day floor.
	dailyDemand := 5200.0 / 365.0
	days := SingleEOQDays(5200, dailyDemand, 10, 0.4, 1)
	assert.Equal(t, 7.0, days)
}

func TestSingleEOQDays_ClampsToMax(t *testing.T) {
	days := SingleEOQDays(10, 10.0/365.0, 0.01, 0.01, 1)
	assert.Equal(t, 90.0, days)
}

func TestSingleEOQDays_ZeroInputsFloor(t *testing.T) {
	assert.Equal(t, 7.0, SingleEOQDays(0, 0, 0, 0, 0))
}

func TestEvaluateCycle_RoundsByBuyingMultiple(t *testing.T) {
	skus := []SKUDemand{
		{SKUID: "a", DailyDemand: 5, PurchasePrice: decimal.NewFromInt(1), BuyingMultiple: 8},
	}
	result := EvaluateCycle(7, skus, nil, model.BracketUnitAmount, decimal.NewFromInt(5), decimal.NewFromInt(1), 0.25, decimal.Zero)
	// 5*7=35 units, rounded up to next multiple of 8 -> 40.
	assert.True(t, result.OrderAmount.Equal(decimal.NewFromInt(40)))
}

func TestEvaluateCycle_AppliesBracketDiscount(t *testing.T) {
	skus := []SKUDemand{
		{SKUID: "a", DailyDemand: 100, PurchasePrice: decimal.NewFromInt(1), BuyingMultiple: 1},
	}
	brackets := []model.Bracket{
		{Unit: model.BracketUnitAmount, Minimum: decimal.NewFromInt(0), Maximum: decimal.NewFromInt(500), DiscountPercentage: decimal.Zero},
		{Unit: model.BracketUnitAmount, Minimum: decimal.NewFromInt(500), Maximum: decimal.Zero, DiscountPercentage: decimal.NewFromInt(10)},
	}
	result := EvaluateCycle(7, skus, brackets, model.BracketUnitAmount, decimal.NewFromInt(5), decimal.NewFromInt(1), 0.25, decimal.Zero)
	assert.True(t, result.BracketFound)
	assert.True(t, result.DiscountPct.Equal(decimal.NewFromInt(10)))
	assert.True(t, result.DiscountSavings.GreaterThan(decimal.Zero))
}

func TestSearchCycles_SortsByDescendingProfitImpact(t *testing.T) {
	skus := []SKUDemand{
		{SKUID: "a", DailyDemand: 14.25, PurchasePrice: decimal.NewFromInt(10), BuyingMultiple: 1},
	}
	results := SearchCycles(skus, nil, model.BracketUnitAmount, decimal.NewFromInt(1), decimal.NewFromInt(1), 0.4, decimal.Zero)
	assert.Len(t, results, len(CandidateCycles))
	for i := 1; i < len(results); i++ {
		assert.True(t, results[i-1].ProfitImpact.GreaterThanOrEqual(results[i].ProfitImpact))
	}
}

func TestSimulateBracketBuild_MinimumMet(t *testing.T) {
	target := model.Bracket{Minimum: decimal.NewFromInt(1000), Maximum: decimal.NewFromInt(5000)}
	sim := SimulateBracketBuild(decimal.NewFromInt(800), 50, 5, target)
	assert.True(t, sim.MinimumMet)
	assert.False(t, sim.MaximumExceeded)
}

func TestSimulateBracketBuild_MaximumExceeded(t *testing.T) {
	target := model.Bracket{Minimum: decimal.NewFromInt(100), Maximum: decimal.NewFromInt(1000)}
	sim := SimulateBracketBuild(decimal.NewFromInt(950), 100, 2, target)
	assert.True(t, sim.MaximumExceeded)
}

func TestSimulateBracketBuild_UnboundedNeverExceeds(t *testing.T) {
	target := model.Bracket{Minimum: decimal.NewFromInt(100), Maximum: decimal.Zero}
	sim := SimulateBracketBuild(decimal.NewFromInt(10000), 1000, 100, target)
	assert.False(t, sim.MaximumExceeded)
}
