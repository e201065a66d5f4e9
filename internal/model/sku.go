package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SKU is a stock-keeping unit at a single warehouse, sourced from a
// single vendor (spec.md §3).
type SKU struct {
	SKUID     string
	WarehouseID string
	VendorID  string

	BuyerClass     BuyerClass
	SystemClass    SystemClass
	ForecastMethod ForecastMethod
	Periodicity    Periodicity

	PurchasePrice  decimal.Decimal
	SalesPrice     decimal.Decimal
	BuyingMultiple int
	MinimumQuantity int
	ShelfLifeDays  int
	IgnoreMultiple bool

	OnHand            float64
	OnOrder           float64
	CustomerBackOrder float64
	Reserved          float64
	QuantityHeld      float64

	WeeklyForecast    float64
	PeriodForecast    float64
	QuarterlyForecast float64
	YearlyForecast    float64
	MADP              float64
	Track             float64

	LastForecastDate    time.Time
	FreezeUntilDate     time.Time
	PeriodsWithZeroDemand int
	FirstActiveDate     time.Time

	ServiceLevelGoalPct     float64
	ServiceLevelAttainedPct float64
	LeadTimeForecastDays    float64
	LeadTimeVariancePct     float64
	SSTFDays                float64

	ItemOrderPointDays    float64
	ItemOrderPointUnits   float64
	VendorOrderPointDays  float64
	OrderUpToLevelDays    float64
	OrderUpToLevelUnits   float64

	ManualSafetyStock    float64
	SSType               SafetyStockOverrideType
	MinPresentationStock float64
	OUTLHardMax          float64 // 0 means unset

	ItemCycleDays int // per-SKU order cycle override, 0 = use vendor's

	SeasonalProfileID string // empty means no profile assigned

	OwnLeadTimeObservations int // count of own receipts usable for §4.5 "own forecast"
}

// AvailableBalance implements the invariant of spec.md §3:
// on_hand + on_order - customer_back_order - reserved - quantity_held.
func (s *SKU) AvailableBalance() float64 {
	return s.OnHand + s.OnOrder - s.CustomerBackOrder - s.Reserved - s.QuantityHeld
}

// DailyDemand derives the daily demand rate from the weekly forecast
// (spec.md §4.6).
func (s *SKU) DailyDemand() float64 {
	return s.WeeklyForecast / 7.0
}

// IsFrozen reports whether reforecasting is currently suppressed
// (spec.md §4.3 "Freeze").
func (s *SKU) IsFrozen(today time.Time) bool {
	return !s.FreezeUntilDate.IsZero() && s.FreezeUntilDate.After(today)
}

// AgeDays returns how many days the SKU has carried history, used by
// the 180-day maturity gate of spec.md §4.3.
func (s *SKU) AgeDays(today time.Time) float64 {
	if s.FirstActiveDate.IsZero() {
		return 0
	}
	return today.Sub(s.FirstActiveDate).Hours() / 24.0
}

// EffectiveOrderCycle returns max(vendor order cycle, item cycle override),
// per spec.md §4.6.
func EffectiveOrderCycle(vendorOrderCycleDays, itemCycleDays int) int {
	if itemCycleDays > vendorOrderCycleDays {
		return itemCycleDays
	}
	return vendorOrderCycleDays
}
