package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vendor is a shipping source for one or more SKUs at a warehouse
// (spec.md §3, "Vendor (Source)").
type Vendor struct {
	VendorID    string
	WarehouseID string

	OrderCycleDays            int
	HeaderCost                decimal.Decimal
	LineCost                  decimal.Decimal
	ServiceLevelGoalDefault   float64
	LeadTimeQuotedDays        float64
	LeadTimeForecastDays      float64
	LeadTimeVariancePct       float64

	OrderDaysInWeek  uint8 // bitmap, bit 0 = Sunday
	OrderWeekParity  int   // 0 = every week, 1 = odd ISO weeks, 2 = even
	OrderDayInMonth  int   // 1-28, 0 = not monthly-scheduled
	NextOrderDate    time.Time
	LastOrderDate    time.Time

	CurrentBracket       int
	AutomaticRebuild      RebuildPolicy
	OrderWhenMinimumMet   bool
	AtRiskThresholdPct    float64 // default 20.0 per spec.md §4.7, 0 means "use config default"

	ActiveItemsCount int
}

// RebuildPolicy mirrors the vendor automatic-rebuild policy codes of
// spec.md §4.7 ("vendor policy 4|5 with a current bracket set").
type RebuildPolicy int

const (
	RebuildPolicyNone RebuildPolicy = iota
	RebuildPolicyManualOnly
	RebuildPolicyWarnOnly
	RebuildPolicyReserved
	RebuildPolicyAutomatic
	RebuildPolicyAutomaticAggressive
)

// IsAutomatic reports whether this policy triggers automatic bracket
// rebuilding (policy codes 4 and 5 in spec.md §4.7).
func (p RebuildPolicy) IsAutomatic() bool {
	return p == RebuildPolicyAutomatic || p == RebuildPolicyAutomaticAggressive
}

// Bracket is one quantity/value discount tier on a vendor (spec.md §3).
type Bracket struct {
	VendorID         string
	BracketNumber    int
	Unit             BracketUnit
	Minimum          decimal.Decimal
	Maximum          decimal.Decimal // zero means unbounded (infinity)
	DiscountPercentage decimal.Decimal
}

// IsUnbounded reports whether this is the top-open bracket (maximum == 0).
func (b Bracket) IsUnbounded() bool {
	return b.Maximum.IsZero()
}

// Contains reports whether orderAmount falls within [minimum, maximum],
// treating a zero maximum as +infinity (spec.md §3 Bracket invariant).
func (b Bracket) Contains(orderAmount decimal.Decimal) bool {
	if orderAmount.LessThan(b.Minimum) {
		return false
	}
	if b.IsUnbounded() {
		return true
	}
	return !orderAmount.GreaterThan(b.Maximum)
}

// SelectBracket returns the highest bracket of the given unit whose
// range contains orderAmount, per spec.md §3's bracket-selection
// invariant. Brackets must already be sorted ascending by Minimum.
func SelectBracket(brackets []Bracket, unit BracketUnit, orderAmount decimal.Decimal) (Bracket, bool) {
	var best Bracket
	found := false
	for _, b := range brackets {
		if b.Unit != unit {
			continue
		}
		if !b.Contains(orderAmount) {
			continue
		}
		if !found || b.Minimum.GreaterThan(best.Minimum) {
			best = b
			found = true
		}
	}
	return best, found
}
