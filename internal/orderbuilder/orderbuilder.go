// Package orderbuilder implements C7, the Order Builder: per-SKU SOQ
// computation, buying-multiple rounding, item delay, the vendor-level
// is-order-due test, automatic bracket rebuilding, and the order
// checks/totals bookkeeping of spec.md §4.7. Grounded on
// asr_system/services/order_policy.py and warehouse_replenishment/
// order_adjustments.py's line-adjustment approach, adapted to
// spec.md's exact SOQ/rebuild/check formulas.
package orderbuilder

import (
	"math"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/shopspring/decimal"
)

// LineInput bundles the per-SKU quantities BuildLine needs, keeping
// it a pure computation over plain fields rather than a live *model.SKU
// (spec.md §9 "Numerical stability").
type LineInput struct {
	SKUID                  string
	BuyerClass             model.BuyerClass
	SystemClass            model.SystemClass
	Available              float64
	OUTLUnits              float64
	OUTLDays               float64
	ItemOrderPointUnits    float64
	DailyDemand            float64
	BuyingMultiple         int
	IgnoreMultiple         bool
	PurchasePrice          decimal.Decimal
	ShelfLifeDays          int
	PeriodForecast         float64
	ServiceLevelGoalPct    float64
	OPPrimeLimit           float64
	IsManual               bool
	IsUninitialized        bool
	IsNew                  bool
}

// Line is a computed order line plus the classification flags that
// feed OrderChecks.
type Line struct {
	model.OrderLine
	IsOrderPointA bool
	IsOrderPoint  bool
	IsWatch       bool
	IsManual      bool
	IsNew         bool
	IsUninitialized bool
	IsQuantityFlag  bool
	IsShelfLifeFlag bool
}

// RoundToMultiple rounds units up to the next multiple of buyingMultiple
// unless ignoreMultiple is set or the multiple is <= 1 (spec.md §4.7
// step 4).
func RoundToMultiple(units float64, buyingMultiple int, ignoreMultiple bool) float64 {
	if ignoreMultiple || buyingMultiple <= 1 || units <= 0 {
		return units
	}
	m := float64(buyingMultiple)
	return math.Ceil(units/m) * m
}

// BuildLine computes SOQ, SOQ days, item delay, and the check flags
// for one SKU (spec.md §4.7 steps 1-6, "Order checks"). It returns
// (line, false) when SOQ_units <= 0, meaning no line should be emitted.
func BuildLine(in LineInput) (Line, bool) {
	soqUnits := in.OUTLUnits - in.Available
	if soqUnits <= 0 {
		return Line{}, false
	}

	soqUnits = RoundToMultiple(soqUnits, in.BuyingMultiple, in.IgnoreMultiple)

	var soqDays float64
	if in.DailyDemand > 0 {
		soqDays = soqUnits / in.DailyDemand
	}

	var itemDelay float64
	if in.DailyDemand > 0 {
		itemDelay = (in.Available - in.ItemOrderPointUnits) / in.DailyDemand
	}

	extended := in.PurchasePrice.Mul(decimal.NewFromFloat(soqUnits))

	line := Line{
		OrderLine: model.OrderLine{
			SKUID:              in.SKUID,
			SOQUnits:           soqUnits,
			SOQDays:            soqDays,
			PurchasePrice:      in.PurchasePrice,
			ExtendedAmount:     extended,
			ItemDelayDays:      itemDelay,
			IsManual:           in.IsManual,
			IsOrderPointDriven: in.Available <= in.ItemOrderPointUnits,
		},
		IsManual:        in.IsManual,
		IsNew:           in.IsNew,
		IsUninitialized: in.IsUninitialized,
		IsWatch:         in.BuyerClass == model.BuyerClassWatch,
	}

	highServiceLevel := in.ServiceLevelGoalPct >= in.OPPrimeLimit
	if line.IsOrderPointDriven {
		if highServiceLevel {
			line.IsOrderPointA = true
		} else {
			line.IsOrderPoint = true
		}
	}

	// "quantity" check: SOQ > 6-month supply, taken as 6 period
	// forecasts with a 1.5x margin (spec.md §4.7 "Order checks").
	if in.PeriodForecast > 0 && soqUnits > 6*in.PeriodForecast*1.5 {
		line.IsQuantityFlag = true
	}
	if in.ShelfLifeDays > 0 && soqDays > float64(in.ShelfLifeDays) {
		line.IsShelfLifeFlag = true
	}

	return line, true
}

// Checks tallies the per-order OrderChecks counts from a set of
// built lines (spec.md §4.7 "Order checks").
func Checks(lines []Line) model.OrderChecks {
	var c model.OrderChecks
	for _, l := range lines {
		if l.IsOrderPointA {
			c.OrderPointA++
		}
		if l.IsOrderPoint {
			c.OrderPoint++
		}
		if l.IsWatch {
			c.Watch++
		}
		if l.IsManual {
			c.Manual++
		}
		if l.IsNew {
			c.New++
		}
		if l.IsUninitialized {
			c.Uninitialized++
		}
		if l.IsQuantityFlag {
			c.Quantity++
		}
		if l.IsShelfLifeFlag {
			c.ShelfLife++
		}
	}
	return c
}

// Totals sums ExtendedAmount/units-by-weight-volume across lines into
// an OrderTotals snapshot. Weight and volume are supplied per unit by
// the caller since LineInput does not carry them; this keeps the
// builder agnostic to whether the catalog tracks them.
func Totals(lines []Line, weightPerUnit, volumePerUnit map[string]decimal.Decimal) model.OrderTotals {
	var t model.OrderTotals
	for _, l := range lines {
		t.Amount = t.Amount.Add(l.ExtendedAmount)
		t.Eaches = t.Eaches.Add(decimal.NewFromFloat(l.SOQUnits))
		if w, ok := weightPerUnit[l.SKUID]; ok {
			t.Weight = t.Weight.Add(w.Mul(decimal.NewFromFloat(l.SOQUnits)))
		}
		if v, ok := volumePerUnit[l.SKUID]; ok {
			t.Volume = t.Volume.Add(v.Mul(decimal.NewFromFloat(l.SOQUnits)))
		}
	}
	return t
}

// DueInputs bundles the vendor-level signals the is-order-due test
// needs (spec.md §4.7 "Is-Order-Due").
type DueInputs struct {
	Today                time.Time
	OrderDaysInWeek      uint8
	OrderWeekParity      int
	OrderDayInMonth      int
	NextOrderDate        time.Time
	OrderWhenMinimumMet  bool
	CandidateSOQValue    decimal.Decimal
	BracketMinimum       decimal.Decimal
	AtRiskCount          int
	TotalCandidateCount  int
	AtRiskThresholdPct   float64
}

// IsOrderDue implements spec.md §4.7 "Is-Order-Due": the order is Due
// if any of the four conditions hold, Planned otherwise.
func IsOrderDue(in DueInputs) bool {
	if scheduledDayMatches(in.Today, in.OrderDaysInWeek, in.OrderWeekParity, in.OrderDayInMonth) {
		return true
	}
	if !in.NextOrderDate.IsZero() && !in.NextOrderDate.After(in.Today) {
		return true
	}
	if in.OrderWhenMinimumMet && !in.BracketMinimum.IsZero() && in.CandidateSOQValue.GreaterThanOrEqual(in.BracketMinimum) {
		return true
	}
	if in.TotalCandidateCount > 0 {
		threshold := in.AtRiskThresholdPct
		if threshold <= 0 {
			threshold = 20.0
		}
		atRiskPct := 100.0 * float64(in.AtRiskCount) / float64(in.TotalCandidateCount)
		if atRiskPct > threshold {
			return true
		}
	}
	return false
}

// scheduledDayMatches reports whether today matches the vendor's
// scheduled order day/week/month pattern.
func scheduledDayMatches(today time.Time, daysInWeek uint8, weekParity, dayInMonth int) bool {
	if daysInWeek != 0 {
		bit := uint8(1) << uint(today.Weekday())
		if daysInWeek&bit != 0 {
			if weekParity == 0 {
				return true
			}
			_, isoWeek := today.ISOWeek()
			if weekParity == 1 && isoWeek%2 == 1 {
				return true
			}
			if weekParity == 2 && isoWeek%2 == 0 {
				return true
			}
		}
	}
	if dayInMonth > 0 && today.Day() == dayInMonth {
		return true
	}
	return false
}

// RebuildInput is one SKU's state entering automatic rebuilding
// (spec.md §4.7 "Automatic rebuilding").
type RebuildInput struct {
	SKUID          string
	DailyDemand    float64
	BuyingMultiple int
	IgnoreMultiple bool
	IsFrozen       bool
	IsManual       bool
	CurrentSOQ     float64 // 0 for SKUs not originally on the order
}

// Rebuild implements spec.md §4.7 "Automatic rebuilding": when the
// independent amount is below the bracket minimum, it computes
// days_to_add and spreads daily_demand*days_to_add across every
// non-frozen, non-manual SKU, rounding each to its buying multiple.
// totalDailyDemandValue is the sum of daily_demand*price across all
// eligible SKUs, used to size days_to_add.
func Rebuild(independentAmount, bracketMinimum decimal.Decimal, totalDailyDemandValue float64, inputs []RebuildInput) []RebuildInput {
	if !independentAmount.LessThan(bracketMinimum) || totalDailyDemandValue <= 0 {
		return inputs
	}

	shortfall, _ := bracketMinimum.Sub(independentAmount).Float64()
	daysToAdd := math.Ceil(shortfall / totalDailyDemandValue)
	if daysToAdd <= 0 {
		return inputs
	}

	out := make([]RebuildInput, len(inputs))
	for i, in := range inputs {
		out[i] = in
		if in.IsFrozen || in.IsManual {
			continue
		}
		add := in.DailyDemand * daysToAdd
		newSOQ := in.CurrentSOQ + add
		out[i].CurrentSOQ = RoundToMultiple(newSOQ, in.BuyingMultiple, in.IgnoreMultiple)
	}
	return out
}
