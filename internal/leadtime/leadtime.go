// Package leadtime implements C5, the Lead-Time Forecaster:
// filtering raw receipt history into usable observations, computing
// summary statistics and trend, detecting monthly seasonality, and
// forecasting a floored lead time (spec.md §4.5). Grounded on
// warehouse_replenishment/core/lead_time.py's statistical approach,
// adapted to the exact filtering/trend formulas spec.md §4.5 gives.
package leadtime

import (
	"math"
	"sort"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/mathx"
	"github.com/adaptive-retail/asr-engine/internal/store"
)

const (
	minTrendThresholdPct = 10.0 // trend is significant if |trend| > 10% of mean
	minVariancePct       = 5.0
	minForecastDays      = 1.0
	seasonalitySpreadCutoff = 0.2
)

// Observation is one filtered lead-time sample in days, tagged with
// its receipt month for seasonality grouping.
type Observation struct {
	Days         float64
	ReceiptMonth time.Month
}

// Filter discards orders missing either date, with lt <= 0, outside
// [0.7, 1.5] of an expected delivery window, or flagged expedited/
// delayed (spec.md §4.5 "Filtering").
func Filter(orders []store.LeadTimeOrder) []Observation {
	var out []Observation
	for _, o := range orders {
		if o.IsExpedited || o.IsDelayed {
			continue
		}
		orderDate := o.OrderDate
		if orderDate.IsZero() {
			orderDate = o.ApprovalDate
		}
		if orderDate.IsZero() || o.ReceiptDate.IsZero() {
			continue
		}

		lt := o.ReceiptDate.Sub(orderDate).Hours() / 24.0
		if lt <= 0 {
			continue
		}
		if !o.ExpectedDeliveryDate.IsZero() {
			expected := o.ExpectedDeliveryDate.Sub(orderDate).Hours() / 24.0
			if expected > 0 && (lt < 0.7*expected || lt > 1.5*expected) {
				continue
			}
		}

		out = append(out, Observation{Days: lt, ReceiptMonth: o.ReceiptDate.Month()})
	}
	return out
}

// Stats are the summary statistics of spec.md §4.5 "Statistics".
type Stats struct {
	Mean        float64
	Median      float64
	Min         float64
	Max         float64
	Variance    float64
	StdDev      float64
	VariancePct float64
	Trend       float64
	TrendSignificant bool
}

// ComputeStats derives mean/median/min/max/variance/σ/variance% and
// trend from filtered observations, assumed in chronological order
// (oldest first), matching the store's ORDER BY receipt_date.
func ComputeStats(observations []Observation) Stats {
	n := len(observations)
	if n == 0 {
		return Stats{}
	}

	days := make([]float64, n)
	for i, o := range observations {
		days[i] = o.Days
	}

	var sum float64
	for _, d := range days {
		sum += d
	}
	mean := sum / float64(n)

	sorted := append([]float64(nil), days...)
	sort.Float64s(sorted)
	median := medianOf(sorted)
	min, max := sorted[0], sorted[len(sorted)-1]

	var sqDiffSum float64
	for _, d := range days {
		diff := d - mean
		sqDiffSum += diff * diff
	}
	variance := sqDiffSum / float64(n)
	stdDev := math.Sqrt(variance)

	variancePct := minVariancePct
	if mean > 0 {
		variancePct = mathx.Clamp(100*stdDev/mean, minVariancePct, math.MaxFloat64)
	}

	trend := computeTrend(days)
	significant := mean > 0 && math.Abs(trend) > (minTrendThresholdPct/100.0)*mean

	return Stats{
		Mean: mean, Median: median, Min: min, Max: max,
		Variance: variance, StdDev: stdDev, VariancePct: variancePct,
		Trend: trend, TrendSignificant: significant,
	}
}

// computeTrend returns (mean of last three) - (mean of first three),
// where "last"/"first" follow chronological order (spec.md §4.5).
func computeTrend(daysChronological []float64) float64 {
	n := len(daysChronological)
	if n < 2 {
		return 0
	}
	window := 3
	if window > n {
		window = n
	}
	var firstSum, lastSum float64
	for i := 0; i < window; i++ {
		firstSum += daysChronological[i]
	}
	for i := n - window; i < n; i++ {
		lastSum += daysChronological[i]
	}
	return lastSum/float64(window) - firstSum/float64(window)
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Forecast derives the lead-time forecast from stats: median-based,
// with trend/2 added when significant and trend application is
// enabled, floored at minForecastDays (spec.md §4.5 "Forecast").
func Forecast(stats Stats, applyTrend bool) float64 {
	forecast := stats.Median
	if applyTrend && stats.TrendSignificant {
		forecast += stats.Trend / 2
	}
	if forecast < minForecastDays {
		return minForecastDays
	}
	return forecast
}

// MonthlySeasonality groups observations by receipt month and
// reports whether the spread between the highest and lowest
// month-over-overall ratio exceeds the 0.2 cutoff of spec.md §4.5.
type MonthlySeasonality struct {
	IsSeasonal bool
	MonthlyIndex map[time.Month]float64 // monthly_mean / overall_mean
}

// DetectMonthlySeasonality implements spec.md §4.5 "Seasonality
// detection".
func DetectMonthlySeasonality(observations []Observation) MonthlySeasonality {
	if len(observations) == 0 {
		return MonthlySeasonality{}
	}

	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	var overallSum float64
	for _, o := range observations {
		sums[o.ReceiptMonth] += o.Days
		counts[o.ReceiptMonth]++
		overallSum += o.Days
	}
	overallMean := overallSum / float64(len(observations))
	if overallMean <= 0 {
		return MonthlySeasonality{}
	}

	index := make(map[time.Month]float64, len(sums))
	var minRatio, maxRatio float64
	first := true
	for m, sum := range sums {
		monthlyMean := sum / float64(counts[m])
		ratio := monthlyMean / overallMean
		index[m] = ratio
		if first {
			minRatio, maxRatio = ratio, ratio
			first = false
		}
		if ratio < minRatio {
			minRatio = ratio
		}
		if ratio > maxRatio {
			maxRatio = ratio
		}
	}

	return MonthlySeasonality{
		IsSeasonal:   maxRatio-minRatio > seasonalitySpreadCutoff,
		MonthlyIndex: index,
	}
}
