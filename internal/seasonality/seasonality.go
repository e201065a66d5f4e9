// Package seasonality implements C4: building multiplicative seasonal
// index profiles from multi-year history and applying/reversing them
// against a base forecast (spec.md §4.4).
package seasonality

import "math"

// CompositeLine computes the weighted-mean composite line of length p
// across up to maxYears years of history, most-recent year weighted
// recentWeight and the remainder distributed exponentially
// (spec.md §4.4). historyByYear maps year -> period-indexed demand
// values, sorted years descending is the caller's responsibility if
// years is pre-truncated; this function sorts internally.
func CompositeLine(historyByYear map[int][]float64, maxYears int, recentWeight float64) []float64 {
	if len(historyByYear) == 0 {
		return nil
	}

	years := make([]int, 0, len(historyByYear))
	for y := range historyByYear {
		years = append(years, y)
	}
	sortDescending(years)
	if len(years) > maxYears {
		years = years[:maxYears]
	}

	periodicity := len(historyByYear[years[0]])
	if periodicity == 0 {
		return nil
	}

	weights := make([]float64, len(years))
	remaining := 1.0 - recentWeight
	var tailSum float64
	for i := 1; i < len(years); i++ {
		tailSum += math.Exp(-0.5 * float64(i-1))
	}
	for i := range years {
		if i == 0 {
			weights[i] = recentWeight
		} else if tailSum > 0 {
			weights[i] = remaining * math.Exp(-0.5*float64(i-1)) / tailSum
		}
	}
	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}
	if weightSum > 0 {
		for i := range weights {
			weights[i] /= weightSum
		}
	}

	composite := make([]float64, periodicity)
	for period := 0; period < periodicity; period++ {
		var weightedSum, validWeight float64
		for i, y := range years {
			values := historyByYear[y]
			if period < len(values) {
				weightedSum += values[period] * weights[i]
				validWeight += weights[i]
			}
		}
		if validWeight > 0 {
			composite[period] = weightedSum / validWeight
		}
	}
	return composite
}

// sortDescending sorts ints in place, descending, without depending
// on sort.Slice's function-value overhead for this tiny fixed-size
// (<=4-ish) input.
func sortDescending(xs []int) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] < v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}

// GenerateIndices derives seasonal indices from a composite line:
// divide by the composite's mean, apply 3-point circular smoothing
// with factor s, and renormalize so the mean of indices is 1.0
// (spec.md §4.4).
func GenerateIndices(composite []float64, smoothingFactor float64) []float64 {
	n := len(composite)
	if n == 0 {
		return nil
	}

	var sum float64
	for _, v := range composite {
		sum += v
	}
	avg := sum / float64(n)
	if avg == 0 {
		indices := make([]float64, n)
		for i := range indices {
			indices[i] = 1.0
		}
		return indices
	}

	indices := make([]float64, n)
	for i, v := range composite {
		indices[i] = v / avg
	}

	if smoothingFactor > 0 {
		smoothed := make([]float64, n)
		for i := 0; i < n; i++ {
			prev := (i - 1 + n) % n
			next := (i + 1) % n
			smoothed[i] = indices[i]*(1-smoothingFactor) + (indices[prev]+indices[next])*(smoothingFactor/2)
		}
		indices = smoothed
	}

	var indexSum float64
	for _, v := range indices {
		indexSum += v
	}
	if indexSum > 0 {
		for i := range indices {
			indices[i] = indices[i] * float64(n) / indexSum
		}
	}
	return indices
}

// Apply seasonally adjusts a base (deseasonalized) value for the
// given 1-based period against indices, wrapping modulo len(indices)
// (spec.md §4.4 "Apply: multiplicative").
func Apply(base float64, indices []float64, period int) float64 {
	idx := indexFor(indices, period)
	if idx <= 0 {
		return base
	}
	return base * idx
}

// Reverse deseasonalizes a value, dividing out the period's index
// (spec.md §4.4 "Reverse-apply").
func Reverse(value float64, indices []float64, period int) float64 {
	idx := indexFor(indices, period)
	if idx <= 0 {
		return value
	}
	return value / idx
}

func indexFor(indices []float64, period int) float64 {
	if len(indices) == 0 {
		return 0
	}
	i := (period - 1) % len(indices)
	if i < 0 {
		i += len(indices)
	}
	return indices[i]
}
