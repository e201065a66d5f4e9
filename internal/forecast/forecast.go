// Package forecast implements C3, the Demand Forecaster: summary
// statistics (MAD, MADP, tracking signal), Regular and Enhanced AVS
// reforecasting, initial-forecast seeding, and system-class
// transitions (spec.md §4.3).
package forecast

import (
	"math"

	"github.com/adaptive-retail/asr-engine/internal/config"
	"github.com/adaptive-retail/asr-engine/internal/mathx"
	"github.com/adaptive-retail/asr-engine/internal/model"
)

// Stats are the summary statistics over a matched actual/forecast
// series (spec.md §4.3 "Statistics").
type Stats struct {
	MAD   float64
	MADP  float64
	Track float64 // signed, bounded [-100, 100]; see DESIGN.md open-question resolution
}

// ComputeStats returns MAD, MADP, and the tracking signal over
// actuals a[] matched against forecasts f[] of the same length.
// Track is kept signed (not the unsigned/absolute variant) so
// TrackingSignalHigh and TrackingSignalLow can be told apart, per
// spec.md §9's "pick one representation" resolution recorded in
// DESIGN.md.
func ComputeStats(a, f []float64) Stats {
	n := len(a)
	if n == 0 || len(f) != n {
		return Stats{}
	}

	var absSum, signedSum, madpSum float64
	var madpCount int
	for i := range a {
		dev := a[i] - f[i]
		absSum += math.Abs(dev)
		signedSum += dev
		if f[i] != 0 {
			madpSum += math.Abs(dev) / f[i]
			madpCount++
		}
	}

	mad := absSum / float64(n)
	var madp float64
	if madpCount > 0 {
		madp = 100.0 * madpSum / float64(madpCount)
	}
	madp = mathx.Clamp(madp, 0, 100)

	var track float64
	if mad > 0 {
		track = (signedSum / (mad * float64(n))) * 100.0
	}
	track = mathx.Clamp(track, -100, 100)

	return Stats{MAD: mad, MADP: madp, Track: track}
}

// StdDevFromMADP returns the per-unit demand σ estimator spec.md
// §4.3/§4.6 use throughout: σ ≈ 1.25·MAD, expressed via MADP and the
// current forecast: σ = (MADP/100)·forecast·1.25.
func StdDevFromMADP(forecast, madp float64) float64 {
	return (madp / 100.0) * forecast * 1.25
}

// ExpectedZeroPeriods estimates how many of the next 12 periods will
// show zero demand, from the forecast and MADP (spec.md §4.3
// "Expected zero periods").
func ExpectedZeroPeriods(forecast, madp float64) float64 {
	if forecast <= 0 {
		return 12
	}
	sigma := StdDevFromMADP(forecast, madp)
	if sigma <= 0 {
		return 0
	}
	z := forecast / sigma
	if z > 6 {
		return 0
	}
	return 12 * (1 - mathx.StdNormalCDF(z))
}

// RegularAVS computes the new forecast level under exponential
// smoothing with a tracking-signal-derived α (spec.md §4.3 "Regular
// AVS reforecast"). track is the signed, percent-bounded tracking
// signal; cfg.BasicAlphaFactor scales it.
func RegularAVS(currentForecast, latestDemand, track float64, alphaFactor float64) float64 {
	alpha := avsAlpha(track, alphaFactor)
	return smooth(currentForecast, latestDemand, alpha)
}

// avsAlpha computes α = min(|track|, 0.5) · (alpha_factor/10), clamped
// to [0,1] (spec.md §4.3 "Regular AVS reforecast").
func avsAlpha(track, alphaFactor float64) float64 {
	alpha := math.Min(math.Abs(track)/100.0, 0.5)
	if alphaFactor != 0 {
		alpha *= alphaFactor / 10.0
	}
	return mathx.Clamp(alpha, 0, 1)
}

func smooth(currentForecast, latestDemand, alpha float64) float64 {
	newForecast := alpha*latestDemand + (1-alpha)*currentForecast
	if newForecast < 0 {
		newForecast = 0
	}
	return newForecast
}

// EnhancedAVSResult is the outcome of one Enhanced AVS evaluation.
type EnhancedAVSResult struct {
	NewForecast    float64
	NewTrack       float64
	Forced         bool // true when a stagnation-driven level decrease fired
}

// enhancedAVSDamping is the per-period track/α decay base U applied
// while demand stays at or below the zero/low-demand limit (spec.md
// §4.3, resolved to 0.95 per spec.md §8 scenario 5).
const enhancedAVSDamping = 0.95

// EnhancedAVS implements the intermittent-demand reforecast of
// spec.md §4.3. update_frequency_impact is resolved as an integer
// divisor (not a ~0.95 multiplicative decay) per the SUPPLEMENTED
// FEATURES resolution in SPEC_FULL.md, grounded on
// warehouse_replenishment/core/demand_forecast.py's
// calculate_enhanced_avs_forecast.
func EnhancedAVS(currentForecast, latestDemand, track float64, periodsWithZeroDemand int, expectedZeroPeriods, updateFrequencyImpact, forecastDemandLimit, alphaFactor float64) EnhancedAVSResult {
	if latestDemand > forecastDemandLimit {
		s := periodsWithZeroDemand - 1
		if s < 0 {
			s = 0
		}
		alpha := avsAlpha(track, alphaFactor) * math.Pow(enhancedAVSDamping, float64(s))
		alpha = mathx.Clamp(alpha, 0, 1)
		return EnhancedAVSResult{
			NewForecast: smooth(currentForecast, latestDemand, alpha),
			NewTrack:    track,
		}
	}

	// Demand stayed at or below the low-demand limit: the forecast
	// level is not updated, but the stored track always damps by U^s.
	dampedTrack := track * math.Pow(enhancedAVSDamping, float64(periodsWithZeroDemand))

	forceLimit := expectedZeroPeriods * updateFrequencyImpact
	if float64(periodsWithZeroDemand) >= forceLimit && updateFrequencyImpact > 0 {
		timeFactor := float64(periodsWithZeroDemand) / updateFrequencyImpact
		newForecast := currentForecast / (1.0 + 0.5*timeFactor)
		return EnhancedAVSResult{NewForecast: newForecast, NewTrack: dampedTrack, Forced: true}
	}

	return EnhancedAVSResult{NewForecast: currentForecast, NewTrack: dampedTrack}
}

// InitialForecast seeds a brand-new SKU's forecast (spec.md §4.3
// "Initial forecast"): an exponentially weighted mean over history
// (most recent first, weight exp(-0.1*i)) when history exists;
// otherwise the mean forecast of peer SKUs sharing vendor/warehouse;
// 1.0 as the final fallback.
func InitialForecast(historyMostRecentFirst []float64, peerForecasts []float64) float64 {
	if len(historyMostRecentFirst) > 0 {
		var weightedSum, weightSum float64
		for i, v := range historyMostRecentFirst {
			w := math.Exp(-0.1 * float64(i))
			weightedSum += v * w
			weightSum += w
		}
		if weightSum > 0 {
			return weightedSum / weightSum
		}
	}
	if len(peerForecasts) > 0 {
		var sum float64
		for _, v := range peerForecasts {
			sum += v
		}
		return sum / float64(len(peerForecasts))
	}
	return 1.0
}

// Initial seed constants for a freshly initialized SKU (spec.md §4.3:
// "Initial MADP = 20-30%, track = 0.2"). The source trees disagreed
// between 20 and 30; DESIGN.md resolves this to the midpoint 25.
const (
	InitialMADP  = 25.0
	InitialTrack = 20.0 // stored on the [-100,100] scale used throughout this package
)

// ClassifySystemClass applies the maturity-gated classification rule
// of spec.md §4.3. Callers must have already excluded Alternate,
// Manual, and Discontinued SKUs and confirmed ageDays >= 180.
func ClassifySystemClass(madp, yearlyForecast float64, cfg *config.Config) model.SystemClass {
	switch {
	case madp >= cfg.MADPHighThreshold:
		return model.SystemClassLumpy
	case yearlyForecast < cfg.SlowMoverLimit:
		return model.SystemClassSlow
	default:
		return model.SystemClassRegular
	}
}

const maturityThresholdDays = 180

// EligibleForClassification reports whether a SKU is old enough and
// not in a classification-exempt forecast method/buyer class to
// receive a system_class transition after reforecast (spec.md §4.3).
func EligibleForClassification(sku *model.SKU, ageDays float64) bool {
	if ageDays < maturityThresholdDays {
		return false
	}
	if sku.ForecastMethod == model.ForecastMethodAlternate {
		return false
	}
	if sku.BuyerClass == model.BuyerClassManual || sku.BuyerClass == model.BuyerClassDiscontinued {
		return false
	}
	return true
}
