// Package exception implements C9, the Exception Detector: the rule
// table over a closed period's actual demand, forecast, MADP, and
// tracking signal, plus classification-based tagging and the
// dedup-against-unresolved / archive-resolved lifecycle of spec.md
// §4.9. Grounded on douglaslinsmeyer-m3-manufacturing-planning-
// toolbox's internal/services/detectors package shape (one Detect
// function per rule, combined by a registry), adapted to spec.md's
// exact demand-filter/tracking-signal/service-level conditions.
package exception

import (
	"context"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/adaptive-retail/asr-engine/internal/store"
)

// Thresholds bundles the company-level limits the rule table checks
// against (spec.md §6 configuration table).
type Thresholds struct {
	DemandFilterHigh    float64 // k in actual > forecast + k*sigma
	DemandFilterLow     float64
	TrackingSignalLimit float64
}

// Snapshot is one SKU's closed-period state the rules evaluate
// (spec.md §4.9).
type Snapshot struct {
	SKUID                   string
	PeriodYear              int
	PeriodNumber            int
	ActualDemand            float64
	Forecast                float64
	Sigma                   float64 // MADP-derived standard deviation, per forecast.StdDevFromMADP
	Track                   float64
	ServiceLevelGoalPct     float64
	ServiceLevelAttainedPct float64
	BuyerClass              model.BuyerClass
	SystemClass             model.SystemClass
	HasSeasonalProfile      bool
	IsNew                   bool
}

// Detect evaluates every rule of spec.md §4.9's table against one
// snapshot and returns the exception types that fire. It does not
// populate full ExceptionRecords (that is BuildRecords' job) so the
// rule logic stays testable without time/store dependencies.
func Detect(s Snapshot, th Thresholds) []model.ExceptionType {
	var hits []model.ExceptionType

	if demandFilterHigh(s, th) {
		hits = append(hits, model.ExceptionDemandFilterHigh)
	}
	if demandFilterLow(s, th) {
		hits = append(hits, model.ExceptionDemandFilterLow)
	}
	if th.TrackingSignalLimit > 0 {
		if s.Track > th.TrackingSignalLimit {
			hits = append(hits, model.ExceptionTrackingSignalHigh)
		}
		if s.Track < -th.TrackingSignalLimit {
			hits = append(hits, model.ExceptionTrackingSignalLow)
		}
	}
	if s.ServiceLevelGoalPct > 0 && s.ServiceLevelAttainedPct < 0.95*s.ServiceLevelGoalPct {
		hits = append(hits, model.ExceptionServiceLevelCheck)
	}
	if s.Forecast <= 0 && s.ActualDemand > 0 {
		hits = append(hits, model.ExceptionInfinityCheck)
	}

	hits = append(hits, classificationTags(s)...)

	return hits
}

// demandFilterHigh implements spec.md §4.9's DemandFilterHigh rule,
// falling back to the degenerate 2x-forecast comparison when sigma is
// unavailable (MADP=0, e.g. a brand-new SKU).
func demandFilterHigh(s Snapshot, th Thresholds) bool {
	if s.Sigma > 0 {
		return s.ActualDemand > s.Forecast+th.DemandFilterHigh*s.Sigma
	}
	if s.Forecast <= 0 {
		// Zero (or negative) forecast is InfinityCheck's territory, not
		// DemandFilterHigh's; see spec.md §8's zero-forecast boundary.
		return false
	}
	return s.ActualDemand > 2*s.Forecast
}

// demandFilterLow is demandFilterHigh's symmetric counterpart.
func demandFilterLow(s Snapshot, th Thresholds) bool {
	if s.Sigma > 0 {
		return s.ActualDemand < s.Forecast-th.DemandFilterLow*s.Sigma
	}
	if s.Forecast <= 0 {
		return false
	}
	return s.ActualDemand < 0.5*s.Forecast
}

// classificationTags implements spec.md §4.9's classification-based
// tagging: WatchSku/SeasonalSku/NewSku/ManualSku/DiscontinuedSku.
func classificationTags(s Snapshot) []model.ExceptionType {
	var tags []model.ExceptionType
	switch s.BuyerClass {
	case model.BuyerClassWatch:
		tags = append(tags, model.ExceptionWatchSku)
	case model.BuyerClassManual:
		tags = append(tags, model.ExceptionManualSku)
	case model.BuyerClassDiscontinued:
		tags = append(tags, model.ExceptionDiscontinuedSku)
	}
	if s.HasSeasonalProfile {
		tags = append(tags, model.ExceptionSeasonalSku)
	}
	if s.IsNew {
		tags = append(tags, model.ExceptionNewSku)
	}
	return tags
}

// Snapshots returns the before/after maps a raised exception carries,
// matching what the store's JSON-encoded snapshot columns expect.
func Snapshots(s Snapshot) (before, after map[string]float64) {
	before = map[string]float64{
		"forecast": s.Forecast,
		"track":    s.Track,
	}
	after = map[string]float64{
		"actual_demand":             s.ActualDemand,
		"service_level_attained_pct": s.ServiceLevelAttainedPct,
	}
	return before, after
}

// Raise evaluates a snapshot and, for each rule that fires and is not
// already an unresolved exception of the same (sku, year, period,
// type), inserts a new ExceptionRecord via es. It returns the newly
// inserted records (spec.md §4.9 "Existing unresolved exceptions...
// are not duplicated").
func Raise(ctx context.Context, es store.ExceptionStore, clock store.Clock, s Snapshot, th Thresholds) ([]*model.ExceptionRecord, error) {
	hits := Detect(s, th)
	if len(hits) == 0 {
		return nil, nil
	}

	before, after := Snapshots(s)
	now := clock.Now()

	var created []*model.ExceptionRecord
	for _, t := range hits {
		key := model.ExceptionKey{SKUID: s.SKUID, PeriodYear: s.PeriodYear, PeriodNumber: s.PeriodNumber, Type: t}
		existing, err := es.FindUnresolved(ctx, key)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		rec := &model.ExceptionRecord{
			SKUID:          s.SKUID,
			PeriodYear:     s.PeriodYear,
			PeriodNumber:   s.PeriodNumber,
			Type:           t,
			BeforeSnapshot: before,
			AfterSnapshot:  after,
			CreatedAt:      now,
		}
		if err := es.InsertException(ctx, rec); err != nil {
			return created, err
		}
		created = append(created, rec)
	}
	return created, nil
}

// ArchiveResolved deletes resolved exceptions older than retentionDays
// from the live table, per spec.md §4.9's archive-and-delete rule.
func ArchiveResolved(ctx context.Context, es store.ExceptionStore, clock store.Clock, retentionDays int) (int, error) {
	cutoff := clock.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	return es.ArchiveResolvedBefore(ctx, cutoff)
}
