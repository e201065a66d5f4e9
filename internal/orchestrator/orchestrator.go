// Package orchestrator implements C10: the nightly and period-end
// batch pipelines, bounded SKU/vendor-grain concurrency, cancellation
// checks, per-run timeout, and aggregate run statistics (spec.md
// §4.10, §5). Grounded on internal/workers/bulkop_worker.go's
// job/batch/progress-publishing shape, adapted from its NATS-batch
// worker pattern to an in-process bounded worker pool over
// golang.org/x/sync/errgroup, the way NikeGunn-tutu's executor bounds
// concurrent task execution with a semaphore.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/adaptive-retail/asr-engine/internal/asrerr"
	"github.com/adaptive-retail/asr-engine/internal/calendar"
	"github.com/adaptive-retail/asr-engine/internal/config"
	"github.com/adaptive-retail/asr-engine/internal/exception"
	"github.com/adaptive-retail/asr-engine/internal/forecast"
	"github.com/adaptive-retail/asr-engine/internal/history"
	"github.com/adaptive-retail/asr-engine/internal/leadtime"
	"github.com/adaptive-retail/asr-engine/internal/metrics"
	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/adaptive-retail/asr-engine/internal/orderbuilder"
	"github.com/adaptive-retail/asr-engine/internal/queue"
	"github.com/adaptive-retail/asr-engine/internal/safetystock"
	"github.com/adaptive-retail/asr-engine/internal/seasonality"
	"github.com/adaptive-retail/asr-engine/internal/store"
	"github.com/adaptive-retail/asr-engine/internal/throttle"

	"go.uber.org/zap"
)

// Orchestrator wires the storage layer, company configuration, and
// the numeric packages (C2-C9) into the sequenced pipelines of
// spec.md §4.10.
type Orchestrator struct {
	Store    store.Store
	Config   *config.Config
	Clock    store.Clock
	Queue    *queue.Manager
	Log      *zap.SugaredLogger
	History  *history.Service
	throttle *throttle.Limiter
}

// New builds an Orchestrator over a fully-wired store and config.
// Queue may be nil, in which case progress events are simply skipped.
func New(s store.Store, cfg *config.Config, clock store.Clock, q *queue.Manager, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		Store:    s,
		Config:   cfg,
		Clock:    clock,
		Queue:    q,
		Log:      log,
		History:  history.New(s, clock),
		throttle: throttle.New(cfg.MaxStoreWritesPerSecond),
	}
}

// Stats are the aggregate counters a run returns (spec.md §4.10
// "Failure semantics: ... the orchestrator returns aggregate
// statistics.").
type Stats struct {
	RunID          string
	SKUsProcessed  int
	SKUErrors      int
	VendorsProcessed int
	VendorErrors   int
	OrdersBuilt    int
	ExceptionsRaised int
	Duration       time.Duration
}

// counters accumulates Stats fields across the bounded SKU/vendor
// worker pool, which calls into the same run's counters from multiple
// goroutines (spec.md §5 "bounded parallelism at the SKU or vendor
// grain").
type counters struct {
	mu                                                                                    sync.Mutex
	skusProcessed, skuErrors, vendorsProcessed, vendorErrors, ordersBuilt, exceptionsRaised int
}

func (c *counters) addSKUProcessed()    { c.mu.Lock(); c.skusProcessed++; c.mu.Unlock() }
func (c *counters) addSKUError()        { c.mu.Lock(); c.skuErrors++; c.mu.Unlock() }
func (c *counters) addExceptions(n int) { c.mu.Lock(); c.exceptionsRaised += n; c.mu.Unlock() }
func (c *counters) addVendor(built bool, failed bool) {
	c.mu.Lock()
	c.vendorsProcessed++
	if failed {
		c.vendorErrors++
	}
	if built {
		c.ordersBuilt++
	}
	c.mu.Unlock()
}

func (c *counters) snapshot(runID string) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		RunID:            runID,
		SKUsProcessed:    c.skusProcessed,
		SKUErrors:        c.skuErrors,
		VendorsProcessed: c.vendorsProcessed,
		VendorErrors:     c.vendorErrors,
		OrdersBuilt:      c.ordersBuilt,
		ExceptionsRaised: c.exceptionsRaised,
	}
}

// RunOptions scope a pipeline run to one warehouse and control
// verbosity/forcing.
type RunOptions struct {
	WarehouseID string // empty means all warehouses
	Verbose     bool
	Force       bool // period-end: run even when today is not period-end
}

// RunNightly executes the eight-step nightly pipeline of spec.md
// §4.10. Steps 1, 4, and 5 are delegated external interfaces the
// engine does not own and are no-ops here.
func (o *Orchestrator) RunNightly(ctx context.Context, opts RunOptions) (Stats, error) {
	runID := uuid.NewString()
	start := o.Clock.Now()
	var c counters

	ctx, cancel := context.WithTimeout(ctx, o.Config.RunTimeout)
	defer cancel()

	metrics.RunsInFlight.WithLabelValues(opts.WarehouseID).Inc()
	defer metrics.RunsInFlight.WithLabelValues(opts.WarehouseID).Dec()
	defer func() {
		metrics.RunDuration.WithLabelValues("nightly").Observe(o.Clock.Now().Sub(start).Seconds())
	}()

	if o.Queue != nil {
		_ = o.Queue.PublishRunStarted(runID, opts.WarehouseID)
	}

	skus, err := o.Store.QuerySKUs(ctx, store.SKUFilter{WarehouseID: opts.WarehouseID})
	if err != nil {
		return c.snapshot(runID), asrerr.WrapStorage("sku-query", err)
	}

	// Step 2+3: backfill lost sales, recalc safety stock/order points,
	// partitioned by SKU id with bounded parallelism.
	if err := o.forEachSKU(ctx, skus, func(ctx context.Context, sku *model.SKU) error {
		return o.refreshSKU(ctx, sku, &c)
	}); err != nil {
		return c.snapshot(runID), err
	}

	isWeekly := start.Weekday() == time.Monday
	if isWeekly {
		vendors, err := o.Store.QueryVendors(ctx, opts.WarehouseID)
		if err != nil {
			return c.snapshot(runID), asrerr.WrapStorage("vendor-query", err)
		}
		if err := o.forEachVendor(ctx, vendors, func(ctx context.Context, v *model.Vendor) error {
			return o.updateLeadTime(ctx, v)
		}); err != nil {
			return c.snapshot(runID), err
		}
	}

	// Step 7: build orders per vendor.
	vendors, err := o.Store.QueryVendors(ctx, opts.WarehouseID)
	if err != nil {
		return c.snapshot(runID), asrerr.WrapStorage("vendor-query", err)
	}
	if err := o.forEachVendor(ctx, vendors, func(ctx context.Context, v *model.Vendor) error {
		built, berr := o.buildVendorOrder(ctx, v, opts.WarehouseID)
		c.addVendor(built, berr != nil)
		return berr
	}); err != nil {
		return c.snapshot(runID), err
	}

	// Step 8: purge accepted orders older than retention.
	retention := time.Duration(o.Config.KeepArchivedExceptionsDays) * 24 * time.Hour
	if _, err := o.Store.PurgeOrdersBefore(ctx, opts.WarehouseID, start.Add(-retention)); err != nil {
		return c.snapshot(runID), asrerr.WrapStorage("purge-orders", err)
	}

	stats := c.snapshot(runID)
	stats.Duration = o.Clock.Now().Sub(start)
	if o.Queue != nil {
		_ = o.Queue.PublishCompleted(queue.RunResult{
			RunID: runID, WarehouseID: opts.WarehouseID,
			SKUsProcessed: stats.SKUsProcessed, ErrorCount: stats.SKUErrors + stats.VendorErrors,
			DurationMS: stats.Duration.Milliseconds(), FinishedAt: o.Clock.Now(),
		})
	}
	return stats, nil
}

// RunPeriodEnd executes the three-step period-end pipeline of spec.md
// §4.10, skipped unless today is the last day of the relevant
// periodicity's period or Force is set.
func (o *Orchestrator) RunPeriodEnd(ctx context.Context, opts RunOptions) (Stats, error) {
	runID := uuid.NewString()
	start := o.Clock.Now()
	var c counters

	ctx, cancel := context.WithTimeout(ctx, o.Config.RunTimeout)
	defer cancel()

	metrics.RunsInFlight.WithLabelValues(opts.WarehouseID).Inc()
	defer metrics.RunsInFlight.WithLabelValues(opts.WarehouseID).Dec()
	defer func() {
		metrics.RunDuration.WithLabelValues("period-end").Observe(o.Clock.Now().Sub(start).Seconds())
	}()

	if !opts.Force && !isPeriodEnd(start) {
		stats := c.snapshot(runID)
		stats.Duration = o.Clock.Now().Sub(start)
		return stats, nil
	}

	skus, err := o.Store.QuerySKUs(ctx, store.SKUFilter{WarehouseID: opts.WarehouseID})
	if err != nil {
		return c.snapshot(runID), asrerr.WrapStorage("sku-query", err)
	}

	if err := o.forEachSKU(ctx, skus, func(ctx context.Context, sku *model.SKU) error {
		if err := o.reforecastSKU(ctx, sku, &c); err != nil {
			return err
		}
		return o.detectExceptions(ctx, sku, &c)
	}); err != nil {
		return c.snapshot(runID), err
	}

	if _, err := exception.ArchiveResolved(ctx, o.Store, o.Clock, o.Config.KeepArchivedExceptionsDays); err != nil {
		return c.snapshot(runID), asrerr.WrapStorage("archive-exceptions", err)
	}

	stats := c.snapshot(runID)
	stats.Duration = o.Clock.Now().Sub(start)
	return stats, nil
}

// isPeriodEnd reports whether t falls on the last calendar day of its
// 13-period cycle, whichever periodicity individual SKUs use
// (spec.md §4.10 "runs when today is the last day of the period").
func isPeriodEnd(t time.Time) bool {
	cur, err := calendar.ToPeriod(t, model.Periodicity13)
	if err != nil {
		return false
	}
	next, err := calendar.ToPeriod(t.AddDate(0, 0, 1), model.Periodicity13)
	if err != nil {
		return false
	}
	return next != cur
}

// refreshSKU implements steps 2-3 of the nightly pipeline for one SKU:
// backfill lost sales then recompute safety stock and order points
// (spec.md §4.10).
func (o *Orchestrator) refreshSKU(ctx context.Context, sku *model.SKU, c *counters) error {
	if err := o.throttle.Wait(ctx); err != nil {
		return err
	}

	if err := o.backfillLostSales(ctx, sku); err != nil {
		c.addSKUError()
		metrics.SKUErrorsTotal.WithLabelValues("refresh", "storage").Inc()
		return err
	}

	vendor, err := o.Store.GetVendor(ctx, sku.VendorID, sku.WarehouseID)
	if err != nil {
		c.addSKUError()
		metrics.SKUErrorsTotal.WithLabelValues("refresh", "storage").Inc()
		return asrerr.WrapStorage("vendor:"+sku.VendorID, err)
	}
	effectiveCycle := model.EffectiveOrderCycle(vendor.OrderCycleDays, sku.ItemCycleDays)

	ssIn := safetystock.Inputs{
		ServiceLevelGoalPct: sku.ServiceLevelGoalPct,
		MADP:                sku.MADP,
		LeadTimeDays:        sku.LeadTimeForecastDays,
		LeadTimeVariancePct: sku.LeadTimeVariancePct,
		OrderCycleDays:      float64(vendor.OrderCycleDays),
	}
	ssDays := safetystock.Days(ssIn)
	ssDays = safetystock.ApplyOverride(ssDays, sku.SSType, sku.ManualSafetyStock)

	if sku.SeasonalProfileID != "" {
		if cur, perr := calendar.ToPeriod(o.Clock.Now(), sku.Periodicity); perr == nil {
			if profile, serr := o.Store.GetSeasonalProfile(ctx, sku.SeasonalProfileID); serr == nil && profile != nil {
				ssDays = safetystock.ApplySeasonality(ssDays, profile.IndexForPeriod(cur.Number))
			}
		}
	}

	pts := safetystock.DerivePoints(ssDays, sku.LeadTimeForecastDays, sku.DailyDemand(),
		float64(vendor.OrderCycleDays), float64(effectiveCycle), sku.MinPresentationStock, sku.OUTLHardMax)

	sku.ItemOrderPointDays = pts.ItemOrderPointDays
	sku.ItemOrderPointUnits = pts.ItemOrderPointUnits
	sku.VendorOrderPointDays = pts.VendorOrderPointDays
	sku.OrderUpToLevelDays = pts.OrderUpToLevelDays
	sku.OrderUpToLevelUnits = pts.OrderUpToLevelUnits

	if err := o.Store.UpdateSKU(ctx, sku); err != nil {
		c.addSKUError()
		metrics.SKUErrorsTotal.WithLabelValues("refresh", "storage").Inc()
		return asrerr.WrapStorage("sku:"+sku.SKUID, err)
	}
	c.addSKUProcessed()
	metrics.SKUsProcessedTotal.WithLabelValues("refresh").Inc()
	return nil
}

// backfillLostSales implements nightly pipeline step 2 for one SKU:
// if the most recently closed period shows out-of-stock days, estimate
// and store its lost sales before safety stock/order points are
// recomputed from it (spec.md §4.2, §4.10).
func (o *Orchestrator) backfillLostSales(ctx context.Context, sku *model.SKU) error {
	cur, err := calendar.ToPeriod(o.Clock.Now(), sku.Periodicity)
	if err != nil {
		return nil
	}
	prev := calendar.Previous(cur, sku.Periodicity)

	records, err := o.Store.GetHistory(ctx, sku.SKUID, prev.Year, prev.Number, prev.Year, prev.Number)
	if err != nil {
		return asrerr.WrapStorage("history:"+sku.SKUID, err)
	}
	if len(records) == 0 || records[0].OutOfStockDays <= 0 {
		return nil
	}

	rec := records[0]
	if err := o.History.BackfillLostSales(ctx, sku, &rec); err != nil {
		return asrerr.WrapStorage("history:"+sku.SKUID, err)
	}
	return nil
}

// reforecastSKU implements period-end pipeline step 1 for one SKU.
func (o *Orchestrator) reforecastSKU(ctx context.Context, sku *model.SKU, c *counters) error {
	if err := o.throttle.Wait(ctx); err != nil {
		return err
	}
	if sku.ForecastMethod.SkipsReforecast() || sku.IsFrozen(o.Clock.Now()) {
		return nil
	}

	hist, err := o.History.Window(ctx, sku, 1)
	if err != nil {
		c.addSKUError()
		metrics.SKUErrorsTotal.WithLabelValues("reforecast", "storage").Inc()
		return asrerr.WrapStorage("history:"+sku.SKUID, err)
	}
	if len(hist) == 0 {
		return nil
	}
	latest := hist[len(hist)-1]

	var profile *model.SeasonalProfile
	if sku.SeasonalProfileID != "" {
		if p, serr := o.Store.GetSeasonalProfile(ctx, sku.SeasonalProfileID); serr == nil {
			profile = p
		}
	}

	latestDemand := latest.TotalDemand
	if profile != nil {
		// Deseasonalize the most recent period's demand before it
		// influences the level/trend, so a seasonal swing is not
		// mistaken for an underlying shift (spec.md §4.3 "Seasonality").
		latestDemand = seasonality.Reverse(latestDemand, profile.Indices, latest.PeriodNumber)
	}

	statSeries := make([]float64, 0, len(hist))
	forecastSeries := make([]float64, 0, len(hist))
	for _, h := range hist {
		statSeries = append(statSeries, h.TotalDemand)
		forecastSeries = append(forecastSeries, sku.PeriodForecast)
	}
	s := forecast.ComputeStats(statSeries, forecastSeries)

	var newForecast float64
	switch sku.ForecastMethod {
	case model.ForecastMethodEnhancedAVS:
		expectedZero := forecast.ExpectedZeroPeriods(sku.PeriodForecast, sku.MADP)
		result := forecast.EnhancedAVS(sku.PeriodForecast, latestDemand, s.Track,
			sku.PeriodsWithZeroDemand, expectedZero, o.Config.UpdateFrequencyImpact,
			o.Config.ForecastDemandLimit, o.Config.BasicAlphaFactor)
		newForecast = result.NewForecast
		sku.Track = result.NewTrack
	default:
		newForecast = forecast.RegularAVS(sku.PeriodForecast, latestDemand, s.Track, o.Config.BasicAlphaFactor)
		sku.Track = s.Track
	}

	if profile != nil {
		// Reseasonalize the refreshed baseline back onto the upcoming
		// period before it is stored as the SKU's live forecast.
		if cur, perr := calendar.ToPeriod(o.Clock.Now(), sku.Periodicity); perr == nil {
			newForecast = seasonality.Apply(newForecast, profile.Indices, cur.Number)
		}
	}

	sku.PeriodForecast = newForecast
	sku.WeeklyForecast = newForecast * 7.0 / periodDays(sku.Periodicity)
	sku.MADP = s.MADP
	sku.LastForecastDate = o.Clock.Now()

	if latest.TotalDemand <= 0 {
		sku.PeriodsWithZeroDemand++
	} else {
		sku.PeriodsWithZeroDemand = 0
	}

	ageDays := sku.AgeDays(o.Clock.Now())
	if forecast.EligibleForClassification(sku, ageDays) {
		sku.SystemClass = forecast.ClassifySystemClass(sku.MADP, sku.YearlyForecast, o.Config)
	}

	if err := o.Store.UpdateSKU(ctx, sku); err != nil {
		c.addSKUError()
		metrics.SKUErrorsTotal.WithLabelValues("reforecast", "storage").Inc()
		return asrerr.WrapStorage("sku:"+sku.SKUID, err)
	}
	c.addSKUProcessed()
	metrics.SKUsProcessedTotal.WithLabelValues("reforecast").Inc()
	return nil
}

// periodDays approximates the number of calendar days per forecast
// period for periodicity p, used to translate period-forecast back
// into the weekly rate the safety-stock engine consumes.
func periodDays(p model.Periodicity) float64 {
	switch p {
	case model.Periodicity12:
		return 365.0 / 12.0
	case model.Periodicity52:
		return 7.0
	default:
		return 28.0
	}
}

// detectExceptions implements period-end pipeline step 2 for one SKU.
func (o *Orchestrator) detectExceptions(ctx context.Context, sku *model.SKU, c *counters) error {
	cur, err := calendar.ToPeriod(o.Clock.Now(), sku.Periodicity)
	if err != nil {
		return nil
	}

	snap := exception.Snapshot{
		SKUID:                   sku.SKUID,
		PeriodYear:               cur.Year,
		PeriodNumber:             cur.Number,
		ActualDemand:             sku.PeriodForecast, // reforecastSKU already folded in latest actual
		Forecast:                 sku.PeriodForecast,
		Sigma:                    forecast.StdDevFromMADP(sku.PeriodForecast, sku.MADP),
		Track:                    sku.Track,
		ServiceLevelGoalPct:      sku.ServiceLevelGoalPct,
		ServiceLevelAttainedPct:  sku.ServiceLevelAttainedPct,
		BuyerClass:               sku.BuyerClass,
		SystemClass:              sku.SystemClass,
		HasSeasonalProfile:       sku.SeasonalProfileID != "",
		IsNew:                    sku.SystemClass == model.SystemClassNew,
	}

	th := exception.Thresholds{
		DemandFilterHigh:    o.Config.DemandFilterHigh,
		DemandFilterLow:     o.Config.DemandFilterLow,
		TrackingSignalLimit: o.Config.TrackingSignalLimit,
	}

	created, err := exception.Raise(ctx, o.Store, o.Clock, snap, th)
	if err != nil {
		c.addSKUError()
		metrics.SKUErrorsTotal.WithLabelValues("exceptions", "storage").Inc()
		return asrerr.WrapStorage("exception:"+sku.SKUID, err)
	}
	c.addExceptions(len(created))
	for _, rec := range created {
		metrics.ExceptionsRaisedTotal.WithLabelValues(string(rec.Type)).Inc()
	}
	return nil
}

// updateLeadTime implements nightly step 6 for one vendor: pulls
// completed-order receipt history, filters and refits lead-time
// statistics, and stores the forecast/variance back on the vendor
// record.
func (o *Orchestrator) updateLeadTime(ctx context.Context, v *model.Vendor) error {
	if err := o.throttle.Wait(ctx); err != nil {
		return err
	}

	since := o.Clock.Now().AddDate(-1, 0, 0)
	orders, err := o.Store.GetCompletedOrders(ctx, v.VendorID, "", since)
	if err != nil {
		return asrerr.WrapStorage("vendor:"+v.VendorID, err)
	}

	observations := leadtime.Filter(orders)
	if len(observations) == 0 {
		return nil
	}
	st := leadtime.ComputeStats(observations)

	v.LeadTimeForecastDays = leadtime.Forecast(st, st.TrendSignificant)
	if st.Mean > 0 {
		v.LeadTimeVariancePct = st.VariancePct
	}

	return o.Store.UpdateVendor(ctx, v)
}

// buildVendorOrder implements nightly step 7 for one vendor: builds a
// candidate order line per eligible SKU, evaluates is-order-due, and
// inserts a Planned or Due order when any line exists. It returns
// false (no error) when no SKU produced a line.
func (o *Orchestrator) buildVendorOrder(ctx context.Context, v *model.Vendor, warehouseID string) (bool, error) {
	if err := o.throttle.Wait(ctx); err != nil {
		return false, err
	}

	start := o.Clock.Now()
	defer func() {
		metrics.VendorPartitionDuration.WithLabelValues("nightly").Observe(o.Clock.Now().Sub(start).Seconds())
	}()

	skus, err := o.Store.QuerySKUs(ctx, store.SKUFilter{
		WarehouseID:  warehouseID,
		VendorID:     v.VendorID,
		BuyerClasses: []model.BuyerClass{model.BuyerClassRegular, model.BuyerClassWatch},
	})
	if err != nil {
		return false, asrerr.WrapStorage("vendor:"+v.VendorID, err)
	}

	brackets, err := o.Store.GetBrackets(ctx, v.VendorID)
	if err != nil {
		return false, asrerr.WrapStorage("vendor:"+v.VendorID, err)
	}

	var lines []orderbuilder.Line
	var candidateValue float64
	atRisk := 0
	for _, sku := range skus {
		line, ok := orderbuilder.BuildLine(orderbuilder.LineInput{
			SKUID:               sku.SKUID,
			BuyerClass:          sku.BuyerClass,
			SystemClass:         sku.SystemClass,
			Available:           sku.AvailableBalance(),
			OUTLUnits:           sku.OrderUpToLevelUnits,
			OUTLDays:            sku.OrderUpToLevelDays,
			ItemOrderPointUnits: sku.ItemOrderPointUnits,
			DailyDemand:         sku.DailyDemand(),
			BuyingMultiple:      sku.BuyingMultiple,
			IgnoreMultiple:      sku.IgnoreMultiple,
			PurchasePrice:       sku.PurchasePrice,
			ShelfLifeDays:       sku.ShelfLifeDays,
			PeriodForecast:      sku.PeriodForecast,
			ServiceLevelGoalPct: sku.ServiceLevelGoalPct,
			OPPrimeLimit:        o.Config.OPPrimeLimit,
			IsManual:            sku.BuyerClass == model.BuyerClassManual,
			IsUninitialized:     sku.SystemClass == model.SystemClassUninitialized,
			IsNew:               sku.SystemClass == model.SystemClassNew,
		})
		if !ok {
			if sku.AvailableBalance() <= sku.VendorOrderPointDays*sku.DailyDemand() {
				atRisk++
			}
			continue
		}
		lines = append(lines, line)
		candidateValue += extendedAmountFloat(line)
		if sku.AvailableBalance() <= sku.VendorOrderPointDays*sku.DailyDemand() {
			atRisk++
		}
	}

	if len(lines) == 0 {
		return false, nil
	}

	bracketMinimum := decimal.Zero
	if bracket, found := model.SelectBracket(brackets, model.BracketUnitAmount, decimal.NewFromFloat(candidateValue)); found {
		bracketMinimum = bracket.Minimum
	}

	atRiskThreshold := v.AtRiskThresholdPct
	if atRiskThreshold <= 0 {
		atRiskThreshold = o.Config.OrderDueAtRiskThresholdPct
	}

	due := orderbuilder.IsOrderDue(orderbuilder.DueInputs{
		Today:               o.Clock.Now(),
		OrderDaysInWeek:     v.OrderDaysInWeek,
		OrderWeekParity:     v.OrderWeekParity,
		OrderDayInMonth:     v.OrderDayInMonth,
		NextOrderDate:       v.NextOrderDate,
		OrderWhenMinimumMet: v.OrderWhenMinimumMet,
		CandidateSOQValue:   decimal.NewFromFloat(candidateValue),
		BracketMinimum:      bracketMinimum,
		AtRiskCount:         atRisk,
		TotalCandidateCount: len(skus),
		AtRiskThresholdPct:  atRiskThreshold,
	})

	status := model.OrderStatusPlanned
	if due {
		status = model.OrderStatusDue
	}

	checks := orderbuilder.Checks(lines)
	independent := orderbuilder.Totals(lines, nil, nil)

	orderLines := make([]model.OrderLine, len(lines))
	for i, l := range lines {
		orderLines[i] = l.OrderLine
	}

	order := &model.Order{
		ID:             uuid.NewString(),
		VendorID:       v.VendorID,
		WarehouseID:    warehouseID,
		Status:         status,
		OrderDate:      o.Clock.Now(),
		CurrentBracket: v.CurrentBracket,
		Independent:    independent,
		AutoAdjust:     independent,
		FinalAdjust:    independent,
		Checks:         checks,
		Lines:          orderLines,
	}

	if err := o.Store.InsertOrder(ctx, order); err != nil {
		return false, asrerr.WrapStorage("vendor:"+v.VendorID, err)
	}
	trigger := "scheduled"
	if due {
		trigger = "due"
	}
	metrics.OrdersBuiltTotal.WithLabelValues(trigger).Inc()
	return true, nil
}

func extendedAmountFloat(l orderbuilder.Line) float64 {
	f, _ := l.ExtendedAmount.Float64()
	return f
}

// forEachSKU processes skus with bounded parallelism (spec.md §5's
// default-4 worker pool), checking ctx between each one and stopping
// the fan-out (without failing the run) on cancellation.
func (o *Orchestrator) forEachSKU(ctx context.Context, skus []*model.SKU, fn func(context.Context, *model.SKU) error) error {
	workers := o.Config.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	metrics.ActiveWorkers.Set(float64(workers))
	defer metrics.ActiveWorkers.Set(0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, sku := range skus {
		sku := sku
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			_ = fn(gctx, sku) // per-SKU failures increment counters in the caller, not surfaced here
			return nil
		})
	}
	return g.Wait()
}

// forEachVendor processes vendors with the same bounded pool as
// forEachSKU; distinct vendors may overlap, but each vendor's own
// work runs to completion before that slot is released (spec.md §5
// "Per-vendor operations ... may overlap across distinct vendors but
// not within the same vendor").
func (o *Orchestrator) forEachVendor(ctx context.Context, vendors []*model.Vendor, fn func(context.Context, *model.Vendor) error) error {
	workers := o.Config.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	metrics.ActiveWorkers.Set(float64(workers))
	defer metrics.ActiveWorkers.Set(0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, v := range vendors {
		v := v
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			_ = fn(gctx, v) // per-vendor failures increment counters in the caller, not surfaced here
			return nil
		})
	}
	return g.Wait()
}
