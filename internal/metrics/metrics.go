// Package metrics exposes Prometheus counters and histograms for
// nightly/period-end runs (spec.md §7 "run-level statistics:
// SKUs processed, errors, duration").
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SKUsProcessedTotal counts SKUs that completed the reforecast/
	// order-build pipeline, labeled by run phase.
	SKUsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asr_skus_processed_total",
		Help: "Total SKUs processed by the replenishment engine",
	}, []string{"phase"})

	// SKUErrorsTotal counts per-SKU processing failures, labeled by
	// phase and error kind (see internal/asrerr).
	SKUErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asr_sku_errors_total",
		Help: "Total per-SKU processing errors",
	}, []string{"phase", "kind"})

	// ExceptionsRaisedTotal counts exceptions raised by the detector,
	// labeled by exception type.
	ExceptionsRaisedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asr_exceptions_raised_total",
		Help: "Total exceptions raised during a run",
	}, []string{"type"})

	// OrdersBuiltTotal counts orders created by the order builder,
	// labeled "due" when the order was created due and "scheduled"
	// when it was created planned.
	OrdersBuiltTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asr_orders_built_total",
		Help: "Total orders created during a run",
	}, []string{"trigger"})

	// RunDuration records the wall-clock time of a whole nightly or
	// period-end run, labeled by run kind.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asr_run_duration_seconds",
		Help:    "Duration of a nightly or period-end run",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"run_kind"})

	// VendorPartitionDuration records per-vendor processing time
	// within a run, used to spot slow vendors in the bounded worker
	// pool.
	VendorPartitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asr_vendor_partition_duration_seconds",
		Help:    "Duration of a single vendor's partition within a run",
		Buckets: prometheus.DefBuckets,
	}, []string{"run_kind"})

	// ActiveWorkers reports the current size of the bounded SKU/vendor
	// worker pool in use.
	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "asr_active_workers",
		Help: "Current number of active pipeline workers",
	})

	// RunsInFlight reports how many runs are currently executing per
	// warehouse; it only counts them and does not prevent overlap.
	RunsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "asr_runs_in_flight",
		Help: "Number of in-flight runs per warehouse",
	}, []string{"warehouse_id"})
)
