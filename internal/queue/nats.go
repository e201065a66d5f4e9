// Package queue publishes nightly/period-end run progress and
// per-entity completion events to NATS, the way the teacher's
// internal/queue.Manager publishes snapshot/detector job progress.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Manager owns a NATS connection and publishes run lifecycle events.
type Manager struct {
	conn *nats.Conn
	log  *zap.SugaredLogger
}

// NewManager dials NATS with the same reconnect posture the teacher
// configures for its job queue.
func NewManager(natsURL string, log *zap.SugaredLogger) (*Manager, error) {
	options := []nats.Option{
		nats.Name("asr-engine"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warnw("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infow("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("nats connection closed")
		}),
	}

	conn, err := nats.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", natsURL, err)
	}
	log.Infow("connected to nats", "url", natsURL)
	return &Manager{conn: conn, log: log}, nil
}

// Close releases the underlying connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// Conn returns the underlying connection for callers that need raw
// pub/sub access.
func (m *Manager) Conn() *nats.Conn {
	return m.conn
}

// Subject patterns for a single nightly or period-end run, identified
// by its run id (spec.md §7 "run-level progress and completion
// events").
const (
	SubjectRunStarted    = "asr.run.started.%s"
	SubjectRunProgress   = "asr.run.progress.%s"
	SubjectRunVendorDone = "asr.run.vendor.complete.%s"
	SubjectRunCompleted  = "asr.run.completed.%s"
	SubjectRunFailed     = "asr.run.failed.%s"
)

// RunProgress is the payload published as each vendor partition
// finishes within a run.
type RunProgress struct {
	RunID         string    `json:"run_id"`
	WarehouseID   string    `json:"warehouse_id"`
	VendorsTotal  int       `json:"vendors_total"`
	VendorsDone   int       `json:"vendors_done"`
	SKUsProcessed int       `json:"skus_processed"`
	ErrorCount    int       `json:"error_count"`
	At            time.Time `json:"at"`
}

// VendorComplete is published once a single vendor partition finishes
// processing, letting subscribers track fine-grained progress without
// polling run state.
type VendorComplete struct {
	RunID      string `json:"run_id"`
	VendorID   string `json:"vendor_id"`
	SKUCount   int    `json:"sku_count"`
	ErrorCount int    `json:"error_count"`
}

// RunResult is the terminal event for a run, success or failure.
type RunResult struct {
	RunID         string    `json:"run_id"`
	WarehouseID   string    `json:"warehouse_id"`
	SKUsProcessed int       `json:"skus_processed"`
	ErrorCount    int       `json:"error_count"`
	DurationMS    int64     `json:"duration_ms"`
	FinishedAt    time.Time `json:"finished_at"`
	Error         string    `json:"error,omitempty"`
}

// PublishRunStarted announces a run beginning.
func (m *Manager) PublishRunStarted(runID, warehouseID string) error {
	return m.publishJSON(fmt.Sprintf(SubjectRunStarted, runID), map[string]string{
		"run_id": runID, "warehouse_id": warehouseID,
	})
}

// PublishProgress reports aggregate progress within a run.
func (m *Manager) PublishProgress(p RunProgress) error {
	return m.publishJSON(fmt.Sprintf(SubjectRunProgress, p.RunID), p)
}

// PublishVendorComplete reports that one vendor partition finished.
func (m *Manager) PublishVendorComplete(v VendorComplete) error {
	return m.publishJSON(fmt.Sprintf(SubjectRunVendorDone, v.RunID), v)
}

// PublishCompleted reports a successful run.
func (m *Manager) PublishCompleted(r RunResult) error {
	return m.publishJSON(fmt.Sprintf(SubjectRunCompleted, r.RunID), r)
}

// PublishFailed reports a run that terminated with a fatal error.
func (m *Manager) PublishFailed(r RunResult) error {
	return m.publishJSON(fmt.Sprintf(SubjectRunFailed, r.RunID), r)
}

func (m *Manager) publishJSON(subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	if err := m.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
