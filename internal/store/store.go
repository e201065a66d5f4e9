// Package store defines the storage-layer interfaces of spec.md §6:
// "a CRUD interface per entity with optimistic-locking or
// transactional semantics... get_by_id, query_by_filter, insert,
// update, delete, commit, rollback. No ORM-specific semantics leak
// into the core." Every numeric/logic package in this module depends
// only on these interfaces, never on database/sql directly (Design
// Notes, "Ownership & wiring").
package store

import (
	"context"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
)

// Clock abstracts "now" so the engine's date-dependent logic (period
// calendar, freeze checks, retention purges) is deterministic in
// tests, per Design Notes' explicit Context{cfg, store, clock}.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SKUFilter narrows a SKU query (spec.md §6 query_by_filter).
type SKUFilter struct {
	WarehouseID string
	VendorID    string
	BuyerClasses []model.BuyerClass
}

// SKUStore is the CRUD surface over the SKU entity.
type SKUStore interface {
	GetSKU(ctx context.Context, skuID string) (*model.SKU, error)
	QuerySKUs(ctx context.Context, filter SKUFilter) ([]*model.SKU, error)
	UpdateSKU(ctx context.Context, sku *model.SKU) error
}

// VendorStore is the CRUD surface over Vendor and Bracket entities.
type VendorStore interface {
	GetVendor(ctx context.Context, vendorID, warehouseID string) (*model.Vendor, error)
	QueryVendors(ctx context.Context, warehouseID string) ([]*model.Vendor, error)
	UpdateVendor(ctx context.Context, v *model.Vendor) error
	GetBrackets(ctx context.Context, vendorID string) ([]model.Bracket, error)
}

// HistoryStore is C2's storage surface (spec.md §4.2).
type HistoryStore interface {
	GetHistory(ctx context.Context, skuID string, fromYear, fromPeriod, toYear, toPeriod int) ([]model.DemandHistoryRecord, error)
	InsertHistory(ctx context.Context, rec model.DemandHistoryRecord) error
	UpsertHistory(ctx context.Context, rec model.DemandHistoryRecord) error
	SetIgnored(ctx context.Context, skuID string, year, period int, ignored bool) error
	PurgeHistoryBefore(ctx context.Context, skuID string, year, period int) (int, error)
}

// SeasonalProfileStore is C4's storage surface.
type SeasonalProfileStore interface {
	GetSeasonalProfile(ctx context.Context, profileID string) (*model.SeasonalProfile, error)
	UpsertSeasonalProfile(ctx context.Context, p *model.SeasonalProfile) error
}

// OrderStore is C7's storage surface.
type OrderStore interface {
	InsertOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	UpdateOrder(ctx context.Context, o *model.Order) error
	QueryOrders(ctx context.Context, vendorID string, statuses []model.OrderStatus) ([]*model.Order, error)
	PurgeOrdersBefore(ctx context.Context, warehouseID string, before time.Time) (int, error)
}

// ExceptionStore is C9's storage surface.
type ExceptionStore interface {
	FindUnresolved(ctx context.Context, key model.ExceptionKey) (*model.ExceptionRecord, error)
	InsertException(ctx context.Context, e *model.ExceptionRecord) error
	ArchiveResolvedBefore(ctx context.Context, before time.Time) (int, error)
}

// LeadTimeOrder is the minimal receipt-history shape C5 needs,
// decoupled from the full Order entity so the lead-time forecaster can
// be tested without an OrderStore (spec.md §4.5).
type LeadTimeOrder struct {
	VendorID             string
	SKUID                string // empty when vendor-level
	OrderDate            time.Time
	ApprovalDate         time.Time
	ReceiptDate          time.Time
	ExpectedDeliveryDate time.Time
	IsExpedited          bool
	IsDelayed            bool
}

// LeadTimeHistoryStore supplies completed-order receipt history to C5.
type LeadTimeHistoryStore interface {
	GetCompletedOrders(ctx context.Context, vendorID, skuID string, since time.Time) ([]LeadTimeOrder, error)
}

// Store aggregates every interface the engine depends on. Concrete
// storage backends (internal/store/postgres) implement this as a
// single type the way the teacher's db.Queries implements every
// per-entity query method on one struct.
type Store interface {
	SKUStore
	VendorStore
	HistoryStore
	SeasonalProfileStore
	OrderStore
	ExceptionStore
	LeadTimeHistoryStore
}
