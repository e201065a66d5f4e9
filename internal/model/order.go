package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderTotals groups the three totals snapshots of spec.md §3
// (independent, auto_adjust, final_adjust) across the four unit types.
type OrderTotals struct {
	Amount decimal.Decimal
	Eaches decimal.Decimal
	Weight decimal.Decimal
	Volume decimal.Decimal
}

// Add returns the element-wise sum of two totals.
func (t OrderTotals) Add(o OrderTotals) OrderTotals {
	return OrderTotals{
		Amount: t.Amount.Add(o.Amount),
		Eaches: t.Eaches.Add(o.Eaches),
		Weight: t.Weight.Add(o.Weight),
		Volume: t.Volume.Add(o.Volume),
	}
}

// OrderChecks are the counts recorded per spec.md §4.7 "Order checks".
type OrderChecks struct {
	OrderPointA    int
	OrderPoint     int
	Watch          int
	Manual         int
	New            int
	Uninitialized  int
	Quantity       int
	ShelfLife      int
}

// Order is a purchase order in flight to a single vendor/warehouse
// (spec.md §3).
type Order struct {
	ID          string
	VendorID    string
	WarehouseID string
	Status      OrderStatus

	Category string

	OrderDate           time.Time
	ApprovalDate        time.Time
	ExpectedDeliveryDate time.Time
	ReceiptDate         time.Time

	CurrentBracket int
	ExtraDays      int
	OrderDelayDays float64

	IsExpedited bool
	IsDelayed   bool

	Independent OrderTotals
	AutoAdjust  OrderTotals
	FinalAdjust OrderTotals

	Checks OrderChecks

	Lines []OrderLine
}

// OrderLine is a single SKU's quantity on an Order (spec.md §3).
type OrderLine struct {
	OrderID  string
	SKUID    string

	SOQUnits float64
	SOQDays  float64

	PurchasePrice   decimal.Decimal
	ExtendedAmount  decimal.Decimal

	ItemDelayDays float64

	IsFrozen          bool
	IsManual          bool
	IsOrderPointDriven bool
}
