package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/store"
)

// GetCompletedOrders returns receipt history for a vendor (or a single
// SKU within it, when skuID is non-empty) since a cutoff, used by the
// lead-time forecaster to build its observation window (spec.md §4.5).
// Orders without a receipt_date are excluded, since an open order
// carries no completed lead-time observation yet.
func (s *Store) GetCompletedOrders(ctx context.Context, vendorID, skuID string, since time.Time) ([]store.LeadTimeOrder, error) {
	query := `
		SELECT DISTINCT o.vendor_id, ol.sku_id, o.order_date, o.approval_date,
		       o.receipt_date, o.expected_delivery_date, o.is_expedited, o.is_delayed
		FROM orders o
		JOIN order_lines ol ON ol.order_id = o.id
		WHERE o.vendor_id = $1 AND o.receipt_date IS NOT NULL AND o.receipt_date >= $2`
	args := []interface{}{vendorID, since}
	if skuID != "" {
		query += " AND ol.sku_id = $3"
		args = append(args, skuID)
	}
	query += " ORDER BY o.receipt_date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get completed orders for vendor %s: %w", vendorID, err)
	}
	defer rows.Close()

	var out []store.LeadTimeOrder
	for rows.Next() {
		var o store.LeadTimeOrder
		if err := rows.Scan(&o.VendorID, &o.SKUID, &o.OrderDate, &o.ApprovalDate,
			&o.ReceiptDate, &o.ExpectedDeliveryDate, &o.IsExpedited, &o.IsDelayed); err != nil {
			return nil, fmt.Errorf("scan completed order row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
