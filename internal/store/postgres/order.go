package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
)

// InsertOrder creates an order and its lines in a single transaction,
// matching spec.md §5's "each high-level operation... constitutes one
// transaction" rule.
func (s *Store) InsertOrder(ctx context.Context, o *model.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert order %s: begin: %w", o.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
			(id, vendor_id, warehouse_id, status, category, order_date, approval_date,
			 expected_delivery_date, receipt_date, current_bracket, extra_days, order_delay_days,
			 is_expedited, is_delayed,
			 indep_amount, indep_eaches, indep_weight, indep_volume,
			 auto_amount, auto_eaches, auto_weight, auto_volume,
			 final_amount, final_eaches, final_weight, final_volume,
			 check_order_point_a, check_order_point, check_watch, check_manual, check_new, check_uninitialized,
			 check_quantity, check_shelf_life)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,
		        $15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,
		        $27,$28,$29,$30,$31,$32,$33,$34)`,
		o.ID, o.VendorID, o.WarehouseID, string(o.Status), o.Category, nullTime(o.OrderDate), nullTime(o.ApprovalDate),
		nullTime(o.ExpectedDeliveryDate), nullTime(o.ReceiptDate), o.CurrentBracket, o.ExtraDays, o.OrderDelayDays,
		o.IsExpedited, o.IsDelayed,
		o.Independent.Amount, o.Independent.Eaches, o.Independent.Weight, o.Independent.Volume,
		o.AutoAdjust.Amount, o.AutoAdjust.Eaches, o.AutoAdjust.Weight, o.AutoAdjust.Volume,
		o.FinalAdjust.Amount, o.FinalAdjust.Eaches, o.FinalAdjust.Weight, o.FinalAdjust.Volume,
		o.Checks.OrderPointA, o.Checks.OrderPoint, o.Checks.Watch, o.Checks.Manual, o.Checks.New, o.Checks.Uninitialized,
		o.Checks.Quantity, o.Checks.ShelfLife,
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}

	for _, line := range o.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines
				(order_id, sku_id, soq_units, soq_days, purchase_price, extended_amount,
				 item_delay_days, is_frozen, is_manual, is_order_point_driven)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			o.ID, line.SKUID, line.SOQUnits, line.SOQDays, line.PurchasePrice, line.ExtendedAmount,
			line.ItemDelayDays, line.IsFrozen, line.IsManual, line.IsOrderPointDriven,
		)
		if err != nil {
			return fmt.Errorf("insert order line %s/%s: %w", o.ID, line.SKUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert order %s: commit: %w", o.ID, err)
	}
	return nil
}

// GetOrder retrieves an order and its lines.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.scanOrderHeader(ctx, orderID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, sku_id, soq_units, soq_days, purchase_price, extended_amount,
		       item_delay_days, is_frozen, is_manual, is_order_point_driven
		FROM order_lines WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order lines for %s: %w", orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.OrderID, &l.SKUID, &l.SOQUnits, &l.SOQDays, &l.PurchasePrice, &l.ExtendedAmount,
			&l.ItemDelayDays, &l.IsFrozen, &l.IsManual, &l.IsOrderPointDriven); err != nil {
			return nil, fmt.Errorf("scan order line row: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

// UpdateOrder persists order header fields and upserts its lines.
func (s *Store) UpdateOrder(ctx context.Context, o *model.Order) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET
			status = $2, current_bracket = $3, extra_days = $4, order_delay_days = $5,
			is_expedited = $6, is_delayed = $7, approval_date = $8, receipt_date = $9,
			auto_amount = $10, auto_eaches = $11, auto_weight = $12, auto_volume = $13,
			final_amount = $14, final_eaches = $15, final_weight = $16, final_volume = $17
		WHERE id = $1`,
		o.ID, string(o.Status), o.CurrentBracket, o.ExtraDays, o.OrderDelayDays,
		o.IsExpedited, o.IsDelayed, nullTime(o.ApprovalDate), nullTime(o.ReceiptDate),
		o.AutoAdjust.Amount, o.AutoAdjust.Eaches, o.AutoAdjust.Weight, o.AutoAdjust.Volume,
		o.FinalAdjust.Amount, o.FinalAdjust.Eaches, o.FinalAdjust.Weight, o.FinalAdjust.Volume,
	)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}

	for _, line := range o.Lines {
		_, err := s.db.ExecContext(ctx, `
			UPDATE order_lines SET soq_units = $3, soq_days = $4, extended_amount = $5,
				item_delay_days = $6, is_frozen = $7, is_manual = $8, is_order_point_driven = $9
			WHERE order_id = $1 AND sku_id = $2`,
			o.ID, line.SKUID, line.SOQUnits, line.SOQDays, line.ExtendedAmount,
			line.ItemDelayDays, line.IsFrozen, line.IsManual, line.IsOrderPointDriven)
		if err != nil {
			return fmt.Errorf("update order line %s/%s: %w", o.ID, line.SKUID, err)
		}
	}
	return nil
}

// QueryOrders lists orders for a vendor filtered by status.
func (s *Store) QueryOrders(ctx context.Context, vendorID string, statuses []model.OrderStatus) ([]*model.Order, error) {
	query := `SELECT id FROM orders WHERE vendor_id = $1`
	args := []interface{}{vendorID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, string(st))
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders for vendor %s: %w", vendorID, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*model.Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// PurgeOrdersBefore marks accepted/received orders older than a
// retention horizon as Purged (spec.md §4.7 state machine,
// "Accepted --> Purged after retention window").
func (s *Store) PurgeOrdersBefore(ctx context.Context, warehouseID string, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $3
		WHERE warehouse_id = $1 AND status IN ($4, $5) AND order_date < $2`,
		warehouseID, before, string(model.OrderStatusPurged), string(model.OrderStatusAccepted), string(model.OrderStatusReceived))
	if err != nil {
		return 0, fmt.Errorf("purge orders for warehouse %s: %w", warehouseID, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) scanOrderHeader(ctx context.Context, orderID string) (*model.Order, error) {
	var o model.Order
	var status string
	var orderDate, approvalDate, expectedDeliveryDate, receiptDate sql.NullTime

	row := s.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, warehouse_id, status, category, order_date, approval_date,
		       expected_delivery_date, receipt_date, current_bracket, extra_days, order_delay_days,
		       is_expedited, is_delayed,
		       indep_amount, indep_eaches, indep_weight, indep_volume,
		       auto_amount, auto_eaches, auto_weight, auto_volume,
		       final_amount, final_eaches, final_weight, final_volume,
		       check_order_point_a, check_order_point, check_watch, check_manual, check_new, check_uninitialized,
		       check_quantity, check_shelf_life
		FROM orders WHERE id = $1`, orderID)

	err := row.Scan(
		&o.ID, &o.VendorID, &o.WarehouseID, &status, &o.Category, &orderDate, &approvalDate,
		&expectedDeliveryDate, &receiptDate, &o.CurrentBracket, &o.ExtraDays, &o.OrderDelayDays,
		&o.IsExpedited, &o.IsDelayed,
		&o.Independent.Amount, &o.Independent.Eaches, &o.Independent.Weight, &o.Independent.Volume,
		&o.AutoAdjust.Amount, &o.AutoAdjust.Eaches, &o.AutoAdjust.Weight, &o.AutoAdjust.Volume,
		&o.FinalAdjust.Amount, &o.FinalAdjust.Eaches, &o.FinalAdjust.Weight, &o.FinalAdjust.Volume,
		&o.Checks.OrderPointA, &o.Checks.OrderPoint, &o.Checks.Watch, &o.Checks.Manual, &o.Checks.New, &o.Checks.Uninitialized,
		&o.Checks.Quantity, &o.Checks.ShelfLife,
	)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	o.Status = model.OrderStatus(status)
	o.OrderDate = orderDate.Time
	o.ApprovalDate = approvalDate.Time
	o.ExpectedDeliveryDate = expectedDeliveryDate.Time
	o.ReceiptDate = receiptDate.Time
	return &o, nil
}
