package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
)

// FindUnresolved looks up an unresolved exception matching key, used
// by the detector to enforce the dedup rule of spec.md §4.9. A nil
// result with no error means none exists.
func (s *Store) FindUnresolved(ctx context.Context, key model.ExceptionKey) (*model.ExceptionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sku_id, period_year, period_number, type, before_snapshot, after_snapshot,
		       is_resolved, resolved_at, resolved_by, resolution_note, created_at
		FROM exceptions
		WHERE sku_id = $1 AND period_year = $2 AND period_number = $3 AND type = $4 AND is_resolved = false`,
		key.SKUID, key.PeriodYear, key.PeriodNumber, string(key.Type))

	e, err := scanException(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find unresolved exception %+v: %w", key, err)
	}
	return e, nil
}

// InsertException records a new exception.
func (s *Store) InsertException(ctx context.Context, e *model.ExceptionRecord) error {
	before, err := json.Marshal(e.BeforeSnapshot)
	if err != nil {
		return fmt.Errorf("marshal before snapshot: %w", err)
	}
	after, err := json.Marshal(e.AfterSnapshot)
	if err != nil {
		return fmt.Errorf("marshal after snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exceptions
			(id, sku_id, period_year, period_number, type, before_snapshot, after_snapshot,
			 is_resolved, resolved_at, resolved_by, resolution_note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.SKUID, e.PeriodYear, e.PeriodNumber, string(e.Type), before, after,
		e.IsResolved, nullTime(e.ResolvedAt), nullString(e.ResolvedBy), nullString(e.ResolutionNote), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert exception %s: %w", e.ID, err)
	}
	return nil
}

// ArchiveResolvedBefore deletes resolved exceptions older than a
// retention horizon (spec.md §4.9 "keep_archived_exceptions_days").
func (s *Store) ArchiveResolvedBefore(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM exceptions WHERE is_resolved = true AND resolved_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("archive resolved exceptions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanException(row rowScanner) (*model.ExceptionRecord, error) {
	var e model.ExceptionRecord
	var excType string
	var before, after []byte
	var resolvedAt sql.NullTime
	var resolvedBy, resolutionNote sql.NullString

	err := row.Scan(
		&e.ID, &e.SKUID, &e.PeriodYear, &e.PeriodNumber, &excType, &before, &after,
		&e.IsResolved, &resolvedAt, &resolvedBy, &resolutionNote, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Type = model.ExceptionType(excType)
	e.ResolvedAt = resolvedAt.Time
	e.ResolvedBy = resolvedBy.String
	e.ResolutionNote = resolutionNote.String
	if len(before) > 0 {
		if err := json.Unmarshal(before, &e.BeforeSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal before snapshot: %w", err)
		}
	}
	if len(after) > 0 {
		if err := json.Unmarshal(after, &e.AfterSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal after snapshot: %w", err)
		}
	}
	return &e, nil
}
