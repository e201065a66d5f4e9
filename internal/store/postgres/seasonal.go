package postgres

import (
	"context"
	"fmt"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/lib/pq"
)

// GetSeasonalProfile retrieves a shared seasonal profile by id
// (store.SeasonalProfileStore).
func (s *Store) GetSeasonalProfile(ctx context.Context, profileID string) (*model.SeasonalProfile, error) {
	var p model.SeasonalProfile
	var periodicity int
	var indices []float64

	row := s.db.QueryRowContext(ctx, `
		SELECT profile_id, periodicity, indices FROM seasonal_profiles WHERE profile_id = $1`, profileID)
	if err := row.Scan(&p.ProfileID, &periodicity, pq.Array(&indices)); err != nil {
		return nil, fmt.Errorf("get seasonal profile %s: %w", profileID, err)
	}
	p.Periodicity = model.Periodicity(periodicity)
	p.Indices = indices
	return &p, nil
}

// UpsertSeasonalProfile creates or replaces a seasonal profile's indices.
func (s *Store) UpsertSeasonalProfile(ctx context.Context, p *model.SeasonalProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seasonal_profiles (profile_id, periodicity, indices)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_id) DO UPDATE SET periodicity = EXCLUDED.periodicity, indices = EXCLUDED.indices`,
		p.ProfileID, int(p.Periodicity), pq.Array(p.Indices))
	if err != nil {
		return fmt.Errorf("upsert seasonal profile %s: %w", p.ProfileID, err)
	}
	return nil
}
