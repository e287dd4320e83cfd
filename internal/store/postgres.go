package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/spot-finder/backend/internal/models"
)

// FlagStore keeps the ledger of who reported what in PostgreSQL. One row per
// (target, reporter) makes "already flagged" a unique-constraint check.
type FlagStore struct {
	pool *pgxpool.Pool
}

func NewFlagStore(pool *pgxpool.Pool) *FlagStore {
	return &FlagStore{pool: pool}
}

// Migrate creates the flags table if it doesn't exist.
func (s *FlagStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS flags (
			id          BIGSERIAL PRIMARY KEY,
			target_type VARCHAR(16)  NOT NULL,
			target_id   CHAR(24)     NOT NULL,
			reporter_id CHAR(24)     NOT NULL,
			reason      VARCHAR(500) NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ  DEFAULT NOW(),
			UNIQUE (target_type, target_id, reporter_id)
		)
	`)
	return err
}

// Record stores a flag. It returns false when the reporter already flagged
// the target.
func (s *FlagStore) Record(ctx context.Context, targetType, targetID, reporterID, reason string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO flags (target_type, target_id, reporter_id, reason)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (target_type, target_id, reporter_id) DO NOTHING`,
		targetType, targetID, reporterID, reason,
	)
	if err != nil {
		return false, fmt.Errorf("record flag: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Forget removes a flag, used when the report itself could not be applied.
func (s *FlagStore) Forget(ctx context.Context, targetType, targetID, reporterID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM flags WHERE target_type = $1 AND target_id = $2 AND reporter_id = $3`,
		targetType, targetID, reporterID,
	)
	if err != nil {
		return fmt.Errorf("forget flag: %w", err)
	}
	return nil
}

// List returns the flags on one target, newest first.
func (s *FlagStore) List(ctx context.Context, targetType, targetID string) ([]models.Flag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, target_type, target_id, reporter_id, reason, created_at
		 FROM flags WHERE target_type = $1 AND target_id = $2
		 ORDER BY created_at DESC`,
		targetType, targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	flags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Flag, error) {
		var f models.Flag
		err := row.Scan(&f.ID, &f.TargetType, &f.TargetID, &f.ReporterID, &f.Reason, &f.CreatedAt)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	return flags, nil
}

// DeleteForTarget drops every flag on the given targets once they have been
// removed.
func (s *FlagStore) DeleteForTarget(ctx context.Context, targetType string, targetIDs ...string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM flags WHERE target_type = $1 AND target_id = ANY($2)`,
		targetType, targetIDs,
	)
	if err != nil {
		return fmt.Errorf("delete flags: %w", err)
	}
	return nil
}
