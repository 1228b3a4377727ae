// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"time"
)

// SyncAllModels reconciles the expected tables with the store. Missing
// tables are created; existing ones are left untouched. With force every
// table is dropped first, which destroys data and is only reachable from
// the `db sync --force` command.
func (s *Store) SyncAllModels(ctx context.Context, force bool) error {
	start := time.Now()
	dbLogf("starting schema sync for %s (force=%t)", s.driver, force)

	ms := models()
	if force {
		for i := len(ms) - 1; i >= 0; i-- {
			if _, err := s.bun.NewDropTable().Model(ms[i]).IfExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", ms[i], err)
			}
		}
	}

	for _, m := range ms {
		q := s.bun.NewCreateTable().Model(m).IfNotExists().WithForeignKeys()
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", m, err)
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		{(*Report)(nil), "reports_category_id_idx", []string{"category_id"}},
		{(*Report)(nil), "reports_status_idx", []string{"status"}},
	}
	for _, ix := range indexes {
		exists, err := s.indexExists(ctx, ix.name)
		if err != nil {
			return fmt.Errorf("failed to inspect index %s: %w", ix.name, err)
		}
		if exists {
			continue
		}
		if _, err := s.bun.NewCreateIndex().Model(ix.model).Index(ix.name).Column(ix.columns...).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", ix.name, err)
		}
	}

	dbLogf("schema sync for %s completed in %s", s.driver, time.Since(start))
	return nil
}

// indexExists checks the engine catalog, since MySQL has no
// CREATE INDEX IF NOT EXISTS.
func (s *Store) indexExists(ctx context.Context, name string) (bool, error) {
	var query string
	switch s.driver {
	case "mysql":
		query = "SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND index_name = ?"
	case "postgres":
		query = "SELECT COUNT(*) FROM pg_indexes WHERE indexname = ?"
	default:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?"
	}
	var n int
	if err := s.bun.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
