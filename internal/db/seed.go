// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// DefaultCategories are inserted on startup when missing.
var DefaultCategories = []Category{
	{Name: "Baches", Description: "Daños en calles y banquetas", Icon: "road", Color: "#8D6E63"},
	{Name: "Alumbrado público", Description: "Luminarias apagadas o dañadas", Icon: "lightbulb", Color: "#FBC02D"},
	{Name: "Basura", Description: "Acumulación de residuos y recolección", Icon: "trash", Color: "#43A047"},
	{Name: "Seguridad", Description: "Situaciones de riesgo en la vía pública", Icon: "shield", Color: "#E53935"},
	{Name: "Áreas verdes", Description: "Parques, árboles y jardines", Icon: "tree", Color: "#2E7D32"},
	{Name: "Agua y drenaje", Description: "Fugas, inundaciones y alcantarillado", Icon: "droplet", Color: "#1E88E5"},
	{Name: "Otros", Description: "Reportes que no encajan en otra categoría", Icon: "dots", Color: "#757575"},
}

// CreateInitialData seeds the baseline records. It only inserts categories
// whose name is not present yet, so calling it on every startup never
// duplicates rows.
func (s *Store) CreateInitialData(ctx context.Context) error {
	inserted := 0
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, c := range DefaultCategories {
			exists, err := tx.NewSelect().Model((*Category)(nil)).Where("name = ?", c.Name).Exists(ctx)
			if err != nil {
				return fmt.Errorf("failed to check category %q: %w", c.Name, err)
			}
			if exists {
				continue
			}
			row := c
			row.CreatedAt = time.Now().UTC()
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert category %q: %w", c.Name, MapDBError(err))
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return err
	}
	dbLogf("seeded %d of %d default categories", inserted, len(DefaultCategories))
	return nil
}
