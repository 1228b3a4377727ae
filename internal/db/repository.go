// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := s.bun.NewSelect().Model(&out).Order("name ASC").Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return out, nil
}

// GetCategory returns a category by id.
func (s *Store) GetCategory(ctx context.Context, id int64) (*Category, error) {
	c := new(Category)
	if err := s.bun.NewSelect().Model(c).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return c, nil
}

// CreateUser inserts u, assigning its public id and timestamps.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.PublicID == "" {
		u.PublicID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleCitizen
	}
	u.CreatedAt = time.Now().UTC()
	if _, err := s.bun.NewInsert().Model(u).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return nil
}

// GetUserByEmail looks a user up by login email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u := new(User)
	if err := s.bun.NewSelect().Model(u).Where("email = ?", email).Limit(1).Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return u, nil
}

// GetUserByPublicID looks a user up by the id exposed over the API.
func (s *Store) GetUserByPublicID(ctx context.Context, id string) (*User, error) {
	u := new(User)
	if err := s.bun.NewSelect().Model(u).Where("public_id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return u, nil
}

// ReportFilter narrows ListReports. Zero values mean no filter.
type ReportFilter struct {
	CategoryID int64
	Status     string
	Limit      int
	Offset     int
}

// ListReports returns one page of reports, newest first, and the total
// number of matching rows.
func (s *Store) ListReports(ctx context.Context, f ReportFilter) ([]Report, int, error) {
	var out []Report
	q := s.bun.NewSelect().Model(&out).Relation("Category").Order("report.created_at DESC", "report.id DESC")
	if f.CategoryID > 0 {
		q = q.Where("report.category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("report.status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, MapDBError(err)
	}
	return out, total, nil
}

// GetReport returns a report with its category by public id.
func (s *Store) GetReport(ctx context.Context, id string) (*Report, error) {
	r := new(Report)
	err := s.bun.NewSelect().Model(r).Relation("Category").Where("report.public_id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, MapDBError(err)
	}
	return r, nil
}

// CreateReport inserts r as pending.
func (s *Store) CreateReport(ctx context.Context, r *Report) error {
	now := time.Now().UTC()
	if r.PublicID == "" {
		r.PublicID = uuid.NewString()
	}
	r.Status = StatusPending
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.bun.NewInsert().Model(r).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return nil
}

// UpdateReportStatus moves a report to status.
func (s *Store) UpdateReportStatus(ctx context.Context, id, status string) error {
	res, err := s.bun.NewUpdate().Model((*Report)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("public_id = ?", id).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates row counts for the admin dashboard.
type Stats struct {
	Users      int            `json:"users"`
	Categories int            `json:"categories"`
	Reports    int            `json:"reports"`
	ByStatus   map[string]int `json:"byStatus"`
}

// Stats counts users, categories and reports per status.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByStatus: map[string]int{}}
	var err error
	if st.Users, err = s.bun.NewSelect().Model((*User)(nil)).Count(ctx); err != nil {
		return nil, MapDBError(err)
	}
	if st.Categories, err = s.bun.NewSelect().Model((*Category)(nil)).Count(ctx); err != nil {
		return nil, MapDBError(err)
	}

	var rows []struct {
		Status string `bun:"status"`
		N      int    `bun:"n"`
	}
	err = s.bun.NewSelect().Model((*Report)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS n").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, MapDBError(err)
	}
	for _, r := range rows {
		st.ByStatus[r.Status] = r.N
		st.Reports += r.N
	}
	return st, nil
}
