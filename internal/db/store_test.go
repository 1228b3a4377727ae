// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:test_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	s, err := Open(context.Background(), "sqlite", dsn, PoolOptions{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSyncedStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.TestConnection(ctx); err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
	if err := s.SyncAllModels(ctx, false); err != nil {
		t.Fatalf("SyncAllModels failed: %v", err)
	}
	return s
}

func countCategories(t *testing.T, s *Store) int {
	t.Helper()
	n, err := s.bun.NewSelect().Model((*Category)(nil)).Count(context.Background())
	if err != nil {
		t.Fatalf("count categories: %v", err)
	}
	return n
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x", PoolOptions{}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestKind(t *testing.T) {
	cases := map[string]string{"mysql": "MySQL", "postgres": "PostgreSQL", "sqlite": "SQLite", "x": "x"}
	for in, want := range cases {
		if got := Kind(in); got != want {
			t.Errorf("Kind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSyncAllModels_Idempotent(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()

	// A second non-forced sync must leave existing tables and indexes alone.
	if err := s.SyncAllModels(ctx, false); err != nil {
		t.Fatalf("second SyncAllModels failed: %v", err)
	}
	for _, table := range []string{"categories", "users", "reports"} {
		var n int
		if err := s.bun.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestSyncAllModels_NonForcedKeepsData(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()
	if err := s.CreateInitialData(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.SyncAllModels(ctx, false); err != nil {
		t.Fatal(err)
	}
	if got := countCategories(t, s); got != len(DefaultCategories) {
		t.Fatalf("non-forced sync lost data: %d categories", got)
	}

	if err := s.SyncAllModels(ctx, true); err != nil {
		t.Fatalf("forced sync failed: %v", err)
	}
	if got := countCategories(t, s); got != 0 {
		t.Fatalf("forced sync should recreate empty tables, got %d categories", got)
	}
}

func TestCreateInitialData_Idempotent(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.CreateInitialData(ctx); err != nil {
			t.Fatalf("CreateInitialData run %d failed: %v", i+1, err)
		}
	}
	if got := countCategories(t, s); got != len(DefaultCategories) {
		t.Fatalf("expected %d categories after two seeds, got %d", len(DefaultCategories), got)
	}
}

func TestCreateInitialData_FillsGaps(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()

	partial := DefaultCategories[0]
	if _, err := s.bun.NewInsert().Model(&partial).Exec(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateInitialData(ctx); err != nil {
		t.Fatal(err)
	}
	if got := countCategories(t, s); got != len(DefaultCategories) {
		t.Fatalf("expected %d categories, got %d", len(DefaultCategories), got)
	}
}

func TestUsers_CreateAndLookup(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()

	u := &User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.PublicID == "" || u.Role != RoleCitizen || u.ID == 0 {
		t.Fatalf("CreateUser did not fill defaults: %+v", u)
	}

	dup := &User{Name: "Ana 2", Email: "ana@example.com", PasswordHash: "y"}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "ana@example.com")
	if err != nil || got.PublicID != u.PublicID {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := s.GetUserByPublicID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReports_Lifecycle(t *testing.T) {
	s := newSyncedStore(t)
	ctx := context.Background()
	if err := s.CreateInitialData(ctx); err != nil {
		t.Fatal(err)
	}
	cats, err := s.ListCategories(ctx)
	if err != nil || len(cats) == 0 {
		t.Fatalf("ListCategories = %v, %v", cats, err)
	}

	for i := 0; i < 3; i++ {
		r := &Report{Title: "Bache", Description: "Grande", CategoryID: cats[0].ID}
		if err := s.CreateReport(ctx, r); err != nil {
			t.Fatalf("CreateReport failed: %v", err)
		}
	}
	other := &Report{Title: "Luz", Description: "Apagada", CategoryID: cats[1].ID}
	if err := s.CreateReport(ctx, other); err != nil {
		t.Fatal(err)
	}

	page, total, err := s.ListReports(ctx, ReportFilter{CategoryID: cats[0].ID, Limit: 2})
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("ListReports returned %d rows of %d total", len(page), total)
	}
	if page[0].Category == nil || page[0].Category.ID != cats[0].ID {
		t.Fatalf("category relation not loaded: %+v", page[0])
	}

	if err := s.UpdateReportStatus(ctx, other.PublicID, StatusResolved); err != nil {
		t.Fatalf("UpdateReportStatus failed: %v", err)
	}
	got, err := s.GetReport(ctx, other.PublicID)
	if err != nil || got.Status != StatusResolved {
		t.Fatalf("GetReport = %+v, %v", got, err)
	}
	if err := s.UpdateReportStatus(ctx, "missing", StatusResolved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Reports != 4 || st.ByStatus[StatusPending] != 3 || st.ByStatus[StatusResolved] != 1 || st.Categories != len(DefaultCategories) {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestRunMaintenance_SqliteSmoke(t *testing.T) {
	s := newSyncedStore(t)
	if err := s.RunMaintenance(context.Background()); err != nil {
		t.Fatalf("RunMaintenance failed: %v", err)
	}
}
