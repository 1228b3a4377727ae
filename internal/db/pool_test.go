// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func TestCreateBunDB_VariousDialects(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	for _, c := range []string{"sqlite", "postgres", "mysql", "unknown"} {
		if b := createBunDB(sqlDB, c); b == nil {
			t.Fatalf("createBunDB returned nil for dialect %s", c)
		}
	}
}

func TestOpen_PoolDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), "sqlite", dir+"/pool.db", PoolOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()

	if got := s.bun.DB.Stats().MaxOpenConnections; got != defaultMaxOpenConns {
		t.Fatalf("MaxOpenConnections = %d; want %d", got, defaultMaxOpenConns)
	}
}

func TestOpen_PoolOverrides(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), "sqlite", dir+"/pool.db", PoolOptions{MaxOpenConns: 7, ConnMaxLifetime: time.Minute})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()

	if got := s.bun.DB.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("MaxOpenConnections = %d; want 7", got)
	}
}

func TestOpen_InMemorySqliteUsesSingleConnection(t *testing.T) {
	s := newTestStore(t)
	if got := s.bun.DB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d; want 1", got)
	}
}
