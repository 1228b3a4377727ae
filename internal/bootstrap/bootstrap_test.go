// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package bootstrap

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/vecinity/vecinity-api/internal/logging"
)

type stubDB struct {
	connErr, syncErr, seedErr error
	calls                     []string
	syncForce                 []bool
	categories                map[string]bool
	inserted                  int
}

func (s *stubDB) TestConnection(context.Context) error {
	s.calls = append(s.calls, "connect")
	return s.connErr
}

func (s *stubDB) SyncAllModels(_ context.Context, force bool) error {
	s.calls = append(s.calls, "sync")
	s.syncForce = append(s.syncForce, force)
	return s.syncErr
}

func (s *stubDB) CreateInitialData(context.Context) error {
	s.calls = append(s.calls, "seed")
	if s.seedErr != nil {
		return s.seedErr
	}
	if s.categories == nil {
		s.categories = map[string]bool{}
	}
	for _, name := range []string{"Baches", "Basura"} {
		if !s.categories[name] {
			s.categories[name] = true
			s.inserted++
		}
	}
	return nil
}

// tickingNow returns a clock that advances by tick on every reading.
func tickingNow(t *testing.T, tick time.Duration) {
	t.Helper()
	cur := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time {
		cur = cur.Add(tick)
		return cur
	}
	t.Cleanup(func() { now = prev })
}

func quietLogs(t *testing.T) {
	t.Helper()
	prev := logging.L
	logging.Setup("error", "test", io.Discard)
	t.Cleanup(func() { logging.L = prev })
}

func TestInitialize_StepOrder(t *testing.T) {
	quietLogs(t)
	tickingNow(t, time.Millisecond)

	boom := errors.New("boom")
	tests := []struct {
		name      string
		db        *stubDB
		wantErr   error
		wantCalls []string
		want      Outcome
	}{
		{"success", &stubDB{}, nil, []string{"connect", "sync", "seed"}, Outcome{ConnectionOK: true, SyncOK: true, Seeded: true}},
		{"unreachable", &stubDB{connErr: boom}, ErrDatabaseUnreachable, []string{"connect"}, Outcome{}},
		{"sync fails", &stubDB{syncErr: boom}, ErrSchemaSyncFailed, []string{"connect", "sync"}, Outcome{ConnectionOK: true}},
		{"seed fails", &stubDB{seedErr: boom}, ErrSeedFailed, []string{"connect", "sync", "seed"}, Outcome{ConnectionOK: true, SyncOK: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Initialize(context.Background(), tt.db)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, boom) {
					t.Fatalf("cause not wrapped: %v", err)
				}
			}
			if !reflect.DeepEqual(tt.db.calls, tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", tt.db.calls, tt.wantCalls)
			}
			flags := Outcome{ConnectionOK: got.ConnectionOK, SyncOK: got.SyncOK, Seeded: got.Seeded}
			if !reflect.DeepEqual(flags, tt.want) {
				t.Fatalf("outcome = %+v, want %+v", got, tt.want)
			}
			if len(got.Timings) != len(tt.wantCalls)-boolToInt(err != nil) {
				t.Fatalf("timings = %v for calls %v", got.Timings, tt.wantCalls)
			}
			for i, tm := range got.Timings {
				if tm.Step != tt.wantCalls[i] || tm.Took != time.Millisecond {
					t.Fatalf("timing %d = %+v", i, tm)
				}
			}
			if got.Ready() != (tt.wantErr == nil) {
				t.Fatalf("Ready() = %t", got.Ready())
			}
		})
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestInitialize_NeverForcesSync(t *testing.T) {
	quietLogs(t)
	db := &stubDB{}
	if _, err := Initialize(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	if len(db.syncForce) != 1 || db.syncForce[0] {
		t.Fatalf("sync must run once without force, got %v", db.syncForce)
	}
}

func TestInitialize_RepeatedRunsSeedOnce(t *testing.T) {
	quietLogs(t)
	db := &stubDB{}
	for i := 0; i < 2; i++ {
		if _, err := Initialize(context.Background(), db); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
	if db.inserted != 2 {
		t.Fatalf("expected 2 inserted categories, got %d", db.inserted)
	}
}
