// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Package bootstrap brings the backing store to a serviceable state before
// the HTTP listener is bound. Initialization is all-or-nothing: the first
// failing step stops the sequence and the process is expected to exit.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vecinity/vecinity-api/internal/logging"
)

var (
	// ErrDatabaseUnreachable is returned when the store cannot be reached
	// or rejects the credentials.
	ErrDatabaseUnreachable = errors.New("database unreachable")
	// ErrSchemaSyncFailed is returned when the schema could not be reconciled.
	ErrSchemaSyncFailed = errors.New("schema sync failed")
	// ErrSeedFailed is returned when the baseline records could not be written.
	ErrSeedFailed = errors.New("initial data seed failed")
)

// Database is the subset of the store used during startup.
type Database interface {
	TestConnection(ctx context.Context) error
	SyncAllModels(ctx context.Context, force bool) error
	CreateInitialData(ctx context.Context) error
}

// StepTiming is how long one initialization step took.
type StepTiming struct {
	Step string
	Took time.Duration
}

// Outcome records which initialization steps completed and how long each
// completed step took.
type Outcome struct {
	ConnectionOK bool
	SyncOK       bool
	Seeded       bool
	Timings      []StepTiming
}

// Ready reports whether every step succeeded.
func (o Outcome) Ready() bool {
	return o.ConnectionOK && o.SyncOK && o.Seeded
}

// now is swapped by tests to get deterministic step timings.
var now = time.Now

type step struct {
	name     string
	run      func(context.Context, Database) error
	sentinel error
	done     func(*Outcome)
	message  string
}

var steps = []step{
	{
		name:     "connect",
		run:      func(ctx context.Context, db Database) error { return db.TestConnection(ctx) },
		sentinel: ErrDatabaseUnreachable,
		done:     func(o *Outcome) { o.ConnectionOK = true },
		message:  "database connection established",
	},
	{
		name:     "sync",
		run:      func(ctx context.Context, db Database) error { return db.SyncAllModels(ctx, false) },
		sentinel: ErrSchemaSyncFailed,
		done:     func(o *Outcome) { o.SyncOK = true },
		message:  "schema synchronized",
	},
	{
		name:     "seed",
		run:      func(ctx context.Context, db Database) error { return db.CreateInitialData(ctx) },
		sentinel: ErrSeedFailed,
		done:     func(o *Outcome) { o.Seeded = true },
		message:  "initial data ready",
	},
}

// Initialize verifies connectivity, syncs the schema without dropping
// anything and seeds the baseline data, in that order. There are no retries.
func Initialize(ctx context.Context, db Database) (Outcome, error) {
	var out Outcome
	log := logging.Named("bootstrap")

	for _, st := range steps {
		start := now()
		if err := st.run(ctx, db); err != nil {
			log.Error("startup step failed", "step", st.name, "err", err)
			return out, fmt.Errorf("%w: %w", st.sentinel, err)
		}
		took := now().Sub(start)
		st.done(&out)
		out.Timings = append(out.Timings, StepTiming{Step: st.name, Took: took})
		log.Info(st.message, "took", took)
	}
	return out, nil
}
