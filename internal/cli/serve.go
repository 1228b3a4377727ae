// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/vecinity/vecinity-api/internal/api"
	"github.com/vecinity/vecinity-api/internal/app"
	"github.com/vecinity/vecinity-api/internal/bootstrap"
	"github.com/vecinity/vecinity-api/internal/db"
	"github.com/vecinity/vecinity-api/internal/logging"
	"github.com/vecinity/vecinity-api/internal/pipeline"
	"github.com/vecinity/vecinity-api/internal/ratelimit"
)

const sweepInterval = time.Minute

func newServeCmd(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.serve(cmd)
		},
	}
}

// serve assembles the server and blocks until the orchestrator exits.
func (rt *cliState) serve(cmd *cobra.Command) error {
	cfg := rt.cfg
	ctx := cmd.Context()

	store, err := rt.openStore(ctx)
	if err != nil {
		logging.Errorf("could not open database: %v", err)
		return &exitError{code: 1}
	}
	defer func() { _ = store.Close() }()

	kind := db.Kind(store.Driver())
	limiter := ratelimit.New(cfg.RateLimitWindow(), cfg.RateLimitMax)
	router := api.NewRouter(api.Deps{
		Store:       store,
		StorageKind: kind,
		Environment: cfg.Environment,
	})
	handler := pipeline.New(pipeline.OptionsFromConfig(cfg, limiter), router)

	initialize := func(ctx context.Context) error {
		_, err := bootstrap.Initialize(ctx, store)
		return err
	}
	o := app.New(cfg, initialize, handler, app.WithStorageKind(kind))
	o.Go(func(ctx context.Context) error {
		return limiter.Janitor(ctx, sweepInterval)
	})

	if code := o.Run(ctx); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
