// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli wires the vecinity command tree with cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vecinity/vecinity-api/internal/config"
	"github.com/vecinity/vecinity-api/internal/db"
	"github.com/vecinity/vecinity-api/internal/httperr"
	"github.com/vecinity/vecinity-api/internal/i18n"
	"github.com/vecinity/vecinity-api/internal/logging"
)

// exitError carries a process exit code out of a command.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// cliState holds what PersistentPreRunE resolved for the subcommands.
type cliState struct {
	cfgFile string
	verbose bool
	cfg     *config.ServerConfig
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return run(context.Background(), NewRootCmd(), os.Args[1:])
}

func run(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	logging.Errorf("%v", err)
	return 1
}

// NewRootCmd creates the root command. Running it without a subcommand
// starts the server.
func NewRootCmd() *cobra.Command {
	rt := &cliState{}
	cmd := &cobra.Command{
		Use:   "vecinity",
		Short: "Vecinity community reporting API",
		Long: `Vecinity serves the community reporting API: citizens file reports about
problems in their neighbourhood and administrators track them to resolution.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.serve(cmd)
		},
	}
	cmd.Version = versionString()

	cmd.PersistentFlags().StringVar(&rt.cfgFile, "config", "", "config file (default is ./vecinity.yaml or the user config dir)")
	cmd.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging, including database statements")
	cmd.PersistentFlags().Int(config.KeyPort, 0, "Port to listen on (overrides PORT)")

	cmd.AddCommand(
		newServeCmd(rt),
		newDBCmd(rt),
		newConfigCmd(rt),
		newVersionCmd(),
	)
	return cmd
}

func (rt *cliState) configPath(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") || rt.cfgFile == "" {
		return nil, nil
	}
	if _, err := os.Stat(rt.cfgFile); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	path := rt.cfgFile
	return &path, nil
}

// setup loads the configuration and initializes the ambient services.
func (rt *cliState) setup(cmd *cobra.Command) error {
	path, err := rt.configPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cmd, path)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	level := cfg.AppLogLevel
	if rt.verbose {
		level = "debug"
		db.SetDebug(true)
	}
	logging.Setup(level, cfg.Environment, os.Stderr)
	i18n.Init(cfg.Language)
	httperr.SetExposeCauses(!cfg.IsProduction())

	rt.cfg = cfg
	return nil
}

// openStore opens the configured database without touching it.
func (rt *cliState) openStore(ctx context.Context) (*db.Store, error) {
	c := rt.cfg
	return db.Open(ctx, c.Database.Type, c.DSN(), db.PoolOptions{
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	})
}
