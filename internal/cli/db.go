// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vecinity/vecinity-api/internal/db"
)

func newDBCmd(rt *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database administration",
	}

	var force bool
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Create missing tables",
		Long: `Create the tables the API needs when they do not exist yet.

With --force every table is dropped and recreated first. This destroys all data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(cmd, 0, func(ctx context.Context, s *db.Store) error {
				if err := s.SyncAllModels(ctx, force); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema synchronized")
				return nil
			})
		},
	}
	syncCmd.Flags().BoolVar(&force, "force", false, "Drop and recreate every table (destroys data)")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default categories that are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(cmd, 0, func(ctx context.Context, s *db.Store) error {
				if err := s.CreateInitialData(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "initial data ready")
				return nil
			})
		},
	}

	var timeout int
	maintainCmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run engine-specific maintenance (VACUUM, ANALYZE, OPTIMIZE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(cmd, time.Duration(timeout)*time.Second, func(ctx context.Context, s *db.Store) error {
				if err := s.RunMaintenance(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "maintenance complete")
				return nil
			})
		},
	}
	maintainCmd.Flags().IntVar(&timeout, "timeout", 0, "Timeout in seconds for maintenance (0 means no timeout)")

	cmd.AddCommand(syncCmd, seedCmd, maintainCmd)
	return cmd
}

// withStore opens the database, checks connectivity and runs fn.
func (rt *cliState) withStore(cmd *cobra.Command, timeout time.Duration, fn func(context.Context, *db.Store) error) error {
	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	s, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	if err := s.TestConnection(ctx); err != nil {
		return err
	}
	return fn(ctx, s)
}
