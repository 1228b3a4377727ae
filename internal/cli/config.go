// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vecinity/vecinity-api/internal/config"
)

func newConfigCmd(rt *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	var out string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out != "" {
				if err := config.Write(rt.cfg, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", out)
				return nil
			}
			data, err := config.Marshal(rt.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	dumpCmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")

	cmd.AddCommand(dumpCmd)
	return cmd
}
