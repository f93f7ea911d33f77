// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package cmd

import (
	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "grepmarxctl",
	Short:         "Administrative command line for the grepmarx source audit platform",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openStore opens the configured database for a subcommand.
func openStore() (*store.Store, error) {
	return store.Open(config.State.Database.Type, config.State.Database.DSN)
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}
