// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package cmd

import (
	"github.com/grepmarx/grepmarx/pkg/rules"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		if err := s.Migrate(); err != nil {
			return err
		}
		if err := s.SeedSupportedLanguages(cmd.Context(), rules.DefaultSupportedLanguages()); err != nil {
			return err
		}
		zap.L().Info("database migrated")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
}
