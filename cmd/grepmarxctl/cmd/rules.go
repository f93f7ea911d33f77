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
	"github.com/grepmarx/grepmarx/pkg/rules"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Rule repository management",
}

var repoBranch string

var rulesAddCmd = &cobra.Command{
	Use:   "add <name> <uri>",
	Short: "Register a rule repository, clone it and sync its rules",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		repo := &store.RuleRepository{
			Name:   args[0],
			URI:    args[1],
			Branch: repoBranch,
		}
		if err := s.CreateRuleRepository(cmd.Context(), repo); err != nil {
			return err
		}
		rulesPath := config.State.Storage.RulesPath
		if err := rules.CloneRepository(cmd.Context(), s, rulesPath, repo); err != nil {
			return err
		}
		result, err := rules.Sync(cmd.Context(), s, rulesPath, repo)
		if err != nil {
			return err
		}

		zap.L().Info("rule repository added",
			zap.String("name", repo.Name),
			zap.Int("rules", result.Created+result.Updated))
		return nil
	},
}

var rulesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull and re-sync every registered rule repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		return rules.RefreshAll(cmd.Context(), s, config.State.Storage.RulesPath)
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a rule repository, its rules and its checkout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		return rules.RemoveRepository(cmd.Context(), s, config.State.Storage.RulesPath, args[0])
	},
}

func init() {
	rulesAddCmd.Flags().StringVar(&repoBranch, "branch", "", "branch to clone (default branch when empty)")

	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesSyncCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
}
