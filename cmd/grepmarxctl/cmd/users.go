// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package cmd

import (
	"fmt"

	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Account management",
}

var (
	userPassword string
	userEmail    string
	userRole     string
)

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a local account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := schemas.Role(userRole)
		if role != schemas.RoleAdmin && role != schemas.RoleAuditor {
			return fmt.Errorf("unknown role %q", userRole)
		}
		if userPassword == "" {
			return fmt.Errorf("a password is required")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		hash, err := identities.HashPassword(userPassword)
		if err != nil {
			return err
		}
		user := &store.User{
			Username:       args[0],
			Email:          userEmail,
			HashedPassword: hash,
			Role:           role,
		}
		if err := s.CreateUser(cmd.Context(), user); err != nil {
			return err
		}

		zap.L().Info("user created",
			zap.String("username", user.Username),
			zap.String("role", string(user.Role)))
		return nil
	},
}

var usersResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Set a new password for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userPassword == "" {
			return fmt.Errorf("a password is required")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		user, err := s.GetUserByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		hash, err := identities.HashPassword(userPassword)
		if err != nil {
			return err
		}
		user.HashedPassword = hash
		if err := s.UpdateUser(cmd.Context(), user); err != nil {
			return err
		}

		zap.L().Info("password reset", zap.String("username", user.Username))
		return nil
	},
}

func init() {
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "password for the account")
	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	usersCreateCmd.Flags().StringVar(&userRole, "role", string(schemas.RoleAuditor), "account role (admin or auditor)")
	usersResetPasswordCmd.Flags().StringVar(&userPassword, "password", "", "new password for the account")

	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersResetPasswordCmd)
}
