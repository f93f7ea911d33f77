// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package identities

import (
	"context"

	"github.com/grepmarx/grepmarx/internal/store"
	errs "github.com/grepmarx/grepmarx/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// AuthenticatePassword verifies a username/password pair against the
// store and returns the identity of the user. A missing user and a wrong
// password are indistinguishable to the caller.
func AuthenticatePassword(ctx context.Context, s *store.Store, username, password string) (Identity, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return Identity{}, errs.New(errs.TypeUnauthorized, err, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return Identity{}, errs.New(errs.TypeUnauthorized, err, "invalid credentials")
	}

	return Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// ChangePassword re-hashes and stores a new password after verifying
// the current one.
func ChangePassword(ctx context.Context, s *store.Store, userID uint, current, updated string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(current)); err != nil {
		return errs.New(errs.TypeUnauthorized, err, "current password does not match")
	}
	hash, err := HashPassword(updated)
	if err != nil {
		return err
	}
	user.HashedPassword = hash
	return s.UpdateUser(ctx, user)
}
