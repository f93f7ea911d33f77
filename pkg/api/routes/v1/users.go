// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/api/routes"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// CreateUser registers a new local account.
func CreateUser(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "CreateUser"))

		var req schemas.UserRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}
		if req.Password == "" {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				"password is required",
			)
			return
		}
		role := req.Role
		if role == "" {
			role = schemas.RoleAuditor
		}

		hash, err := identities.HashPassword(req.Password)
		if err != nil {
			l.Error("unable to hash password", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		user := &store.User{
			Username:       req.Username,
			Email:          req.Email,
			HashedPassword: hash,
			Role:           role,
		}
		for _, teamID := range req.TeamIDs {
			user.Teams = append(user.Teams, &store.Team{ID: teamID})
		}

		if err := s.CreateUser(c, user); err != nil {
			l.Warn("unable to create user", zap.String("username", req.Username), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		l.Info("user created", zap.String("username", user.Username))
		routes.WriteSuccessResponse(c, user)
	}
}

// ListUsers returns every account.
func ListUsers(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.ListUsers(c)
		if err != nil {
			zap.L().Error("unable to list users", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, users)
	}
}

// GetUser returns one account by id.
func GetUser(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		user, err := s.GetUser(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, user)
	}
}

// UpdateUser modifies an account: email, role, team memberships and
// optionally the password.
func UpdateUser(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "UpdateUser"))

		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		var req schemas.UserRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		user, err := s.GetUser(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}

		user.Username = req.Username
		user.Email = req.Email
		if req.Role != "" {
			user.Role = req.Role
		}
		if req.Password != "" {
			hash, err := identities.HashPassword(req.Password)
			if err != nil {
				routes.WriteErr(c, err)
				return
			}
			user.HashedPassword = hash
		}
		user.Teams = user.Teams[:0]
		for _, teamID := range req.TeamIDs {
			user.Teams = append(user.Teams, &store.Team{ID: teamID})
		}

		if err := s.UpdateUser(c, user); err != nil {
			l.Error("unable to update user", zap.Uint("user_id", id), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		l.Info("user updated", zap.String("username", user.Username))
		routes.WriteSuccessResponse(c, user)
	}
}

// DeleteUser removes an account.
func DeleteUser(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		if err := s.DeleteUser(c, id); err != nil {
			routes.WriteErr(c, err)
			return
		}
		zap.L().Info("user deleted", zap.Uint("user_id", id))
		routes.WriteSuccessResponse(c, nil)
	}
}
