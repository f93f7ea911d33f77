// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package v1 provides the version 1 API routes for the Grepmarx application.
package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/api/middleware"
	"github.com/grepmarx/grepmarx/pkg/api/routes"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// Login authenticates a username/password pair and issues a session token.
func Login(s *store.Store, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "Login"))

		var req schemas.LoginRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		identity, err := identities.AuthenticatePassword(c, s, req.Username, req.Password)
		if err != nil {
			l.Info("failed login attempt", zap.String("username", req.Username))
			routes.WriteErrorResponse(c, http.StatusUnauthorized, schemas.ErrInvalidCredentials, nil)
			return
		}

		token, err := identities.IssueToken(identity, secret, ttl)
		if err != nil {
			l.Error("unable to issue token", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		l.Info("user logged in", zap.String("username", identity.Username))
		routes.WriteSuccessResponse(c, schemas.LoginResponse{
			Token:     token,
			ExpiresIn: int64(ttl.Seconds()),
			Username:  identity.Username,
			Role:      identity.Role,
		})
	}
}

// ChangePassword updates the password of the authenticated user after
// verifying the current one.
func ChangePassword(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "ChangePassword"))

		identity, exists := middleware.GetIdentity(c)
		if !exists {
			routes.WriteErrorResponse(c, http.StatusUnauthorized, schemas.ErrUnauthenticated, nil)
			return
		}

		var req schemas.ChangePasswordRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		if err := identities.ChangePassword(c, s, identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			l.Info("password change rejected", zap.String("username", identity.Username))
			routes.WriteErr(c, err)
			return
		}

		l.Info("password changed", zap.String("username", identity.Username))
		routes.WriteSuccessResponse(c, nil)
	}
}

// Whoami returns the identity carried by the session token.
func Whoami() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := middleware.GetIdentity(c)
		if !exists {
			routes.WriteErrorResponse(c, http.StatusUnauthorized, schemas.ErrUnauthenticated, nil)
			return
		}
		routes.WriteSuccessResponse(c, identity)
	}
}
