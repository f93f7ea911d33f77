// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grepmarx/grepmarx/pkg/api/routes"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// BearerAuthenticator is a gin middleware that authenticates the user using a bearer token.
// It checks the "Authorization" header for a signed session token and verifies it.
// If the token is valid, it sets the identity key in the context with the user information.
// If the token is invalid, it returns a 401 Unauthorized response.
func BearerAuthenticator(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L()

		_, exists := GetIdentity(c)
		if exists {
			l.Debug("identity already set for request")
			return // return if already set
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			routes.WriteErrorResponse(c, http.StatusUnauthorized, schemas.ErrUnauthenticated, nil)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			l.Debug("invalid authorization header")
			routes.WriteErrorResponse(c, http.StatusBadRequest, schemas.ErrInvalidAuthenticationHeader, nil)
			return
		}
		token := parts[1]

		identity, err := identities.VerifyToken(token, secret)
		if err != nil {
			l.Debug("could not authenticate token", zap.Error(err))
			routes.WriteErrorResponse(
				c,
				http.StatusUnauthorized,
				schemas.ErrInvalidTokenHeader,
				nil,
			)
			return
		}

		SetIdentity(c, identity)
	}
}
