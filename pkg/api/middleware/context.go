// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package middleware provides middleware for the Grepmarx API.
// It includes authentication, authorization, and other middleware.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/grepmarx/grepmarx/pkg/identities"
)

const identityKey = "identity"

// SetIdentity stores the authenticated identity on the request context.
func SetIdentity(c *gin.Context, identity identities.Identity) {
	c.Set(identityKey, identity)
}

// GetIdentity retrieves the identity from the context.
func GetIdentity(c *gin.Context) (identities.Identity, bool) {
	identity, exists := c.Get(identityKey)
	if !exists {
		return identities.Identity{}, false
	}
	return identity.(identities.Identity), true
}
