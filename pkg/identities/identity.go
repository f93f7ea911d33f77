// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package identities provides the [Identity] type which represents an
// authenticated user of the application. It provides password
// verification against the store, signed session tokens, and the
// [Authorizer] functions used by the API middleware to gate routes.
package identities

import "github.com/grepmarx/grepmarx/pkg/schemas"

// Identity represents the identity of an authenticated user.
type Identity struct {
	UserID   uint
	Username string
	Role     schemas.Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == schemas.RoleAdmin
}
