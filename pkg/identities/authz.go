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
	"strconv"

	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/schemas"
)

// Authorizer determines whether an identity may proceed with a request.
// Authorizers are combined with OR semantics by the middleware: the first
// one to return true grants access.
type Authorizer func(ctx context.Context, identity Identity) (bool, error)

// RoleAuthorizer authorizes identities carrying one of the given roles.
func RoleAuthorizer(roles ...schemas.Role) Authorizer {
	return func(_ context.Context, identity Identity) (bool, error) {
		for _, role := range roles {
			if identity.Role == role {
				return true, nil
			}
		}
		return false, nil
	}
}

// SelfAuthorizer authorizes a request whose path parameter id refers to
// the requesting user. The id is supplied by the caller at check time.
func SelfAuthorizer(param func(ctx context.Context) string) Authorizer {
	return func(ctx context.Context, identity Identity) (bool, error) {
		raw := param(ctx)
		if raw == "" {
			return false, nil
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return false, nil
		}
		return uint(id) == identity.UserID, nil
	}
}

// HasProjectAccess reports whether the identity may see the project.
// Admins see everything; other users need a team shared with the project.
func HasProjectAccess(ctx context.Context, s *store.Store, identity Identity, projectID uint) (bool, error) {
	if identity.IsAdmin() {
		return true, nil
	}

	userTeams, err := s.UserTeamIDs(ctx, identity.UserID)
	if err != nil {
		return false, err
	}
	if len(userTeams) == 0 {
		return false, nil
	}

	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return false, err
	}

	teamSet := make(map[uint]struct{}, len(userTeams))
	for _, id := range userTeams {
		teamSet[id] = struct{}{}
	}
	for _, team := range project.Teams {
		if _, ok := teamSet[team.ID]; ok {
			return true, nil
		}
	}
	return false, nil
}
