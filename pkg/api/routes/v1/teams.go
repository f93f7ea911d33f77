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
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

func teamFromRequest(req schemas.TeamRequest) *store.Team {
	team := &store.Team{Name: req.Name}
	for _, memberID := range req.MemberIDs {
		team.Members = append(team.Members, &store.User{ID: memberID})
	}
	for _, projectID := range req.ProjectIDs {
		team.Projects = append(team.Projects, &store.Project{ID: projectID})
	}
	return team
}

// CreateTeam registers a new team with its members and projects.
func CreateTeam(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "CreateTeam"))

		var req schemas.TeamRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		team := teamFromRequest(req)
		if err := s.CreateTeam(c, team); err != nil {
			l.Warn("unable to create team", zap.String("name", req.Name), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		l.Info("team created", zap.String("name", team.Name))
		routes.WriteSuccessResponse(c, team)
	}
}

// ListTeams returns every team with its members.
func ListTeams(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		teams, err := s.ListTeams(c)
		if err != nil {
			zap.L().Error("unable to list teams", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, teams)
	}
}

// GetTeam returns one team by id.
func GetTeam(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		team, err := s.GetTeam(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, team)
	}
}

// UpdateTeam replaces the name, members and projects of a team.
func UpdateTeam(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "UpdateTeam"))

		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		var req schemas.TeamRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		if _, err := s.GetTeam(c, id); err != nil {
			routes.WriteErr(c, err)
			return
		}

		team := teamFromRequest(req)
		team.ID = id
		if err := s.UpdateTeam(c, team); err != nil {
			l.Error("unable to update team", zap.Uint("team_id", id), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		l.Info("team updated", zap.String("name", team.Name))
		routes.WriteSuccessResponse(c, team)
	}
}

// DeleteTeam removes a team, leaving its members and projects in place.
func DeleteTeam(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		if err := s.DeleteTeam(c, id); err != nil {
			routes.WriteErr(c, err)
			return
		}
		zap.L().Info("team deleted", zap.Uint("team_id", id))
		routes.WriteSuccessResponse(c, nil)
	}
}
