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
	"github.com/grepmarx/grepmarx/pkg/api/middleware"
	"github.com/grepmarx/grepmarx/pkg/api/routes"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// Dashboard returns the landing page summary: entity counts, queue
// backlog, the caller's projects with their risk levels, the severity
// histogram and the most recent analyses.
func Dashboard(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "Dashboard"))

		identity, ok := middleware.GetIdentity(c)
		if !ok {
			routes.WriteErrorResponse(c, http.StatusUnauthorized, schemas.ErrUnauthenticated, nil)
			return
		}

		projectCount, err := s.CountProjects(c)
		if err != nil {
			l.Error("unable to count projects", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}
		userCount, err := s.CountUsers(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		ruleCount, err := s.CountRules(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		pending, err := s.CountUnfinishedAnalyses(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		histogram, err := s.CountVulnerabilitiesBySeverity(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		recent, err := s.ListRecentAnalyses(c, 10)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}

		// the risk overview is scoped like the project list: admins
		// see everything, auditors their teams' projects
		var visible []store.Project
		if identity.IsAdmin() {
			visible, err = s.ListProjects(c)
		} else {
			var teamIDs []uint
			teamIDs, err = s.UserTeamIDs(c, identity.UserID)
			if err == nil {
				visible, err = s.ListProjectsForTeams(c, teamIDs)
			}
		}
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		summaries := make([]schemas.ProjectRiskSummary, 0, len(visible))
		for _, project := range visible {
			summaries = append(summaries, schemas.ProjectRiskSummary{
				ID:               project.ID,
				Name:             project.Name,
				RiskLevel:        project.RiskLevel,
				OccurrencesCount: project.OccurrencesCount,
			})
		}

		routes.WriteSuccessResponse(c, schemas.DashboardResponse{
			ProjectCount:      projectCount,
			UserCount:         userCount,
			RuleCount:         ruleCount,
			PendingScans:      pending,
			Projects:          summaries,
			SeverityHistogram: histogram,
			RecentAnalyses:    recent,
		})
	}
}

// GetLdapConfiguration returns the directory settings, bind password
// omitted.
func GetLdapConfiguration(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := s.GetLdapConfiguration(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, cfg)
	}
}

// UpdateLdapConfiguration replaces the directory settings.
func UpdateLdapConfiguration(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "UpdateLdapConfiguration"))

		var req schemas.LdapConfigurationRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		cfg, err := s.GetLdapConfiguration(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		cfg.Enabled = req.Enabled
		cfg.ServerHost = req.ServerHost
		cfg.ServerPort = req.ServerPort
		cfg.BindDN = req.BindDN
		if req.BindPassword != "" {
			cfg.BindPassword = req.BindPassword
		}
		cfg.BaseDN = req.BaseDN
		cfg.UsersApprovalRequired = req.UsersApprovalRequired
		cfg.UserObjectFilter = req.UserObjectFilter
		cfg.GroupObjectFilter = req.GroupObjectFilter

		if err := s.SaveLdapConfiguration(c, cfg); err != nil {
			l.Error("unable to save directory settings", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		l.Info("directory settings updated", zap.Bool("enabled", cfg.Enabled))
		routes.WriteSuccessResponse(c, cfg)
	}
}
