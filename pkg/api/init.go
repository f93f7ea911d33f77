// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package api provides the HTTP API server for the Grepmarx application.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/api/middleware"
	"github.com/grepmarx/grepmarx/pkg/api/routes"
	routesV1 "github.com/grepmarx/grepmarx/pkg/api/routes/v1"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/schemas"
)

// InitializeEngine initializes the gin engine and sets up the routes.
// All routes (aside from [routes.Health], [routes.Version] and the
// login endpoint) are protected by authentication and authorization
// middleware.
func InitializeEngine(s *store.Store, q *queue.Client, feed *EventFeed) (*gin.Engine, error) {
	if config.IsEnvironmentIn(config.EnvProduction, config.EnvStaging) {
		gin.SetMode(gin.ReleaseMode)
	}

	authCfg := config.State.Auth
	storageCfg := config.State.Storage

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", routes.Health())
	router.GET("/version", routes.Version(config.Version, config.BuildTime, config.Commit))

	api := router.Group("/api")
	v1 := api.Group("/v1")

	v1.POST("/auth/login", routesV1.Login(s, authCfg.JWTSecret, authCfg.TokenTTL))

	authed := v1.Group("")
	authed.Use(
		// authenticate the user with their bearer token
		middleware.BearerAuthenticator(authCfg.JWTSecret),
	)
	{
		authed.GET("/auth/whoami", routesV1.Whoami())
		authed.POST("/auth/password", routesV1.ChangePassword(s))

		authed.GET("/dashboard", routesV1.Dashboard(s))

		adminOnly := middleware.AuthorizeIdentity(
			identities.RoleAuthorizer(schemas.RoleAdmin),
		)
		anyRole := middleware.AuthorizeIdentity(
			identities.RoleAuthorizer(schemas.RoleAdmin, schemas.RoleAuditor),
		)

		// recent scan completion events, polled by the dashboard
		authed.GET("/events", anyRole, func(c *gin.Context) {
			routes.WriteSuccessResponse(c, feed.Recent())
		})

		users := authed.Group("/users")
		{
			users.POST("", adminOnly, routesV1.CreateUser(s))
			users.GET("", adminOnly, routesV1.ListUsers(s))
			users.GET("/:id", adminOnly, routesV1.GetUser(s))
			users.PUT("/:id", adminOnly, routesV1.UpdateUser(s))
			users.DELETE("/:id", adminOnly, routesV1.DeleteUser(s))
		}

		teams := authed.Group("/teams")
		{
			teams.POST("", adminOnly, routesV1.CreateTeam(s))
			teams.GET("", adminOnly, routesV1.ListTeams(s))
			teams.GET("/:id", adminOnly, routesV1.GetTeam(s))
			teams.PUT("/:id", adminOnly, routesV1.UpdateTeam(s))
			teams.DELETE("/:id", adminOnly, routesV1.DeleteTeam(s))
		}

		ldap := authed.Group("/ldap")
		{
			ldap.GET("", adminOnly, routesV1.GetLdapConfiguration(s))
			ldap.PUT("", adminOnly, routesV1.UpdateLdapConfiguration(s))
		}

		// project access beyond the role check is enforced per-project
		// inside the handlers, based on team membership
		projects := authed.Group("/projects")
		{
			projects.POST("", anyRole, routesV1.CreateProject(s, storageCfg.ProjectsPath))
			projects.GET("", anyRole, routesV1.ListProjects(s))
			projects.GET("/:id", anyRole, routesV1.GetProject(s))
			projects.DELETE("/:id", anyRole, routesV1.DeleteProject(s, storageCfg.ProjectsPath))

			projects.GET("/:id/languages", anyRole, routesV1.ProjectLanguages(s))

			projects.POST("/:id/analyses", anyRole, routesV1.StartAnalysis(s, q))
			projects.GET("/:id/analyses/latest", anyRole, routesV1.LatestAnalysis(s))
		}

		analyses := authed.Group("/analyses")
		{
			analyses.GET("/:analysisID", anyRole, routesV1.GetAnalysis(s))
			analyses.GET("/:analysisID/dependencies", anyRole, routesV1.ListAnalysisDependencies(s))
			analyses.GET("/:analysisID/features", anyRole, routesV1.ListAnalysisFeatures(s))
			analyses.POST("/:analysisID/cancel", anyRole, routesV1.CancelAnalysis(s))
			analyses.PATCH(
				"/:analysisID/occurrences/:occurrenceID",
				anyRole,
				routesV1.UpdateOccurrenceStatus(s),
			)
			analyses.PATCH(
				"/:analysisID/dependencies/:dependencyID",
				anyRole,
				routesV1.UpdateDependencyPrioritization(s),
			)
		}

		// rules, repositories and packs are separate groups: a static
		// segment cannot share a position with a :id wildcard in gin's
		// routing tree
		authed.GET("/languages", anyRole, routesV1.ListLanguages(s))

		rules := authed.Group("/rules")
		{
			rules.GET("", anyRole, routesV1.ListRules(s))
			rules.GET("/:id", anyRole, routesV1.GetRule(s))
		}

		repos := authed.Group("/repositories")
		{
			repos.POST("", adminOnly, routesV1.CreateRuleRepository(s, storageCfg.RulesPath))
			repos.GET("", anyRole, routesV1.ListRuleRepositories(s))
			repos.POST("/:name/sync", adminOnly, routesV1.SyncRuleRepository(s, storageCfg.RulesPath))
			repos.DELETE("/:name", adminOnly, routesV1.DeleteRuleRepository(s, storageCfg.RulesPath))
		}

		packs := authed.Group("/rulepacks")
		{
			packs.POST("", adminOnly, routesV1.CreateRulePack(s))
			packs.GET("", anyRole, routesV1.ListRulePacks(s))
			packs.GET("/:id", anyRole, routesV1.GetRulePack(s))
			packs.PUT("/:id", adminOnly, routesV1.UpdateRulePack(s))
			packs.DELETE("/:id", adminOnly, routesV1.DeleteRulePack(s))
		}
	}

	return router, nil
}
