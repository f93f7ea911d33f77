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
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/api/middleware"
	"github.com/grepmarx/grepmarx/pkg/api/routes"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/projects"
	"github.com/grepmarx/grepmarx/pkg/rules"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// CreateProject accepts a multipart upload with a "name" field and an
// "archive" zip file, validates and extracts the archive and registers
// the project.
func CreateProject(s *store.Store, projectsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "CreateProject"))

		identity, exists := middleware.GetIdentity(c)
		if !exists {
			routes.WriteErrorResponse(c, http.StatusUnauthorized, schemas.ErrUnauthenticated, nil)
			return
		}

		name := c.PostForm("name")
		if name == "" {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				"name is required",
			)
			return
		}

		upload, err := c.FormFile("archive")
		if err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				"archive file is required",
			)
			return
		}

		// stage the upload outside the projects tree until it is validated
		staging, err := os.CreateTemp("", "grepmarx-upload-")
		if err != nil {
			l.Error("unable to create staging file", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}
		stagingPath := staging.Name()
		_ = staging.Close()
		defer func() { _ = os.Remove(stagingPath) }()

		if err := c.SaveUploadedFile(upload, stagingPath); err != nil {
			l.Error("unable to save upload", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		if err := projects.ValidateArchive(stagingPath); err != nil {
			l.Info("invalid archive uploaded", zap.String("name", name), zap.Error(err))
			routes.WriteErrorResponse(c, http.StatusBadRequest, schemas.ErrInvalidArchive, err.Error())
			return
		}

		sha, err := projects.HashArchive(stagingPath)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}

		teamIDs, err := rules.ParseIDList(c.PostForm("teamIDs"))
		if err != nil {
			routes.WriteErr(c, err)
			return
		}

		project := &store.Project{
			Name:            name,
			CreatorID:       identity.UserID,
			ArchiveFilename: filepath.Base(upload.Filename),
			ArchiveSHA256:   sha,
		}
		for _, teamID := range teamIDs {
			project.Teams = append(project.Teams, &store.Team{ID: teamID})
		}
		if err := s.CreateProject(c, project); err != nil {
			l.Warn("unable to create project", zap.String("name", name), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		archivePath := projects.ArchivePath(projectsPath, project.ID)
		if err := os.MkdirAll(filepath.Dir(archivePath), 0o750); err != nil {
			routes.WriteErr(c, err)
			return
		}
		if err := moveFile(stagingPath, archivePath); err != nil {
			l.Error("unable to store archive", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		sourceDir := projects.SourceDir(projectsPath, project.ID)
		if _, err := projects.ExtractArchive(archivePath, sourceDir); err != nil {
			l.Warn("unable to extract archive", zap.Uint("project_id", project.ID), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		l.Info("project created",
			zap.String("name", project.Name),
			zap.Uint("project_id", project.ID),
			zap.String("sha256", sha))
		routes.WriteSuccessResponse(c, project)
	}
}

// ListProjects returns the projects the requesting user may see:
// everything for admins, team-shared projects for auditors.
func ListProjects(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := middleware.GetIdentity(c)
		if !exists {
			routes.WriteErrorResponse(c, http.StatusUnauthorized, schemas.ErrUnauthenticated, nil)
			return
		}

		if identity.IsAdmin() {
			all, err := s.ListProjects(c)
			if err != nil {
				routes.WriteErr(c, err)
				return
			}
			routes.WriteSuccessResponse(c, all)
			return
		}

		teamIDs, err := s.UserTeamIDs(c, identity.UserID)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		shared, err := s.ListProjectsForTeams(c, teamIDs)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, shared)
	}
}

// GetProject returns one project, enforcing team access.
func GetProject(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		if !mustProjectAccess(c, s, id) {
			return
		}
		project, err := s.GetProject(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, project)
	}
}

// ProjectLanguages returns the project's languages ordered by code
// volume, as counted by the last scan.
func ProjectLanguages(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		if !mustProjectAccess(c, s, id) {
			return
		}
		project, err := s.GetProject(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		counts := project.LinesCount
		limit := 0
		if counts != nil {
			limit = len(counts.LanguageLinesCounts)
		}
		routes.WriteSuccessResponse(c, projects.TopLanguages(counts, limit))
	}
}

// DeleteProject removes the project rows and its on-disk folder.
func DeleteProject(s *store.Store, projectsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "DeleteProject"))

		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		if !mustProjectAccess(c, s, id) {
			return
		}
		if err := s.DeleteProject(c, id); err != nil {
			routes.WriteErr(c, err)
			return
		}
		if err := os.RemoveAll(projects.Dir(projectsPath, id)); err != nil {
			l.Error("unable to remove project folder", zap.Uint("project_id", id), zap.Error(err))
		}
		l.Info("project deleted", zap.Uint("project_id", id))
		routes.WriteSuccessResponse(c, nil)
	}
}

// mustProjectAccess enforces team access to a project, writing the
// error response when access is denied.
func mustProjectAccess(c *gin.Context, s *store.Store, projectID uint) bool {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		routes.WriteErrorResponse(c, http.StatusUnauthorized, schemas.ErrUnauthenticated, nil)
		return false
	}
	allowed, err := identities.HasProjectAccess(c, s, identity, projectID)
	if err != nil {
		routes.WriteErr(c, err)
		return false
	}
	if !allowed {
		zap.L().Debug("project access denied",
			zap.String("username", identity.Username),
			zap.Uint("project_id", projectID))
		routes.WriteErrorResponse(c, http.StatusForbidden, schemas.ErrUnauthorized, nil)
		return false
	}
	return true
}

// moveFile renames when possible and falls back to copying across
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o640)
}
