// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package store

import (
	"context"
	"errors"

	errs "github.com/grepmarx/grepmarx/pkg/errors"
	"gorm.io/gorm"
)

// CreateProject persists a new project.
func (s *Store) CreateProject(ctx context.Context, project *Project) error {
	err := s.db.WithContext(ctx).Create(project).Error
	if err != nil {
		if isUniqueViolation(err) {
			return errs.New(errs.TypeConflict, err, "project %q already exists", project.Name)
		}
		return err
	}
	return nil
}

// GetProject fetches a project with its lines count and teams preloaded.
func (s *Store) GetProject(ctx context.Context, id uint) (*Project, error) {
	var project Project
	err := s.db.WithContext(ctx).
		Preload("LinesCount.LanguageLinesCounts").
		Preload("Teams").
		First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "project %d not found", id)
		}
		return nil, err
	}
	return &project, nil
}

// ListProjects returns every project, most recent first.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	err := s.db.WithContext(ctx).
		Preload("LinesCount").
		Order("created_at desc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// ListProjectsForTeams returns the projects shared with any of the given
// teams, most recent first. Non-admin users see only these.
func (s *Store) ListProjectsForTeams(ctx context.Context, teamIDs []uint) ([]Project, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	var projects []Project
	err := s.db.WithContext(ctx).
		Preload("LinesCount").
		Joins("JOIN team_projects ON team_projects.project_id = projects.id").
		Where("team_projects.team_id IN ?", teamIDs).
		Group("projects.id").
		Order("created_at desc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject saves changes to an existing project.
func (s *Store) UpdateProject(ctx context.Context, project *Project) error {
	return s.db.WithContext(ctx).Save(project).Error
}

// SaveProjectLinesCount replaces the lines count of a project.
func (s *Store) SaveProjectLinesCount(ctx context.Context, projectID uint, lc *ProjectLinesCount) error {
	lc.ProjectID = projectID
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing ProjectLinesCount
		err := tx.Where("project_id = ?", projectID).First(&existing).Error
		if err == nil {
			if err := tx.Where("project_lines_count_id = ?", existing.ID).
				Delete(&LanguageLinesCount{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(lc).Error
	})
}

// DeleteProject removes the project and everything hanging off it.
// The caller is responsible for removing the on-disk folder.
func (s *Store) DeleteProject(ctx context.Context, id uint) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		analyses, err := s.listAnalysisIDs(tx, id)
		if err != nil {
			return err
		}
		for _, analysisID := range analyses {
			if err := deleteAnalysisRows(tx, analysisID); err != nil {
				return err
			}
		}
		if len(analyses) > 0 {
			if err := tx.Exec("DELETE FROM analysis_rule_packs WHERE analysis_id IN ?", analyses).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", analyses).Delete(&Analysis{}).Error; err != nil {
				return err
			}
		}
		if project.LinesCount != nil {
			if err := tx.Where("project_lines_count_id = ?", project.LinesCount.ID).
				Delete(&LanguageLinesCount{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(project.LinesCount).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(project).Association("Teams").Clear(); err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}

func (s *Store) listAnalysisIDs(tx *gorm.DB, projectID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&Analysis{}).
		Where("project_id = ?", projectID).
		Pluck("id", &ids).Error
	return ids, err
}
