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
	"time"

	errs "github.com/grepmarx/grepmarx/pkg/errors"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"gorm.io/gorm"
)

// CreateAnalysis persists a new analysis in pending state.
func (s *Store) CreateAnalysis(ctx context.Context, analysis *Analysis) error {
	if analysis.Status == "" {
		analysis.Status = schemas.AnalysisStatusPending
	}
	return s.db.WithContext(ctx).Create(analysis).Error
}

// GetAnalysis fetches an analysis with its findings preloaded.
func (s *Store) GetAnalysis(ctx context.Context, id uint) (*Analysis, error) {
	var analysis Analysis
	err := s.db.WithContext(ctx).
		Preload("RulePacks").
		Preload("Vulnerabilities.Occurrences").
		Preload("VulnerableDependencies").
		Preload("InspectorFeatures").
		First(&analysis, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "analysis %d not found", id)
		}
		return nil, err
	}
	return &analysis, nil
}

// LatestAnalysis returns the most recent analysis of a project, findings
// preloaded, or a not-found error when the project was never scanned.
func (s *Store) LatestAnalysis(ctx context.Context, projectID uint) (*Analysis, error) {
	var analysis Analysis
	err := s.db.WithContext(ctx).
		Preload("RulePacks").
		Preload("Vulnerabilities.Occurrences").
		Preload("VulnerableDependencies").
		Preload("InspectorFeatures").
		Where("project_id = ?", projectID).
		Order("created_at desc").
		First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "no analysis for project %d", projectID)
		}
		return nil, err
	}
	return &analysis, nil
}

// ListRecentAnalyses returns the latest analyses across all projects.
func (s *Store) ListRecentAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 10
	}
	var analyses []Analysis
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&analyses).Error
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

// MarkAnalysisStarted transitions a pending analysis to running.
func (s *Store) MarkAnalysisStarted(ctx context.Context, id uint) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&Analysis{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     schemas.AnalysisStatusRunning,
			"started_at": &now,
		}).Error
}

// MarkAnalysisFinished records the final status of an analysis.
// The error message is kept for display when the scan failed.
func (s *Store) MarkAnalysisFinished(ctx context.Context, id uint, status schemas.AnalysisStatus, errMsg string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&Analysis{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      status,
			"error":       errMsg,
			"finished_at": &now,
		}).Error
}

// CancelAnalysis marks a pending analysis as canceled. The update is
// conditional on the pending status, so a scan a worker picked up
// between the caller's read and this write is left untouched.
func (s *Store) CancelAnalysis(ctx context.Context, id uint) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&Analysis{}).
		Where("id = ? AND status = ?", id, schemas.AnalysisStatusPending).
		Updates(map[string]any{
			"status":      schemas.AnalysisStatusCanceled,
			"finished_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var analysis Analysis
		if err := s.db.WithContext(ctx).Select("id").First(&analysis, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.New(errs.TypeNotFound, err, "analysis %d not found", id)
			}
			return err
		}
		return errs.New(errs.TypeConflict, nil, "only pending analyses can be canceled")
	}
	return nil
}

// SaveFindings stores the scan results of an analysis in one transaction,
// replacing any findings left over from a previous run of the same analysis.
func (s *Store) SaveFindings(
	ctx context.Context,
	analysisID uint,
	vulns []Vulnerability,
	deps []VulnerableDependency,
	features []InspectorFeature,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteAnalysisRows(tx, analysisID); err != nil {
			return err
		}
		for i := range vulns {
			vulns[i].AnalysisID = analysisID
		}
		if len(vulns) > 0 {
			if err := tx.Create(&vulns).Error; err != nil {
				return err
			}
		}
		for i := range deps {
			deps[i].AnalysisID = analysisID
		}
		if len(deps) > 0 {
			if err := tx.Create(&deps).Error; err != nil {
				return err
			}
		}
		for i := range features {
			features[i].AnalysisID = analysisID
		}
		if len(features) > 0 {
			if err := tx.Create(&features).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateOccurrenceStatus sets the review status of a single occurrence.
func (s *Store) UpdateOccurrenceStatus(ctx context.Context, occurrenceID uint, status schemas.ReviewStatus) error {
	res := s.db.WithContext(ctx).Model(&Occurrence{}).
		Where("id = ?", occurrenceID).
		Update("review_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.New(errs.TypeNotFound, nil, "occurrence %d not found", occurrenceID)
	}
	return nil
}

// UpdateDependencyPrioritization sets the auditor-maintained triage bits
// of a vulnerable dependency.
func (s *Store) UpdateDependencyPrioritization(ctx context.Context, depID uint, hasPoC, reachable, vendorConfirmed, reachableAndExploitable bool) error {
	res := s.db.WithContext(ctx).Model(&VulnerableDependency{}).
		Where("id = ?", depID).
		Updates(map[string]any{
			"has_poc":                   hasPoC,
			"reachable":                 reachable,
			"vendor_confirmed":          vendorConfirmed,
			"reachable_and_exploitable": reachableAndExploitable,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.New(errs.TypeNotFound, nil, "dependency %d not found", depID)
	}
	return nil
}

// deleteAnalysisRows removes every finding attached to an analysis.
func deleteAnalysisRows(tx *gorm.DB, analysisID uint) error {
	var vulnIDs []uint
	if err := tx.Model(&Vulnerability{}).
		Where("analysis_id = ?", analysisID).
		Pluck("id", &vulnIDs).Error; err != nil {
		return err
	}
	if len(vulnIDs) > 0 {
		if err := tx.Where("vulnerability_id IN ?", vulnIDs).
			Delete(&Occurrence{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("analysis_id = ?", analysisID).
		Delete(&Vulnerability{}).Error; err != nil {
		return err
	}
	if err := tx.Where("analysis_id = ?", analysisID).
		Delete(&VulnerableDependency{}).Error; err != nil {
		return err
	}
	return tx.Where("analysis_id = ?", analysisID).
		Delete(&InspectorFeature{}).Error
}
