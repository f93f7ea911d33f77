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

	"github.com/grepmarx/grepmarx/pkg/schemas"
)

// CountProjects returns the total number of projects.
func (s *Store) CountProjects(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Project{}).Count(&count).Error
	return count, err
}

// CountRules returns the total number of synced rules.
func (s *Store) CountRules(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Rule{}).Count(&count).Error
	return count, err
}

// CountVulnerabilitiesBySeverity returns the number of findings per
// severity level across all analyses.
func (s *Store) CountVulnerabilitiesBySeverity(ctx context.Context) (map[schemas.Severity]int64, error) {
	var rows []struct {
		Severity schemas.Severity
		Total    int64
	}
	err := s.db.WithContext(ctx).Model(&Vulnerability{}).
		Select("severity, count(*) as total").
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	histogram := make(map[schemas.Severity]int64, len(rows))
	for _, row := range rows {
		histogram[row.Severity] = row.Total
	}
	return histogram, nil
}

// CountUnfinishedAnalyses returns the number of analyses still pending
// or running.
func (s *Store) CountUnfinishedAnalyses(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Analysis{}).
		Where("status IN ?", []schemas.AnalysisStatus{
			schemas.AnalysisStatusPending,
			schemas.AnalysisStatusRunning,
		}).
		Count(&count).Error
	return count, err
}
