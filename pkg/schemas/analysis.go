// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package schemas

import (
	"time"

	"github.com/google/uuid"
)

// TaskID identifies a queued scan task.
type TaskID = uuid.UUID

func ParseTaskID(id string) (TaskID, error) {
	return uuid.Parse(id)
}

// AnalysisStatus is the lifecycle status of an analysis.
type AnalysisStatus string

const (
	// AnalysisStatusPending means the analysis is queued but no worker
	// has picked it up yet.
	AnalysisStatusPending AnalysisStatus = "pending"
	// AnalysisStatusRunning means a worker is executing the scan.
	AnalysisStatusRunning AnalysisStatus = "running"
	// AnalysisStatusSuccess means the scan finished and results were stored.
	AnalysisStatusSuccess AnalysisStatus = "success"
	// AnalysisStatusError means the scan failed.
	AnalysisStatusError AnalysisStatus = "error"
	// AnalysisStatusCanceled means the scan was stopped before completion.
	AnalysisStatusCanceled AnalysisStatus = "canceled"
)

// ReviewStatus is the auditor triage state of a vulnerability occurrence.
type ReviewStatus string

const (
	ReviewStatusToReview      ReviewStatus = "to_review"
	ReviewStatusConfirmed     ReviewStatus = "confirmed"
	ReviewStatusFalsePositive ReviewStatus = "false_positive"
)

// ValidReviewStatus reports whether s is one of the known review states.
func ValidReviewStatus(s ReviewStatus) bool {
	switch s {
	case ReviewStatusToReview, ReviewStatusConfirmed, ReviewStatusFalsePositive:
		return true
	}
	return false
}

// Role is the role of a user account.
type Role string

const (
	// RoleAdmin may manage users, teams, rules and every project.
	RoleAdmin Role = "admin"
	// RoleAuditor may manage projects shared with one of their teams.
	RoleAuditor Role = "auditor"
)

// ScanTask is the envelope pushed on the redis queue for the worker.
type ScanTask struct {
	ID         TaskID    `json:"id"`
	AnalysisID uint      `json:"analysisID"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// ScanEvent is published on the event channel when a scan finishes,
// so dashboards can refresh without polling.
type ScanEvent struct {
	TaskID     TaskID         `json:"taskID"`
	AnalysisID uint           `json:"analysisID"`
	ProjectID  uint           `json:"projectID"`
	Status     AnalysisStatus `json:"status"`
	FinishedAt time.Time      `json:"finishedAt"`
}
