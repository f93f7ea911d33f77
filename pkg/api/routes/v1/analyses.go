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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/api/routes"
	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// StartAnalysis queues a scan of a project with the selected rule
// packs. The scan itself runs on the worker; the response only
// acknowledges the submission.
func StartAnalysis(s *store.Store, q *queue.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "StartAnalysis"))

		projectID, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		if !mustProjectAccess(c, s, projectID) {
			return
		}

		var req schemas.AnalysisRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		packs, err := s.ListRulePacksByIDs(c, req.RulePackIDs)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		if len(packs) != len(req.RulePackIDs) {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				"one or more rule packs do not exist",
			)
			return
		}

		taskID := uuid.New()
		analysis := &store.Analysis{
			ProjectID: projectID,
			TaskID:    taskID.String(),
		}
		for i := range packs {
			analysis.RulePacks = append(analysis.RulePacks, &packs[i])
		}
		if err := s.CreateAnalysis(c, analysis); err != nil {
			l.Error("unable to create analysis", zap.Uint("project_id", projectID), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		task := schemas.ScanTask{
			ID:         taskID,
			AnalysisID: analysis.ID,
			EnqueuedAt: time.Now().UTC(),
		}
		if err := q.Enqueue(c, task); err != nil {
			l.Error("unable to enqueue scan task", zap.Error(err))
			// the analysis stays visible with its error rather than
			// silently pending forever
			_ = s.MarkAnalysisFinished(c, analysis.ID, schemas.AnalysisStatusError, "unable to enqueue scan task")
			routes.WriteErr(c, err)
			return
		}

		l.Info("scan queued",
			zap.Uint("project_id", projectID),
			zap.Uint("analysis_id", analysis.ID),
			zap.String("task_id", taskID.String()))
		routes.WriteAcceptedResponse(c, schemas.AnalysisAcceptedResponse{
			AnalysisID: analysis.ID,
			TaskID:     taskID,
		})
	}
}

// GetAnalysis returns one analysis with its findings.
func GetAnalysis(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "analysisID")
		if !ok {
			return
		}
		analysis, err := s.GetAnalysis(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		if !mustProjectAccess(c, s, analysis.ProjectID) {
			return
		}
		routes.WriteSuccessResponse(c, analysis)
	}
}

// LatestAnalysis returns the most recent analysis of a project.
func LatestAnalysis(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		if !mustProjectAccess(c, s, projectID) {
			return
		}
		analysis, err := s.LatestAnalysis(c, projectID)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, analysis)
	}
}

// CancelAnalysis marks a pending analysis as canceled. A scan already
// picked up by a worker runs to completion.
func CancelAnalysis(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "CancelAnalysis"))

		id, ok := routes.MustIDParam(c, "analysisID")
		if !ok {
			return
		}
		analysis, err := s.GetAnalysis(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		if !mustProjectAccess(c, s, analysis.ProjectID) {
			return
		}
		// the conditional write resolves the race with a worker
		// picking the scan up after the access check above
		if err := s.CancelAnalysis(c, id); err != nil {
			routes.WriteErr(c, err)
			return
		}
		l.Info("analysis canceled", zap.Uint("analysis_id", id))
		routes.WriteSuccessResponse(c, nil)
	}
}

// UpdateOccurrenceStatus sets the triage state of one finding location.
func UpdateOccurrenceStatus(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		analysisID, ok := routes.MustIDParam(c, "analysisID")
		if !ok {
			return
		}
		occurrenceID, ok := routes.MustIDParam(c, "occurrenceID")
		if !ok {
			return
		}

		analysis, err := s.GetAnalysis(c, analysisID)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		if !mustProjectAccess(c, s, analysis.ProjectID) {
			return
		}
		if !analysisHasOccurrence(analysis, occurrenceID) {
			routes.WriteErrorResponse(c, http.StatusNotFound, schemas.ErrResourceNotFound, nil)
			return
		}

		var req schemas.OccurrenceStatusRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}
		if !schemas.ValidReviewStatus(req.Status) {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				"unknown review status",
			)
			return
		}

		if err := s.UpdateOccurrenceStatus(c, occurrenceID, req.Status); err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, nil)
	}
}

// UpdateDependencyPrioritization sets the triage bits of a vulnerable
// dependency.
func UpdateDependencyPrioritization(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		analysisID, ok := routes.MustIDParam(c, "analysisID")
		if !ok {
			return
		}
		dependencyID, ok := routes.MustIDParam(c, "dependencyID")
		if !ok {
			return
		}

		analysis, err := s.GetAnalysis(c, analysisID)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		if !mustProjectAccess(c, s, analysis.ProjectID) {
			return
		}
		if !analysisHasDependency(analysis, dependencyID) {
			routes.WriteErrorResponse(c, http.StatusNotFound, schemas.ErrResourceNotFound, nil)
			return
		}

		var req schemas.DependencyPrioritizationRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		err = s.UpdateDependencyPrioritization(c, dependencyID,
			req.HasPoC, req.Reachable, req.VendorConfirmed, req.ReachableAndExploitable)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, nil)
	}
}

// ListAnalysisDependencies returns the vulnerable dependencies of one
// analysis.
func ListAnalysisDependencies(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "analysisID")
		if !ok {
			return
		}
		analysis, err := s.GetAnalysis(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		if !mustProjectAccess(c, s, analysis.ProjectID) {
			return
		}
		routes.WriteSuccessResponse(c, analysis.VulnerableDependencies)
	}
}

// ListAnalysisFeatures returns the technologies discovered by the
// inspector pass of one analysis.
func ListAnalysisFeatures(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "analysisID")
		if !ok {
			return
		}
		analysis, err := s.GetAnalysis(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		if !mustProjectAccess(c, s, analysis.ProjectID) {
			return
		}
		routes.WriteSuccessResponse(c, analysis.InspectorFeatures)
	}
}

func analysisHasOccurrence(analysis *store.Analysis, occurrenceID uint) bool {
	for _, vuln := range analysis.Vulnerabilities {
		for _, occurrence := range vuln.Occurrences {
			if occurrence.ID == occurrenceID {
				return true
			}
		}
	}
	return false
}

func analysisHasDependency(analysis *store.Analysis, dependencyID uint) bool {
	for _, dep := range analysis.VulnerableDependencies {
		if dep.ID == dependencyID {
			return true
		}
	}
	return false
}
