// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/projects"
	"github.com/grepmarx/grepmarx/pkg/rules"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// Runner executes one scan task end to end: line counting, the
// pattern-matching pass driven by the analysis' rule packs, the
// dependency pass and the feature-discovery pass.
type Runner struct {
	store        *store.Store
	projectsPath string
	rulesPath    string

	semgrep         config.ScannerConfig
	scc             config.ScannerConfig
	dependencyCheck config.ScannerConfig
	appInspector    config.ScannerConfig
}

// NewRunner builds a Runner from the global configuration.
func NewRunner(s *store.Store, cfg *config.Config) *Runner {
	return &Runner{
		store:           s,
		projectsPath:    cfg.Storage.ProjectsPath,
		rulesPath:       cfg.Storage.RulesPath,
		semgrep:         cfg.Scanners.Semgrep,
		scc:             cfg.Scanners.Scc,
		dependencyCheck: cfg.Scanners.DependencyCheck,
		appInspector:    cfg.Scanners.AppInspector,
	}
}

// Execute runs the scan task and returns the completion event to
// publish. The pattern-matching pass is mandatory: its failure fails
// the scan. The dependency and feature passes degrade, their findings
// are simply absent when the tools fail.
func (r *Runner) Execute(ctx context.Context, task schemas.ScanTask) schemas.ScanEvent {
	event := schemas.ScanEvent{
		TaskID:     task.ID,
		AnalysisID: task.AnalysisID,
	}

	analysis, err := r.store.GetAnalysis(ctx, task.AnalysisID)
	if err != nil {
		zap.L().Error("scan task references unknown analysis",
			zap.String("task_id", task.ID.String()),
			zap.Uint("analysis_id", task.AnalysisID),
			zap.Error(err))
		event.Status = schemas.AnalysisStatusError
		event.FinishedAt = time.Now().UTC()
		return event
	}
	event.ProjectID = analysis.ProjectID

	if analysis.Status == schemas.AnalysisStatusCanceled {
		zap.L().Info("skipping canceled analysis",
			zap.Uint("analysis_id", analysis.ID))
		event.Status = schemas.AnalysisStatusCanceled
		event.FinishedAt = time.Now().UTC()
		return event
	}

	if err := r.store.MarkAnalysisStarted(ctx, analysis.ID); err != nil {
		zap.L().Error("unable to mark analysis started", zap.Error(err))
	}

	status, errMsg := r.run(ctx, analysis)
	if err := r.store.MarkAnalysisFinished(ctx, analysis.ID, status, errMsg); err != nil {
		zap.L().Error("unable to mark analysis finished", zap.Error(err))
	}

	event.Status = status
	event.FinishedAt = time.Now().UTC()
	return event
}

func (r *Runner) run(ctx context.Context, analysis *store.Analysis) (schemas.AnalysisStatus, string) {
	logger := zap.L().With(
		zap.Uint("analysis_id", analysis.ID),
		zap.Uint("project_id", analysis.ProjectID),
	)

	project, err := r.store.GetProject(ctx, analysis.ProjectID)
	if err != nil {
		return schemas.AnalysisStatusError, fmt.Sprintf("project lookup failed: %v", err)
	}

	sourceDir := projects.SourceDir(r.projectsPath, project.ID)
	if _, err := os.Stat(sourceDir); err != nil {
		// the archive outlives the extraction, re-extract when the
		// source tree is gone
		archive := projects.ArchivePath(r.projectsPath, project.ID)
		if _, err := projects.ExtractArchive(archive, sourceDir); err != nil {
			return schemas.AnalysisStatusError, fmt.Sprintf("unable to extract archive: %v", err)
		}
	}

	scratchDir, err := os.MkdirTemp("", "grepmarx-scan-")
	if err != nil {
		return schemas.AnalysisStatusError, fmt.Sprintf("unable to create scratch directory: %v", err)
	}
	defer func() { _ = os.RemoveAll(scratchDir) }()

	var degraded *multierror.Error

	counts, err := projects.CountLines(ctx, r.scc.Path, r.scc.Timeout, sourceDir)
	if err != nil {
		logger.Warn("line counting failed", zap.Error(err))
		degraded = multierror.Append(degraded, err)
		counts = project.LinesCount
	} else if err := r.store.SaveProjectLinesCount(ctx, project.ID, counts); err != nil {
		logger.Error("unable to save lines count", zap.Error(err))
		degraded = multierror.Append(degraded, err)
	}

	var packIDs []uint
	for _, pack := range analysis.RulePacks {
		packIDs = append(packIDs, pack.ID)
	}
	rulesDir := filepath.Join(scratchDir, "rules")
	if _, err := rules.ExportPackRules(ctx, r.store, r.rulesPath, rulesDir, packIDs); err != nil {
		return schemas.AnalysisStatusError, fmt.Sprintf("unable to export rule packs: %v", err)
	}

	vulns, err := runSAST(ctx, r.semgrep, rulesDir, sourceDir)
	if err != nil {
		return schemas.AnalysisStatusError, fmt.Sprintf("rule engine failed: %v", err)
	}
	logger.Info("pattern-matching pass finished", zap.Int("vulnerabilities", len(vulns)))

	deps, err := runSCA(ctx, r.dependencyCheck, sourceDir, scratchDir)
	if err != nil {
		logger.Warn("dependency pass failed", zap.Error(err))
		degraded = multierror.Append(degraded, err)
	} else {
		logger.Info("dependency pass finished", zap.Int("advisories", len(deps)))
	}

	features, err := runInspector(ctx, r.appInspector, sourceDir, scratchDir)
	if err != nil {
		logger.Warn("feature-discovery pass failed", zap.Error(err))
		degraded = multierror.Append(degraded, err)
	} else {
		logger.Info("feature-discovery pass finished", zap.Int("features", len(features)))
	}

	if err := r.store.SaveFindings(ctx, analysis.ID, vulns, deps, features); err != nil {
		return schemas.AnalysisStatusError, fmt.Sprintf("unable to save findings: %v", err)
	}

	scored := &store.Analysis{
		Vulnerabilities:        vulns,
		VulnerableDependencies: deps,
	}
	project.RiskLevel = projects.ComputeRiskLevel(scored, counts)
	project.OccurrencesCount = projects.CountOccurrences(scored)
	if err := r.store.UpdateProject(ctx, project); err != nil {
		logger.Error("unable to update project score", zap.Error(err))
		degraded = multierror.Append(degraded, err)
	}

	// degraded passes keep the scan successful, but their joined error
	// is persisted so clients can tell a partial scan from a clean one
	if err := degraded.ErrorOrNil(); err != nil {
		logger.Warn("scan finished with degraded passes", zap.Error(err))
		return schemas.AnalysisStatusSuccess, err.Error()
	}
	return schemas.AnalysisStatusSuccess, ""
}
