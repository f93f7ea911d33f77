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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/projects"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub drops an executable shell script standing in for one of the
// external scanner binaries.
func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o750))
	return path
}

type runnerFixture struct {
	store    *store.Store
	cfg      config.Config
	analysis *store.Analysis
	project  *store.Project
}

// newRunnerFixture seeds a project with an extracted source tree, one
// rule pack backed by an on-disk rule file, and a pending analysis.
// Scanner paths default to well-behaved stubs reporting no findings.
func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(store.DBTypeSQLite, "")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })

	projectsPath := t.TempDir()
	rulesPath := t.TempDir()
	binDir := t.TempDir()

	project := &store.Project{Name: "stub-scan"}
	require.NoError(t, s.CreateProject(ctx, project))
	sourceDir := projects.SourceDir(projectsPath, project.ID)
	require.NoError(t, os.MkdirAll(sourceDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "main.py"), []byte("print('hi')\n"), 0o640))

	repo := &store.RuleRepository{Name: "community", URI: "https://example.com/community.git"}
	require.NoError(t, s.CreateRuleRepository(ctx, repo))
	rulePath := "community/security/sql.yaml"
	require.NoError(t, os.MkdirAll(filepath.Join(rulesPath, filepath.Dir(rulePath)), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(rulesPath, rulePath), []byte("rules: []\n"), 0o640))
	rule := &store.Rule{Title: "sql", FilePath: rulePath, RuleRepositoryID: repo.ID}
	require.NoError(t, s.SaveRule(ctx, rule))
	pack := &store.RulePack{Name: "default", Rules: []*store.Rule{rule}}
	require.NoError(t, s.CreateRulePack(ctx, pack))

	analysis := &store.Analysis{ProjectID: project.ID, RulePacks: []*store.RulePack{pack}}
	require.NoError(t, s.CreateAnalysis(ctx, analysis))

	var cfg config.Config
	cfg.Storage.ProjectsPath = projectsPath
	cfg.Storage.RulesPath = rulesPath
	timeout := 30 * time.Second
	cfg.Scanners.Scc = config.ScannerConfig{
		Path:    writeStub(t, binDir, "scc", `printf '[{"Name":"Python","Count":1,"Lines":1,"Code":1}]'`),
		Timeout: timeout,
	}
	cfg.Scanners.Semgrep = config.ScannerConfig{
		Path:    writeStub(t, binDir, "semgrep", `printf '{"results":[]}'`),
		Timeout: timeout,
	}
	// args: --scan <src> --format JSON --out <dir> --noupdate
	cfg.Scanners.DependencyCheck = config.ScannerConfig{
		Path:    writeStub(t, binDir, "dependency-check", `printf '{"dependencies":[]}' > "$6"/dependency-check-report.json`),
		Timeout: timeout,
	}
	// args: analyze -s <src> -f json -o <report>
	cfg.Scanners.AppInspector = config.ScannerConfig{
		Path:    writeStub(t, binDir, "appinspector", `printf '{"metaData":{"detailedMatchList":[]}}' > "$7"`),
		Timeout: timeout,
	}

	return &runnerFixture{store: s, cfg: cfg, analysis: analysis, project: project}
}

func TestExecuteSuccess(t *testing.T) {
	fx := newRunnerFixture(t)
	ctx := context.Background()

	runner := NewRunner(fx.store, &fx.cfg)
	event := runner.Execute(ctx, schemas.ScanTask{ID: uuid.New(), AnalysisID: fx.analysis.ID})

	assert.Equal(t, schemas.AnalysisStatusSuccess, event.Status)
	assert.Equal(t, fx.project.ID, event.ProjectID)

	got, err := fx.store.GetAnalysis(ctx, fx.analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnalysisStatusSuccess, got.Status)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.FinishedAt)
}

func TestExecuteDegradedPassRecordsError(t *testing.T) {
	fx := newRunnerFixture(t)
	ctx := context.Background()

	// the line counter breaking degrades the scan without failing it
	fx.cfg.Scanners.Scc.Path = writeStub(t, t.TempDir(), "scc", `exit 1`)

	runner := NewRunner(fx.store, &fx.cfg)
	event := runner.Execute(ctx, schemas.ScanTask{ID: uuid.New(), AnalysisID: fx.analysis.ID})

	assert.Equal(t, schemas.AnalysisStatusSuccess, event.Status)

	got, err := fx.store.GetAnalysis(ctx, fx.analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnalysisStatusSuccess, got.Status)
	assert.Contains(t, got.Error, "line counter")
}

func TestExecuteFailedPatternPassFailsScan(t *testing.T) {
	fx := newRunnerFixture(t)
	ctx := context.Background()

	fx.cfg.Scanners.Semgrep.Path = writeStub(t, t.TempDir(), "semgrep", `exit 2`)

	runner := NewRunner(fx.store, &fx.cfg)
	event := runner.Execute(ctx, schemas.ScanTask{ID: uuid.New(), AnalysisID: fx.analysis.ID})

	assert.Equal(t, schemas.AnalysisStatusError, event.Status)

	got, err := fx.store.GetAnalysis(ctx, fx.analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnalysisStatusError, got.Status)
	assert.Contains(t, got.Error, "rule engine")
}
