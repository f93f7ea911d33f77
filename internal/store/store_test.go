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
	"testing"

	errs "github.com/grepmarx/grepmarx/pkg/errors"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", "")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &User{Username: "alice", Role: schemas.RoleAuditor}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NotZero(t, user.ID)

	dup := &User{Username: "alice"}
	err := s.CreateUser(ctx, dup)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeConflict))

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.GetUser(ctx, 999)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeNotFound))

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.DeleteUser(ctx, user.ID))
	count, err = s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTeamsAndProjectAccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := &User{Username: "alice", Role: schemas.RoleAuditor}
	bob := &User{Username: "bob", Role: schemas.RoleAuditor}
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	shared := &Project{Name: "shared-app"}
	private := &Project{Name: "private-app"}
	require.NoError(t, s.CreateProject(ctx, shared))
	require.NoError(t, s.CreateProject(ctx, private))

	team := &Team{
		Name:     "web-audits",
		Members:  []*User{alice},
		Projects: []*Project{shared},
	}
	require.NoError(t, s.CreateTeam(ctx, team))

	aliceTeams, err := s.UserTeamIDs(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceTeams, 1)

	bobTeams, err := s.UserTeamIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobTeams)

	visible, err := s.ListProjectsForTeams(ctx, aliceTeams)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "shared-app", visible[0].Name)

	all, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAnalysisLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	project := &Project{Name: "scanme"}
	require.NoError(t, s.CreateProject(ctx, project))

	analysis := &Analysis{ProjectID: project.ID, TaskID: "8a6e0804-2bd0-4672-b79d-d97027f9071a"}
	require.NoError(t, s.CreateAnalysis(ctx, analysis))
	assert.Equal(t, schemas.AnalysisStatusPending, analysis.Status)

	require.NoError(t, s.MarkAnalysisStarted(ctx, analysis.ID))

	vulns := []Vulnerability{
		{
			Title:    "sql-injection",
			Severity: schemas.SeverityCritical,
			Occurrences: []Occurrence{
				{FilePath: "app/db.py", StartLine: 12, ReviewStatus: schemas.ReviewStatusToReview},
			},
		},
	}
	deps := []VulnerableDependency{
		{PkgType: "npm", PkgRef: "pkg:npm/lodash@4.17.20", Advisory: "CVE-2021-23337", Severity: schemas.SeverityHigh},
	}
	features := []InspectorFeature{
		{Feature: "Authentication: JWT", Confidence: "High"},
	}
	require.NoError(t, s.SaveFindings(ctx, analysis.ID, vulns, deps, features))
	require.NoError(t, s.MarkAnalysisFinished(ctx, analysis.ID, schemas.AnalysisStatusSuccess, ""))

	got, err := s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnalysisStatusSuccess, got.Status)
	require.Len(t, got.Vulnerabilities, 1)
	require.Len(t, got.Vulnerabilities[0].Occurrences, 1)
	require.Len(t, got.VulnerableDependencies, 1)
	require.Len(t, got.InspectorFeatures, 1)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.FinishedAt)

	// re-saving findings replaces the previous set
	require.NoError(t, s.SaveFindings(ctx, analysis.ID, nil, deps, nil))
	got, err = s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Vulnerabilities)
	assert.Len(t, got.VulnerableDependencies, 1)

	latest, err := s.LatestAnalysis(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.ID, latest.ID)
}

func TestCancelAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	project := &Project{Name: "cancelme"}
	require.NoError(t, s.CreateProject(ctx, project))

	pending := &Analysis{ProjectID: project.ID}
	require.NoError(t, s.CreateAnalysis(ctx, pending))
	require.NoError(t, s.CancelAnalysis(ctx, pending.ID))

	got, err := s.GetAnalysis(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnalysisStatusCanceled, got.Status)
	assert.NotNil(t, got.FinishedAt)

	// a scan a worker already picked up cannot be canceled
	running := &Analysis{ProjectID: project.ID}
	require.NoError(t, s.CreateAnalysis(ctx, running))
	require.NoError(t, s.MarkAnalysisStarted(ctx, running.ID))

	err = s.CancelAnalysis(ctx, running.ID)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeConflict))
	got, err = s.GetAnalysis(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnalysisStatusRunning, got.Status)

	err = s.CancelAnalysis(ctx, 9999)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeNotFound))
}

func TestOccurrenceAndDependencyTriage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	project := &Project{Name: "triage-app"}
	require.NoError(t, s.CreateProject(ctx, project))
	analysis := &Analysis{ProjectID: project.ID}
	require.NoError(t, s.CreateAnalysis(ctx, analysis))

	vulns := []Vulnerability{{
		Title:       "weak-hash",
		Severity:    schemas.SeverityMedium,
		Occurrences: []Occurrence{{FilePath: "a.go", ReviewStatus: schemas.ReviewStatusToReview}},
	}}
	deps := []VulnerableDependency{{PkgRef: "pkg:npm/x@1", Advisory: "CVE-2024-0001"}}
	require.NoError(t, s.SaveFindings(ctx, analysis.ID, vulns, deps, nil))

	got, err := s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	occurrenceID := got.Vulnerabilities[0].Occurrences[0].ID
	depID := got.VulnerableDependencies[0].ID

	require.NoError(t, s.UpdateOccurrenceStatus(ctx, occurrenceID, schemas.ReviewStatusConfirmed))
	require.NoError(t, s.UpdateDependencyPrioritization(ctx, depID, true, true, false, false))

	got, err = s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.ReviewStatusConfirmed, got.Vulnerabilities[0].Occurrences[0].ReviewStatus)
	dep := got.VulnerableDependencies[0]
	assert.True(t, dep.HasPoC)
	assert.True(t, dep.Reachable)
	assert.False(t, dep.VendorConfirmed)

	err = s.UpdateOccurrenceStatus(ctx, 9999, schemas.ReviewStatusConfirmed)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeNotFound))
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	project := &Project{Name: "doomed"}
	require.NoError(t, s.CreateProject(ctx, project))

	require.NoError(t, s.SaveProjectLinesCount(ctx, project.ID, &ProjectLinesCount{
		TotalCodeCount: 100,
		LanguageLinesCounts: []LanguageLinesCount{
			{Language: "Go", CodeCount: 100},
		},
	}))

	analysis := &Analysis{ProjectID: project.ID}
	require.NoError(t, s.CreateAnalysis(ctx, analysis))
	require.NoError(t, s.SaveFindings(ctx, analysis.ID,
		[]Vulnerability{{Title: "x", Occurrences: []Occurrence{{FilePath: "a"}}}},
		nil, nil))

	require.NoError(t, s.DeleteProject(ctx, project.ID))

	_, err := s.GetProject(ctx, project.ID)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeNotFound))

	_, err = s.GetAnalysis(ctx, analysis.ID)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeNotFound))
}

func TestProjectLinesCountReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	project := &Project{Name: "counted"}
	require.NoError(t, s.CreateProject(ctx, project))

	require.NoError(t, s.SaveProjectLinesCount(ctx, project.ID, &ProjectLinesCount{
		TotalCodeCount: 100,
		LanguageLinesCounts: []LanguageLinesCount{
			{Language: "Go", CodeCount: 100},
		},
	}))
	require.NoError(t, s.SaveProjectLinesCount(ctx, project.ID, &ProjectLinesCount{
		TotalCodeCount: 250,
		LanguageLinesCounts: []LanguageLinesCount{
			{Language: "Go", CodeCount: 200},
			{Language: "Python", CodeCount: 50},
		},
	}))

	got, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LinesCount)
	assert.Equal(t, 250, got.LinesCount.TotalCodeCount)
	assert.Len(t, got.LinesCount.LanguageLinesCounts, 2)
}
