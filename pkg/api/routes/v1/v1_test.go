// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/api/middleware"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.DBTypeSQLite, "")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestQueue(t *testing.T) *queue.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	q, err := queue.NewClient(queue.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

// asIdentity injects a fixed identity the way the bearer middleware would.
func asIdentity(identity identities.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetIdentity(c, identity)
		c.Next()
	}
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) schemas.APIResponse[T] {
	t.Helper()
	var resp schemas.APIResponse[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLogin(t *testing.T) {
	s := newTestStore(t)
	hash, err := identities.HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(context.Background(), &store.User{
		Username:       "alice",
		HashedPassword: hash,
		Role:           schemas.RoleAuditor,
	}))

	engine := gin.New()
	engine.POST("/auth/login", Login(s, "test-secret", time.Hour))

	rec := doJSON(t, engine, http.MethodPost, "/auth/login", schemas.LoginRequest{
		Username: "alice",
		Password: "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse[schemas.LoginResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "alice", resp.Response.Username)

	identity, err := identities.VerifyToken(resp.Response.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, schemas.RoleAuditor, identity.Role)

	rec = doJSON(t, engine, http.MethodPost, "/auth/login", schemas.LoginRequest{
		Username: "alice",
		Password: "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	failed := decodeResponse[any](t, rec)
	assert.False(t, failed.Success)
	assert.Equal(t, schemas.ErrInvalidCredentials, failed.Error)
}

func TestStartAnalysis(t *testing.T) {
	s := newTestStore(t)
	q := newTestQueue(t)
	ctx := context.Background()

	project := &store.Project{Name: "scanme"}
	require.NoError(t, s.CreateProject(ctx, project))
	pack := &store.RulePack{Name: "default"}
	require.NoError(t, s.CreateRulePack(ctx, pack))

	admin := identities.Identity{UserID: 1, Username: "root", Role: schemas.RoleAdmin}
	engine := gin.New()
	engine.POST("/projects/:id/analyses", asIdentity(admin), StartAnalysis(s, q))

	rec := doJSON(t, engine, http.MethodPost, "/projects/1/analyses", schemas.AnalysisRequest{
		RulePackIDs: []uint{pack.ID},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeResponse[schemas.AnalysisAcceptedResponse](t, rec)
	assert.True(t, resp.Success)
	assert.NotZero(t, resp.Response.AnalysisID)

	analysis, err := s.GetAnalysis(ctx, resp.Response.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnalysisStatusPending, analysis.Status)
	assert.Equal(t, resp.Response.TaskID.String(), analysis.TaskID)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	// referencing a pack that does not exist is rejected up front
	rec = doJSON(t, engine, http.MethodPost, "/projects/1/analyses", schemas.AnalysisRequest{
		RulePackIDs: []uint{pack.ID, 999},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartAnalysisDeniedWithoutTeam(t *testing.T) {
	s := newTestStore(t)
	q := newTestQueue(t)
	ctx := context.Background()

	project := &store.Project{Name: "private"}
	require.NoError(t, s.CreateProject(ctx, project))
	outsider := &store.User{Username: "mallory", Role: schemas.RoleAuditor}
	require.NoError(t, s.CreateUser(ctx, outsider))

	engine := gin.New()
	engine.POST("/projects/:id/analyses",
		asIdentity(identities.Identity{UserID: outsider.ID, Username: "mallory", Role: schemas.RoleAuditor}),
		StartAnalysis(s, q))

	rec := doJSON(t, engine, http.MethodPost, "/projects/1/analyses", schemas.AnalysisRequest{
		RulePackIDs: []uint{1},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestDashboard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	auditor := &store.User{Username: "alice", Role: schemas.RoleAuditor}
	require.NoError(t, s.CreateUser(ctx, auditor))

	visible := &store.Project{Name: "audited-app", RiskLevel: 62, OccurrencesCount: 4}
	hidden := &store.Project{Name: "other-team-app", RiskLevel: 80}
	require.NoError(t, s.CreateProject(ctx, visible))
	require.NoError(t, s.CreateProject(ctx, hidden))
	require.NoError(t, s.CreateTeam(ctx, &store.Team{
		Name:     "web-audits",
		Members:  []*store.User{auditor},
		Projects: []*store.Project{visible},
	}))

	analysis := &store.Analysis{ProjectID: visible.ID}
	require.NoError(t, s.CreateAnalysis(ctx, analysis))
	require.NoError(t, s.SaveFindings(ctx, analysis.ID, []store.Vulnerability{
		{Title: "sqli", Severity: schemas.SeverityCritical},
		{Title: "xss", Severity: schemas.SeverityMedium},
		{Title: "xxe", Severity: schemas.SeverityMedium},
	}, nil, nil))

	engine := gin.New()
	engine.GET("/dashboard",
		asIdentity(identities.Identity{UserID: auditor.ID, Username: "alice", Role: schemas.RoleAuditor}),
		Dashboard(s))

	rec := doJSON(t, engine, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse[schemas.DashboardResponse](t, rec)
	require.True(t, resp.Success)

	dash := resp.Response
	assert.Equal(t, int64(2), dash.ProjectCount)
	assert.Equal(t, int64(1), dash.UserCount)
	assert.Equal(t, int64(1), dash.PendingScans)

	assert.Equal(t, int64(1), dash.SeverityHistogram[schemas.SeverityCritical])
	assert.Equal(t, int64(2), dash.SeverityHistogram[schemas.SeverityMedium])

	// auditors only see their teams' projects in the risk overview
	require.Len(t, dash.Projects, 1)
	assert.Equal(t, "audited-app", dash.Projects[0].Name)
	assert.Equal(t, 62, dash.Projects[0].RiskLevel)
	assert.Equal(t, 4, dash.Projects[0].OccurrencesCount)
}

func TestCancelAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	project := &store.Project{Name: "scanme"}
	require.NoError(t, s.CreateProject(ctx, project))
	analysis := &store.Analysis{ProjectID: project.ID}
	require.NoError(t, s.CreateAnalysis(ctx, analysis))

	admin := identities.Identity{UserID: 1, Username: "root", Role: schemas.RoleAdmin}
	engine := gin.New()
	engine.POST("/analyses/:analysisID/cancel", asIdentity(admin), CancelAnalysis(s))

	rec := doJSON(t, engine, http.MethodPost, "/analyses/1/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := s.GetAnalysis(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, schemas.AnalysisStatusCanceled, got.Status)

	// only pending analyses can be canceled
	rec = doJSON(t, engine, http.MethodPost, "/analyses/1/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
