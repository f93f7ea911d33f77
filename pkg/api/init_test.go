// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "init-test-secret"

func newTestEngine(t *testing.T) http.Handler {
	t.Helper()
	config.State.Auth.JWTSecret = testJWTSecret

	s, err := store.Open("sqlite", "")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })

	mr := miniredis.RunT(t)
	q, err := queue.NewClient(queue.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	engine, err := InitializeEngine(s, q, NewEventFeed(8))
	require.NoError(t, err)
	return engine
}

// Registering the full route table must not trip over gin's routing
// tree, where a static segment cannot share a position with a
// wildcard. Every listing surface is served through the built engine.
func TestInitializeEngine(t *testing.T) {
	engine := newTestEngine(t)

	token, err := identities.IssueToken(
		identities.Identity{UserID: 1, Username: "admin", Role: schemas.RoleAdmin},
		testJWTSecret, time.Hour)
	require.NoError(t, err)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{
		"/api/v1/languages",
		"/api/v1/rules",
		"/api/v1/repositories",
		"/api/v1/rulepacks",
		"/api/v1/events",
	} {
		assert.Equal(t, http.StatusOK, get(path).Code, path)
	}

	// the wildcard sibling of the static rule surfaces still resolves
	assert.Equal(t, http.StatusNotFound, get("/api/v1/rules/9999").Code)
}

func TestInitializeEngine_RejectsAnonymous(t *testing.T) {
	engine := newTestEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
