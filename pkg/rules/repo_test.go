// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package rules

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/internal/unittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshAllContinuesAfterFailure(t *testing.T) {
	s, rulesPath, _ := newSyncFixture(t)
	ctx := context.Background()

	// a repository with no checkout and an unreachable remote
	broken := &store.RuleRepository{
		Name: "broken-" + unittest.GenerateRandStr(unittest.CharSetAlphaNumeric, 6),
		URI:  "file:///nonexistent/" + unittest.GenerateRandStr(unittest.CharSetAlpha, 8),
	}
	require.NoError(t, s.CreateRuleRepository(ctx, broken))

	logs := unittest.CaptureLogs(t)

	err := RefreshAll(ctx, s, rulesPath)
	require.NoError(t, err)

	raw, readErr := io.ReadAll(logs)
	require.NoError(t, readErr)
	assert.Contains(t, string(raw), "rule repository refresh failed")
	assert.Contains(t, string(raw), broken.Name)
}

func TestRemoveRepository(t *testing.T) {
	s, rulesPath, repo := newSyncFixture(t)
	ctx := context.Background()

	result, err := Sync(ctx, s, rulesPath, repo)
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)

	require.NoError(t, RemoveRepository(ctx, s, rulesPath, repo.Name))

	repos, err := s.ListRuleRepositories(ctx)
	require.NoError(t, err)
	assert.Empty(t, repos)

	remaining, err := s.ListRules(ctx, repo.Name)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = os.Stat(filepath.Join(rulesPath, repo.Name))
	assert.True(t, os.IsNotExist(err))
}
