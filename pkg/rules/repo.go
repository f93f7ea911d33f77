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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/grepmarx/grepmarx/internal/store"
	"go.uber.org/zap"
)

// CloneRepository clones a rule repository into the rules directory and
// records the checkout time. An existing checkout is refreshed instead.
func CloneRepository(ctx context.Context, s *store.Store, rulesPath string, repo *store.RuleRepository) error {
	repoDir := filepath.Join(rulesPath, repo.Name)

	if _, err := os.Stat(repoDir); err == nil {
		return PullRepository(ctx, s, rulesPath, repo)
	}

	opts := &git.CloneOptions{
		URL:          repo.URI,
		Depth:        1,
		SingleBranch: true,
	}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
	}

	zap.L().Info("cloning rule repository",
		zap.String("repository", repo.Name), zap.String("uri", repo.URI))
	if _, err := git.PlainCloneContext(ctx, repoDir, false, opts); err != nil {
		// leave no partial checkout behind
		_ = os.RemoveAll(repoDir)
		return fmt.Errorf("unable to clone %q: %w", repo.URI, err)
	}

	return touchRepository(ctx, s, repo)
}

// PullRepository fast-forwards an existing checkout to the remote head.
func PullRepository(ctx context.Context, s *store.Store, rulesPath string, repo *store.RuleRepository) error {
	repoDir := filepath.Join(rulesPath, repo.Name)

	checkout, err := git.PlainOpen(repoDir)
	if err != nil {
		return fmt.Errorf("unable to open checkout of %q: %w", repo.Name, err)
	}
	worktree, err := checkout.Worktree()
	if err != nil {
		return fmt.Errorf("unable to open worktree of %q: %w", repo.Name, err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{SingleBranch: true})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("unable to pull %q: %w", repo.Name, err)
	}

	return touchRepository(ctx, s, repo)
}

// RemoveRepository deletes the checkout and all database rows of a rule
// repository, detaching its rules from any rule pack.
func RemoveRepository(ctx context.Context, s *store.Store, rulesPath string, name string) error {
	if err := s.DeleteRuleRepository(ctx, name); err != nil {
		return err
	}
	repoDir := filepath.Join(rulesPath, name)
	if err := os.RemoveAll(repoDir); err != nil {
		return fmt.Errorf("unable to remove checkout of %q: %w", name, err)
	}
	zap.L().Info("rule repository removed", zap.String("repository", name))
	return nil
}

// RefreshAll pulls and re-syncs every registered rule repository. Used
// by the worker's scheduled refresh.
func RefreshAll(ctx context.Context, s *store.Store, rulesPath string) error {
	repos, err := s.ListRuleRepositories(ctx)
	if err != nil {
		return fmt.Errorf("unable to list rule repositories: %w", err)
	}
	for i := range repos {
		repo := &repos[i]
		if err := CloneRepository(ctx, s, rulesPath, repo); err != nil {
			zap.L().Error("rule repository refresh failed",
				zap.String("repository", repo.Name), zap.Error(err))
			continue
		}
		if _, err := Sync(ctx, s, rulesPath, repo); err != nil {
			zap.L().Error("rule repository sync failed",
				zap.String("repository", repo.Name), zap.Error(err))
		}
	}
	return nil
}

func touchRepository(ctx context.Context, s *store.Store, repo *store.RuleRepository) error {
	now := time.Now().UTC()
	repo.LastUpdateOn = &now
	return s.UpdateRuleRepository(ctx, repo)
}
