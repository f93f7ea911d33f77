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

	"github.com/gin-gonic/gin"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/api/routes"
	"github.com/grepmarx/grepmarx/pkg/rules"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// ListRules returns all rules, optionally filtered by the "repository"
// query parameter.
func ListRules(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := s.ListRules(c, c.Query("repository"))
		if err != nil {
			zap.L().Error("unable to list rules", zap.Error(err))
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, all)
	}
}

// GetRule returns a single rule with its languages.
func GetRule(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		rule, err := s.GetRule(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, rule)
	}
}

// ListLanguages returns the supported language set.
func ListLanguages(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		langs, err := s.ListSupportedLanguages(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, langs)
	}
}

// CreateRuleRepository registers a rule repository, clones it and runs
// a first sync.
func CreateRuleRepository(s *store.Store, rulesPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "CreateRuleRepository"))

		var req schemas.RuleRepositoryRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		repo := &store.RuleRepository{
			Name:   req.Name,
			URI:    req.URI,
			Branch: req.Branch,
		}
		if err := s.CreateRuleRepository(c, repo); err != nil {
			l.Warn("unable to register rule repository", zap.String("name", req.Name), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		if err := rules.CloneRepository(c, s, rulesPath, repo); err != nil {
			l.Error("unable to clone rule repository", zap.String("name", repo.Name), zap.Error(err))
			// keep the registration so the operator can retry the sync
			routes.WriteErr(c, err)
			return
		}
		result, err := rules.Sync(c, s, rulesPath, repo)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}

		routes.WriteSuccessResponse(c, gin.H{"repository": repo, "sync": result})
	}
}

// ListRuleRepositories returns every registered rule repository.
func ListRuleRepositories(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		repos, err := s.ListRuleRepositories(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, repos)
	}
}

// SyncRuleRepository pulls a repository checkout and re-syncs its rules.
func SyncRuleRepository(s *store.Store, rulesPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "SyncRuleRepository"))

		name, ok := routes.MustParam(c, "name")
		if !ok {
			return
		}
		repo, err := s.GetRuleRepositoryByName(c, name)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}

		if err := rules.PullRepository(c, s, rulesPath, repo); err != nil {
			l.Error("unable to pull rule repository", zap.String("name", name), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}
		result, err := rules.Sync(c, s, rulesPath, repo)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, result)
	}
}

// DeleteRuleRepository removes a repository, its rules and its checkout.
func DeleteRuleRepository(s *store.Store, rulesPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := routes.MustParam(c, "name")
		if !ok {
			return
		}
		if err := rules.RemoveRepository(c, s, rulesPath, name); err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, nil)
	}
}

// rulePackFromRequest resolves a pack payload against the store.
func rulePackFromRequest(c *gin.Context, s *store.Store, req schemas.RulePackRequest) (*store.RulePack, error) {
	ruleIDs, err := rules.ParseIDList(req.RuleIDs)
	if err != nil {
		return nil, err
	}
	selected, err := s.ListRulesByIDs(c, ruleIDs)
	if err != nil {
		return nil, err
	}

	pack := &store.RulePack{Name: req.Name}
	for i := range selected {
		pack.Rules = append(pack.Rules, &selected[i])
	}
	for _, langID := range req.LanguageIDs {
		pack.Languages = append(pack.Languages, &store.SupportedLanguage{ID: langID})
	}
	if err := rules.ValidatePack(pack); err != nil {
		return nil, err
	}
	return pack, nil
}

// CreateRulePack creates a named rule selection.
func CreateRulePack(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "CreateRulePack"))

		var req schemas.RulePackRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		pack, err := rulePackFromRequest(c, s, req)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		if err := s.CreateRulePack(c, pack); err != nil {
			l.Warn("unable to create rule pack", zap.String("name", req.Name), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		l.Info("rule pack created", zap.String("name", pack.Name), zap.Int("rules", len(pack.Rules)))
		routes.WriteSuccessResponse(c, pack)
	}
}

// ListRulePacks returns every rule pack.
func ListRulePacks(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		packs, err := s.ListRulePacks(c)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, packs)
	}
}

// GetRulePack returns one rule pack with its rules.
func GetRulePack(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		pack, err := s.GetRulePack(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		routes.WriteSuccessResponse(c, pack)
	}
}

// UpdateRulePack replaces the rules and languages of a pack.
func UpdateRulePack(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := zap.L().With(zap.String("endpoint", "UpdateRulePack"))

		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		existing, err := s.GetRulePack(c, id)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}

		var req schemas.RulePackRequest
		if err := c.ShouldBind(&req); err != nil {
			routes.WriteErrorResponse(
				c,
				http.StatusBadRequest,
				schemas.ErrInvalidPayload,
				err.Error(),
			)
			return
		}

		pack, err := rulePackFromRequest(c, s, req)
		if err != nil {
			routes.WriteErr(c, err)
			return
		}
		pack.ID = existing.ID
		pack.Builtin = existing.Builtin
		if err := s.UpdateRulePack(c, pack); err != nil {
			l.Error("unable to update rule pack", zap.Uint("pack_id", id), zap.Error(err))
			routes.WriteErr(c, err)
			return
		}

		routes.WriteSuccessResponse(c, pack)
	}
}

// DeleteRulePack removes a pack. The rules survive.
func DeleteRulePack(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := routes.MustIDParam(c, "id")
		if !ok {
			return
		}
		if err := s.DeleteRulePack(c, id); err != nil {
			routes.WriteErr(c, err)
			return
		}
		zap.L().Info("rule pack deleted", zap.Uint("pack_id", id))
		routes.WriteSuccessResponse(c, nil)
	}
}
