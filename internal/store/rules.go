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
	"errors"

	errs "github.com/grepmarx/grepmarx/pkg/errors"
	"gorm.io/gorm"
)

// GetRuleByFilePath fetches a rule by its file path identity, or nil when
// no such rule exists. Used by the sync to keep rule ids stable.
func (s *Store) GetRuleByFilePath(ctx context.Context, filePath string) (*Rule, error) {
	var rule Rule
	err := s.db.WithContext(ctx).
		Preload("Languages").
		Where("file_path = ?", filePath).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// SaveRule upserts a rule, replacing its language associations.
func (s *Store) SaveRule(ctx context.Context, rule *Rule) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(rule).Error; err != nil {
			return err
		}
		return tx.Model(rule).Association("Languages").Replace(rule.Languages)
	})
}

// GetRule fetches a rule by id with repository and languages preloaded.
func (s *Store) GetRule(ctx context.Context, id uint) (*Rule, error) {
	var rule Rule
	err := s.db.WithContext(ctx).
		Preload("Repository").
		Preload("Languages").
		First(&rule, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "rule %d not found", id)
		}
		return nil, err
	}
	return &rule, nil
}

// ListRules returns all rules, optionally filtered by repository name.
func (s *Store) ListRules(ctx context.Context, repository string) ([]Rule, error) {
	q := s.db.WithContext(ctx).Preload("Languages").Order("file_path")
	if repository != "" {
		q = q.Joins("JOIN rule_repositories ON rule_repositories.id = rules.rule_repository_id").
			Where("rule_repositories.name = ?", repository)
	}
	var rules []Rule
	if err := q.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// ListRulesByIDs returns the rules matching the given ids.
func (s *Store) ListRulesByIDs(ctx context.Context, ids []uint) ([]Rule, error) {
	var rules []Rule
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateRuleRepository persists a new rule repository.
func (s *Store) CreateRuleRepository(ctx context.Context, repo *RuleRepository) error {
	err := s.db.WithContext(ctx).Create(repo).Error
	if err != nil && isUniqueViolation(err) {
		return errs.New(errs.TypeConflict, err, "rule repository %q already exists", repo.Name)
	}
	return err
}

// GetRuleRepositoryByName fetches a rule repository by name.
func (s *Store) GetRuleRepositoryByName(ctx context.Context, name string) (*RuleRepository, error) {
	var repo RuleRepository
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&repo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "rule repository %q not found", name)
		}
		return nil, err
	}
	return &repo, nil
}

// ListRuleRepositories returns all rule repositories.
func (s *Store) ListRuleRepositories(ctx context.Context) ([]RuleRepository, error) {
	var repos []RuleRepository
	if err := s.db.WithContext(ctx).Order("name").Find(&repos).Error; err != nil {
		return nil, err
	}
	return repos, nil
}

// UpdateRuleRepository saves changes to an existing rule repository.
func (s *Store) UpdateRuleRepository(ctx context.Context, repo *RuleRepository) error {
	return s.db.WithContext(ctx).Save(repo).Error
}

// DeleteRuleRepository removes the repository and all of its rules,
// detaching them from any rule pack first.
func (s *Store) DeleteRuleRepository(ctx context.Context, name string) error {
	repo, err := s.GetRuleRepositoryByName(ctx, name)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ruleIDs []uint
		if err := tx.Model(&Rule{}).
			Where("rule_repository_id = ?", repo.ID).
			Pluck("id", &ruleIDs).Error; err != nil {
			return err
		}
		if len(ruleIDs) > 0 {
			if err := tx.Exec("DELETE FROM rule_pack_rules WHERE rule_id IN ?", ruleIDs).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM rule_languages WHERE rule_id IN ?", ruleIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ruleIDs).Delete(&Rule{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(repo).Error
	})
}

// CreateRulePack persists a new rule pack with its associations.
func (s *Store) CreateRulePack(ctx context.Context, pack *RulePack) error {
	err := s.db.WithContext(ctx).Create(pack).Error
	if err != nil && isUniqueViolation(err) {
		return errs.New(errs.TypeConflict, err, "rule pack %q already exists", pack.Name)
	}
	return err
}

// GetRulePack fetches a rule pack with rules and languages preloaded.
func (s *Store) GetRulePack(ctx context.Context, id uint) (*RulePack, error) {
	var pack RulePack
	err := s.db.WithContext(ctx).
		Preload("Languages").
		Preload("Rules").
		First(&pack, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "rule pack %d not found", id)
		}
		return nil, err
	}
	return &pack, nil
}

// ListRulePacks returns all rule packs with their languages.
func (s *Store) ListRulePacks(ctx context.Context) ([]RulePack, error) {
	var packs []RulePack
	if err := s.db.WithContext(ctx).Preload("Languages").Order("name").Find(&packs).Error; err != nil {
		return nil, err
	}
	return packs, nil
}

// ListRulePacksByIDs returns rule packs by id, rules preloaded.
func (s *Store) ListRulePacksByIDs(ctx context.Context, ids []uint) ([]RulePack, error) {
	var packs []RulePack
	err := s.db.WithContext(ctx).
		Preload("Rules.Repository").
		Where("id IN ?", ids).
		Find(&packs).Error
	if err != nil {
		return nil, err
	}
	return packs, nil
}

// UpdateRulePack saves changes to a rule pack, replacing associations.
func (s *Store) UpdateRulePack(ctx context.Context, pack *RulePack) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(pack).Association("Rules").Replace(pack.Rules); err != nil {
			return err
		}
		if err := tx.Model(pack).Association("Languages").Replace(pack.Languages); err != nil {
			return err
		}
		return tx.Save(pack).Error
	})
}

// DeleteRulePack removes a rule pack. Rules survive.
func (s *Store) DeleteRulePack(ctx context.Context, id uint) error {
	pack, err := s.GetRulePack(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(pack).Association("Rules").Clear(); err != nil {
			return err
		}
		if err := tx.Model(pack).Association("Languages").Clear(); err != nil {
			return err
		}
		return tx.Delete(pack).Error
	})
}

// ListSupportedLanguages returns every language the rule engine knows.
func (s *Store) ListSupportedLanguages(ctx context.Context) ([]SupportedLanguage, error) {
	var langs []SupportedLanguage
	if err := s.db.WithContext(ctx).Order("name").Find(&langs).Error; err != nil {
		return nil, err
	}
	return langs, nil
}

// SeedSupportedLanguages inserts the default language set when missing.
func (s *Store) SeedSupportedLanguages(ctx context.Context, langs []SupportedLanguage) error {
	for i := range langs {
		var existing SupportedLanguage
		err := s.db.WithContext(ctx).
			Where("name = ?", langs[i].Name).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := s.db.WithContext(ctx).Create(&langs[i]).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
