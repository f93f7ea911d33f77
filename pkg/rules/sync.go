// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package rules manages pattern-matching rules: syncing them from git
// rule repositories into the database, deriving severities from CWE
// identifiers, and assembling rule packs for scans.
package rules

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/grepmarx/grepmarx/internal/store"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// semgrepFile is the subset of a rule file the sync needs.
type semgrepFile struct {
	Rules []semgrepRule `yaml:"rules"`
}

type semgrepRule struct {
	ID        string         `yaml:"id"`
	Message   string         `yaml:"message"`
	Severity  string         `yaml:"severity"`
	Languages []string       `yaml:"languages"`
	Metadata  map[string]any `yaml:"metadata"`
}

// SyncResult reports what a repository sync did.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Sync walks the on-disk checkout of a rule repository and upserts one
// Rule row per YAML rule file found. The rule's file path relative to
// the rules directory is its identity: re-syncing after a repository
// pull updates rules in place so rule packs keep referencing them.
func Sync(ctx context.Context, s *store.Store, rulesPath string, repo *store.RuleRepository) (*SyncResult, error) {
	repoDir := filepath.Join(rulesPath, repo.Name)
	if _, err := os.Stat(repoDir); err != nil {
		return nil, fmt.Errorf("rule repository %q has no local checkout: %w", repo.Name, err)
	}

	supported, err := s.ListSupportedLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list supported languages: %w", err)
	}
	langIndex := make(map[string]*store.SupportedLanguage, len(supported))
	for i := range supported {
		langIndex[strings.ToLower(supported[i].Name)] = &supported[i]
	}

	result := &SyncResult{}
	err = filepath.WalkDir(repoDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// rule repositories carry their git metadata and test
			// fixtures along, none of which hold rules
			if strings.HasPrefix(d.Name(), ".") && path != repoDir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".test"+ext) {
			return nil
		}

		relPath, err := filepath.Rel(rulesPath, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if err := syncRuleFile(ctx, s, repo, relPath, path, langIndex, result); err != nil {
			zap.L().Warn("skipping unparsable rule file",
				zap.String("file", relPath), zap.Error(err))
			result.Skipped++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to walk rule repository %q: %w", repo.Name, err)
	}

	zap.L().Info("rule repository synced",
		zap.String("repository", repo.Name),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func syncRuleFile(ctx context.Context, s *store.Store, repo *store.RuleRepository,
	relPath, absPath string, langIndex map[string]*store.SupportedLanguage, result *SyncResult) error {

	data, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	var file semgrepFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	if len(file.Rules) == 0 {
		return fmt.Errorf("no rules in file")
	}

	// multi-rule files keep the first rule's metadata, matching the
	// one-row-per-file identity
	parsed := file.Rules[0]

	cwe := metadataString(parsed.Metadata, "cwe")
	owasp := metadataString(parsed.Metadata, "owasp")

	rule, err := s.GetRuleByFilePath(ctx, relPath)
	if err != nil {
		return err
	}
	created := rule == nil
	if created {
		rule = &store.Rule{FilePath: relPath}
	}

	rule.Title = parsed.ID
	rule.RuleRepositoryID = repo.ID
	rule.Category = categoryFromPath(relPath)
	rule.CWE = cwe
	rule.OWASP = owasp
	rule.Severity = GenerateSeverity(cwe)
	rule.Languages = rule.Languages[:0]
	for _, lang := range parsed.Languages {
		if supported, ok := langIndex[normalizeLanguage(lang)]; ok {
			rule.Languages = append(rule.Languages, supported)
		}
	}

	if err := s.SaveRule(ctx, rule); err != nil {
		return err
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

// categoryFromPath turns "repo/security/injection/sql.yaml" into
// "security.injection". Rules at the repository root have no category.
func categoryFromPath(relPath string) string {
	parts := strings.Split(relPath, "/")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[1:len(parts)-1], ".")
}

// metadataString extracts a metadata value that rule authors write
// either as a scalar or as a list; the first entry wins.
func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	switch v := metadata[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// normalizeLanguage maps the language aliases used by rule files to the
// supported language names.
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch lang {
	case "js":
		return "javascript"
	case "ts":
		return "typescript"
	case "c#":
		return "csharp"
	case "golang":
		return "go"
	case "py":
		return "python"
	}
	return lang
}

// DefaultSupportedLanguages is the language set seeded at first start.
func DefaultSupportedLanguages() []store.SupportedLanguage {
	return []store.SupportedLanguage{
		{Name: "c", Extensions: ".c,.h"},
		{Name: "cpp", Extensions: ".cpp,.cc,.hpp"},
		{Name: "csharp", Extensions: ".cs"},
		{Name: "go", Extensions: ".go"},
		{Name: "java", Extensions: ".java"},
		{Name: "javascript", Extensions: ".js,.jsx"},
		{Name: "kotlin", Extensions: ".kt,.kts"},
		{Name: "php", Extensions: ".php"},
		{Name: "python", Extensions: ".py"},
		{Name: "ruby", Extensions: ".rb"},
		{Name: "rust", Extensions: ".rs"},
		{Name: "scala", Extensions: ".scala"},
		{Name: "swift", Extensions: ".swift"},
		{Name: "typescript", Extensions: ".ts,.tsx"},
	}
}
