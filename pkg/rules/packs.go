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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	errs "github.com/grepmarx/grepmarx/pkg/errors"
	"github.com/grepmarx/grepmarx/internal/store"
)

// ValidatePack checks the invariants of a rule pack before it is saved:
// a pack must be named, target at least one language and select at
// least one rule.
func ValidatePack(pack *store.RulePack) error {
	if strings.TrimSpace(pack.Name) == "" {
		return errs.New(errs.TypeBadRequest, nil, "rule pack name is required")
	}
	if len(pack.Languages) == 0 {
		return errs.New(errs.TypeBadRequest, nil, "rule pack must target at least one language")
	}
	if len(pack.Rules) == 0 {
		return errs.New(errs.TypeBadRequest, nil, "rule pack must select at least one rule")
	}
	return nil
}

// ParseIDList parses a comma-separated list of numeric ids, dropping
// empty entries and duplicates while preserving order.
func ParseIDList(raw string) ([]uint, error) {
	seen := make(map[uint]struct{})
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, errs.New(errs.TypeBadRequest, err, "invalid id %q", part)
		}
		if _, dup := seen[uint(id)]; dup {
			continue
		}
		seen[uint(id)] = struct{}{}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// ExportPackRules copies the rule files of the given packs from the
// rules directory into a scratch directory laid out for the scan
// engine's --config flag. It returns the number of rule files exported.
func ExportPackRules(ctx context.Context, s *store.Store, rulesPath, scratchDir string, packIDs []uint) (int, error) {
	packs, err := s.ListRulePacksByIDs(ctx, packIDs)
	if err != nil {
		return 0, fmt.Errorf("unable to load rule packs: %w", err)
	}
	if len(packs) != len(packIDs) {
		return 0, errs.New(errs.TypeNotFound, nil, "one or more rule packs not found")
	}

	exported := 0
	seen := make(map[string]struct{})
	for _, pack := range packs {
		for _, rule := range pack.Rules {
			if _, dup := seen[rule.FilePath]; dup {
				continue
			}
			seen[rule.FilePath] = struct{}{}

			src := filepath.Join(rulesPath, filepath.FromSlash(rule.FilePath))
			dst := filepath.Join(scratchDir, filepath.FromSlash(rule.FilePath))
			if err := copyRuleFile(src, dst); err != nil {
				return exported, fmt.Errorf("unable to export rule %q: %w", rule.FilePath, err)
			}
			exported++
		}
	}
	return exported, nil
}

func copyRuleFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o640)
}
