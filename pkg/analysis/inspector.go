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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/executil"
	"github.com/grepmarx/grepmarx/internal/store"
)

// inspectorReport is the subset of the feature inspector's JSON report
// the parser needs.
type inspectorReport struct {
	MetaData inspectorMetaData `json:"metaData"`
}

type inspectorMetaData struct {
	DetailedMatchList []inspectorMatch `json:"detailedMatchList"`
}

type inspectorMatch struct {
	RuleName   string `json:"ruleName"`
	Confidence string `json:"confidence"`
	FileName   string `json:"fileName"`
	Excerpt    string `json:"excerpt"`
}

// runInspector executes the feature-discovery inspector over the
// project sources and returns the technologies it identified.
func runInspector(ctx context.Context, scanner config.ScannerConfig, sourceDir, scratchDir string) ([]store.InspectorFeature, error) {
	reportPath := filepath.Join(scratchDir, "inspector.json")

	result, err := executil.Run(ctx, executil.Config{
		Command: scanner.Path,
		Args: []string{
			"analyze",
			"-s", sourceDir,
			"-f", "json",
			"-o", reportPath,
		},
		Timeout: scanner.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to run feature inspector: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("feature inspector exited with code %d: %s", result.ExitCode, result.Stderr)
	}

	report, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read feature inspector report: %w", err)
	}
	return ParseInspectorReport(report, sourceDir)
}

// ParseInspectorReport parses the feature inspector's JSON report,
// deduplicating features by name and keeping the first evidence seen.
func ParseInspectorReport(report []byte, sourceDir string) ([]store.InspectorFeature, error) {
	var parsed inspectorReport
	if err := json.Unmarshal(report, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse feature inspector report: %w", err)
	}

	seen := make(map[string]struct{})
	var features []store.InspectorFeature
	for _, match := range parsed.MetaData.DetailedMatchList {
		if match.RuleName == "" {
			continue
		}
		if _, dup := seen[match.RuleName]; dup {
			continue
		}
		seen[match.RuleName] = struct{}{}
		features = append(features, store.InspectorFeature{
			Feature:      match.RuleName,
			Confidence:   match.Confidence,
			EvidenceFile: relativePath(match.FileName, sourceDir),
			Excerpt:      match.Excerpt,
		})
	}
	return features, nil
}
