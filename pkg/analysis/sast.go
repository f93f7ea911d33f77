// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package analysis runs scans: it drives the external analysis tools
// over an extracted project archive, parses their reports and persists
// the findings.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/executil"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/rules"
)

// semgrepReport is the subset of the rule engine's JSON output the
// parser needs.
type semgrepReport struct {
	Results []semgrepResult `json:"results"`
	Errors  []semgrepError  `json:"errors"`
}

type semgrepResult struct {
	CheckID string          `json:"check_id"`
	Path    string          `json:"path"`
	Start   semgrepPosition `json:"start"`
	End     semgrepPosition `json:"end"`
	Extra   semgrepExtra    `json:"extra"`
}

type semgrepPosition struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

type semgrepExtra struct {
	Message  string         `json:"message"`
	Lines    string         `json:"lines"`
	Metadata map[string]any `json:"metadata"`
}

type semgrepError struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

// runSAST executes the rule engine with the exported rule files against
// the project sources and returns the grouped findings.
func runSAST(ctx context.Context, scanner config.ScannerConfig, rulesDir, sourceDir string) ([]store.Vulnerability, error) {
	result, err := executil.Run(ctx, executil.Config{
		Command: scanner.Path,
		Args: []string{
			"scan",
			"--json",
			"--config", rulesDir,
			"--metrics", "off",
			sourceDir,
		},
		Timeout: scanner.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to run rule engine: %w", err)
	}
	// exit code 1 means findings were reported, which is not a failure
	if result.ExitCode > 1 {
		return nil, fmt.Errorf("rule engine exited with code %d: %s", result.ExitCode, result.Stderr)
	}

	return ParseSASTReport(result.Stdout, sourceDir)
}

// ParseSASTReport parses the rule engine's JSON report, grouping the
// raw matches by rule into vulnerabilities. File paths are stored
// relative to the scanned directory.
func ParseSASTReport(report []byte, sourceDir string) ([]store.Vulnerability, error) {
	var parsed semgrepReport
	if err := json.Unmarshal(report, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse rule engine report: %w", err)
	}

	grouped := make(map[string]*store.Vulnerability)
	var order []string
	for _, match := range parsed.Results {
		vuln, ok := grouped[match.CheckID]
		if !ok {
			cwe := metadataString(match.Extra.Metadata, "cwe")
			vuln = &store.Vulnerability{
				Title:       ruleTitle(match.CheckID),
				Severity:    rules.GenerateSeverity(cwe),
				Description: match.Extra.Message,
				CWE:         cwe,
				OWASP:       metadataString(match.Extra.Metadata, "owasp"),
				References:  metadataStrings(match.Extra.Metadata, "references"),
			}
			grouped[match.CheckID] = vuln
			order = append(order, match.CheckID)
		}
		vuln.Occurrences = append(vuln.Occurrences, store.Occurrence{
			FilePath:    relativePath(match.Path, sourceDir),
			MatchString: firstLine(match.Extra.Lines),
			Hunk:        match.Extra.Lines,
			StartLine:   match.Start.Line,
			StartColumn: match.Start.Col,
			EndLine:     match.End.Line,
			EndColumn:   match.End.Col,
		})
	}

	sort.Strings(order)
	vulns := make([]store.Vulnerability, 0, len(order))
	for _, checkID := range order {
		vulns = append(vulns, *grouped[checkID])
	}
	return vulns, nil
}

// ruleTitle extracts the rule name from a fully qualified check id such
// as "community.security.injection.sql.python-sql-injection".
func ruleTitle(checkID string) string {
	if idx := strings.LastIndex(checkID, "."); idx >= 0 {
		return checkID[idx+1:]
	}
	return checkID
}

func relativePath(path, sourceDir string) string {
	rel, err := filepath.Rel(sourceDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// metadataString extracts a scalar-or-list metadata value, first entry
// winning, the way rule files are written in the wild.
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

// metadataStrings joins a scalar-or-list metadata value into one
// newline-separated string.
func metadataStrings(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	switch v := metadata[key].(type) {
	case string:
		return v
	case []any:
		var parts []string
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}
