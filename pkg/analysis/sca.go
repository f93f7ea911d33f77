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
	"strings"

	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/executil"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/schemas"
)

// scaReport is the subset of the dependency scanner's JSON report the
// parser needs.
type scaReport struct {
	Dependencies []scaDependency `json:"dependencies"`
}

type scaDependency struct {
	FileName        string             `json:"fileName"`
	Packages        []scaPackage       `json:"packages"`
	Vulnerabilities []scaVulnerability `json:"vulnerabilities"`
}

type scaPackage struct {
	ID string `json:"id"`
}

type scaVulnerability struct {
	Name               string        `json:"name"`
	Severity           string        `json:"severity"`
	Description        string        `json:"description"`
	CVSSv3             *scaCVSS      `json:"cvssv3"`
	CVSSv2             *scaCVSS      `json:"cvssv2"`
	VulnerableSoftware []scaSoftware `json:"vulnerableSoftware"`
}

type scaSoftware struct {
	Software struct {
		ID                  string `json:"id"`
		VersionEndExcluding string `json:"versionEndExcluding"`
	} `json:"software"`
}

type scaCVSS struct {
	BaseScore float64 `json:"baseScore"`
	Score     float64 `json:"score"`
}

// scaReportFilename is the scanner's fixed report name inside its
// output directory.
const scaReportFilename = "dependency-check-report.json"

// runSCA executes the dependency scanner over the project sources and
// returns the advisories found.
func runSCA(ctx context.Context, scanner config.ScannerConfig, sourceDir, scratchDir string) ([]store.VulnerableDependency, error) {
	outDir := filepath.Join(scratchDir, "sca")
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("unable to create report directory: %w", err)
	}

	result, err := executil.Run(ctx, executil.Config{
		Command: scanner.Path,
		Args: []string{
			"--scan", sourceDir,
			"--format", "JSON",
			"--out", outDir,
			"--noupdate",
		},
		Timeout: scanner.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to run dependency scanner: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("dependency scanner exited with code %d: %s", result.ExitCode, result.Stderr)
	}

	report, err := os.ReadFile(filepath.Join(outDir, scaReportFilename))
	if err != nil {
		return nil, fmt.Errorf("unable to read dependency scanner report: %w", err)
	}
	return ParseSCAReport(report)
}

// ParseSCAReport parses the dependency scanner's JSON report into one
// row per (dependency, advisory) pair.
func ParseSCAReport(report []byte) ([]store.VulnerableDependency, error) {
	var parsed scaReport
	if err := json.Unmarshal(report, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse dependency scanner report: %w", err)
	}

	var deps []store.VulnerableDependency
	for _, dep := range parsed.Dependencies {
		if len(dep.Vulnerabilities) == 0 {
			continue
		}
		pkgRef := dep.FileName
		if len(dep.Packages) > 0 && dep.Packages[0].ID != "" {
			pkgRef = dep.Packages[0].ID
		}
		pkgType := packageType(pkgRef)

		for _, vuln := range dep.Vulnerabilities {
			deps = append(deps, store.VulnerableDependency{
				PkgType:    pkgType,
				PkgRef:     pkgRef,
				Advisory:   vuln.Name,
				Severity:   schemas.ParseSeverity(vuln.Severity),
				CVSSScore:  cvssScore(vuln),
				Summary:    vuln.Description,
				FixVersion: fixVersion(vuln),
			})
		}
	}
	return deps, nil
}

// packageType extracts the ecosystem from a package URL such as
// "pkg:npm/lodash@4.17.20".
func packageType(pkgRef string) string {
	if !strings.HasPrefix(pkgRef, "pkg:") {
		return ""
	}
	rest := strings.TrimPrefix(pkgRef, "pkg:")
	if idx := strings.IndexByte(rest, '/'); idx > 0 {
		return rest[:idx]
	}
	return ""
}

// fixVersion derives the first fixed release from the advisory's
// affected version ranges. An empty string means the report does not
// name one.
func fixVersion(vuln scaVulnerability) string {
	for _, sw := range vuln.VulnerableSoftware {
		if v := sw.Software.VersionEndExcluding; v != "" {
			return v
		}
	}
	return ""
}

func cvssScore(vuln scaVulnerability) float64 {
	if vuln.CVSSv3 != nil {
		if vuln.CVSSv3.BaseScore > 0 {
			return vuln.CVSSv3.BaseScore
		}
		return vuln.CVSSv3.Score
	}
	if vuln.CVSSv2 != nil {
		if vuln.CVSSv2.BaseScore > 0 {
			return vuln.CVSSv2.BaseScore
		}
		return vuln.CVSSv2.Score
	}
	return 0
}
