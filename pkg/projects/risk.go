// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package projects

import (
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/schemas"
)

// severityRiskBase maps the worst pattern-matching severity found in a
// project to its base risk level on the 0-100 scale.
var severityRiskBase = map[schemas.Severity]int{
	schemas.SeverityCritical: 75,
	schemas.SeverityHigh:     60,
	schemas.SeverityMedium:   40,
	schemas.SeverityLow:      20,
}

// severityRiskAdjust is added on top of the base when vulnerable
// dependencies are present, keyed by their worst severity.
var severityRiskAdjust = map[schemas.Severity]int{
	schemas.SeverityCritical: 10,
	schemas.SeverityHigh:     8,
	schemas.SeverityMedium:   5,
	schemas.SeverityLow:      2,
}

// ComputeRiskLevel scores a project between 0 (no known risk) and 100
// from its latest successful analysis. A project whose archive holds no
// code cannot be scored and stays at 0.
func ComputeRiskLevel(analysis *store.Analysis, counts *store.ProjectLinesCount) int {
	if analysis == nil || counts == nil || counts.TotalCodeCount <= 0 {
		return 0
	}

	risk := 0
	if worst, ok := worstVulnerabilitySeverity(analysis.Vulnerabilities); ok {
		risk = severityRiskBase[worst]
	}
	if worst, ok := worstDependencySeverity(analysis.VulnerableDependencies); ok {
		risk += severityRiskAdjust[worst]
	}
	if risk > 100 {
		risk = 100
	}
	return risk
}

// CountOccurrences totals the finding locations across an analysis.
func CountOccurrences(analysis *store.Analysis) int {
	if analysis == nil {
		return 0
	}
	total := 0
	for _, vuln := range analysis.Vulnerabilities {
		total += len(vuln.Occurrences)
	}
	return total
}

func worstVulnerabilitySeverity(vulns []store.Vulnerability) (schemas.Severity, bool) {
	var worst schemas.Severity
	found := false
	for _, vuln := range vulns {
		if _, scored := severityRiskBase[vuln.Severity]; !scored {
			continue
		}
		if !found || vuln.Severity.Rank() > worst.Rank() {
			worst = vuln.Severity
			found = true
		}
	}
	return worst, found
}

func worstDependencySeverity(deps []store.VulnerableDependency) (schemas.Severity, bool) {
	var worst schemas.Severity
	found := false
	for _, dep := range deps {
		if _, scored := severityRiskAdjust[dep.Severity]; !scored {
			continue
		}
		if !found || dep.Severity.Rank() > worst.Rank() {
			worst = dep.Severity
			found = true
		}
	}
	return worst, found
}
