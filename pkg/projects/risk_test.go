// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package projects

import (
	"testing"

	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
)

func TestComputeRiskLevel(t *testing.T) {
	withCode := &store.ProjectLinesCount{TotalCodeCount: 1000}

	type testCase struct {
		name     string
		analysis *store.Analysis
		counts   *store.ProjectLinesCount
		want     int
	}

	tests := []testCase{
		{
			name:     "no analysis",
			analysis: nil,
			counts:   withCode,
			want:     0,
		},
		{
			name: "no code means no score",
			analysis: &store.Analysis{
				Vulnerabilities: []store.Vulnerability{{Severity: schemas.SeverityCritical}},
			},
			counts: &store.ProjectLinesCount{TotalCodeCount: 0},
			want:   0,
		},
		{
			name:     "clean scan",
			analysis: &store.Analysis{},
			counts:   withCode,
			want:     0,
		},
		{
			name: "critical finding",
			analysis: &store.Analysis{
				Vulnerabilities: []store.Vulnerability{
					{Severity: schemas.SeverityLow},
					{Severity: schemas.SeverityCritical},
				},
			},
			counts: withCode,
			want:   75,
		},
		{
			name: "medium finding",
			analysis: &store.Analysis{
				Vulnerabilities: []store.Vulnerability{{Severity: schemas.SeverityMedium}},
			},
			counts: withCode,
			want:   40,
		},
		{
			name: "info findings are not scored",
			analysis: &store.Analysis{
				Vulnerabilities: []store.Vulnerability{{Severity: schemas.SeverityInfo}},
			},
			counts: withCode,
			want:   0,
		},
		{
			name: "dependency adjustment on top of findings",
			analysis: &store.Analysis{
				Vulnerabilities: []store.Vulnerability{{Severity: schemas.SeverityHigh}},
				VulnerableDependencies: []store.VulnerableDependency{
					{Severity: schemas.SeverityCritical},
				},
			},
			counts: withCode,
			want:   70,
		},
		{
			name: "dependencies alone score only the adjustment",
			analysis: &store.Analysis{
				VulnerableDependencies: []store.VulnerableDependency{
					{Severity: schemas.SeverityHigh},
				},
			},
			counts: withCode,
			want:   8,
		},
		{
			name: "critical dependencies alone",
			analysis: &store.Analysis{
				VulnerableDependencies: []store.VulnerableDependency{
					{Severity: schemas.SeverityCritical},
					{Severity: schemas.SeverityLow},
				},
			},
			counts: withCode,
			want:   10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeRiskLevel(tt.analysis, tt.counts))
		})
	}
}

func TestCountOccurrences(t *testing.T) {
	analysis := &store.Analysis{
		Vulnerabilities: []store.Vulnerability{
			{Occurrences: []store.Occurrence{{}, {}, {}}},
			{Occurrences: []store.Occurrence{{}}},
			{},
		},
	}
	assert.Equal(t, 4, CountOccurrences(analysis))
	assert.Equal(t, 0, CountOccurrences(nil))
}
