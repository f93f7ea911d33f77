// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package rules

import (
	"testing"

	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSeverity(t *testing.T) {
	type testCase struct {
		name string
		cwe  string
		want schemas.Severity
	}

	tests := []testCase{
		{
			name: "top table critical",
			cwe:  "CWE-89: Improper Neutralization of Special Elements used in an SQL Command",
			want: schemas.SeverityCritical,
		},
		{
			name: "top table high",
			cwe:  "CWE-22: Improper Limitation of a Pathname to a Restricted Directory",
			want: schemas.SeverityHigh,
		},
		{
			name: "top table medium",
			cwe:  "CWE-79: Improper Neutralization of Input During Web Page Generation",
			want: schemas.SeverityMedium,
		},
		{
			name: "unknown cwe defaults to medium",
			cwe:  "CWE-9999: Made Up Weakness",
			want: schemas.SeverityMedium,
		},
		{
			name: "no cwe means low",
			cwe:  "",
			want: schemas.SeverityLow,
		},
		{
			name: "text without cwe identifier means low",
			cwe:  "style issue",
			want: schemas.SeverityLow,
		},
		{
			name: "case insensitive match",
			cwe:  "cwe-78 os command injection",
			want: schemas.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSeverity(tt.cwe))
		})
	}
}
