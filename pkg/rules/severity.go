// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package rules

import (
	"regexp"
	"strings"

	"github.com/grepmarx/grepmarx/pkg/schemas"
)

var cwePattern = regexp.MustCompile(`(?i)(CWE-\d+)`)

// topCWESeverities maps the most dangerous CWEs to a severity derived
// from the average CVSS score of their published CVEs. CWEs outside
// this table default to medium, rules without a CWE to low.
var topCWESeverities = map[string]schemas.Severity{
	"CWE-78":   schemas.SeverityCritical, // OS command injection
	"CWE-89":   schemas.SeverityCritical, // SQL injection
	"CWE-94":   schemas.SeverityCritical, // code injection
	"CWE-502":  schemas.SeverityCritical, // unsafe deserialization
	"CWE-798":  schemas.SeverityCritical, // hard-coded credentials
	"CWE-787":  schemas.SeverityCritical, // out-of-bounds write
	"CWE-416":  schemas.SeverityCritical, // use after free
	"CWE-77":   schemas.SeverityCritical, // command injection
	"CWE-306":  schemas.SeverityCritical, // missing authentication
	"CWE-917":  schemas.SeverityCritical, // expression language injection
	"CWE-22":   schemas.SeverityHigh,     // path traversal
	"CWE-352":  schemas.SeverityHigh,     // CSRF
	"CWE-434":  schemas.SeverityHigh,     // unrestricted upload
	"CWE-611":  schemas.SeverityHigh,     // XXE
	"CWE-862":  schemas.SeverityHigh,     // missing authorization
	"CWE-863":  schemas.SeverityHigh,     // incorrect authorization
	"CWE-918":  schemas.SeverityHigh,     // SSRF
	"CWE-287":  schemas.SeverityHigh,     // improper authentication
	"CWE-276":  schemas.SeverityHigh,     // incorrect default permissions
	"CWE-119":  schemas.SeverityHigh,     // buffer overflow
	"CWE-125":  schemas.SeverityHigh,     // out-of-bounds read
	"CWE-190":  schemas.SeverityHigh,     // integer overflow
	"CWE-269":  schemas.SeverityHigh,     // improper privilege management
	"CWE-522":  schemas.SeverityHigh,     // insufficiently protected credentials
	"CWE-732":  schemas.SeverityHigh,     // incorrect permission assignment
	"CWE-829":  schemas.SeverityHigh,     // untrusted functionality
	"CWE-79":   schemas.SeverityMedium,   // XSS
	"CWE-20":   schemas.SeverityMedium,   // improper input validation
	"CWE-200":  schemas.SeverityMedium,   // information exposure
	"CWE-209":  schemas.SeverityMedium,   // error message exposure
	"CWE-295":  schemas.SeverityMedium,   // improper certificate validation
	"CWE-327":  schemas.SeverityMedium,   // broken crypto algorithm
	"CWE-330":  schemas.SeverityMedium,   // weak randomness
	"CWE-338":  schemas.SeverityMedium,   // weak PRNG
	"CWE-362":  schemas.SeverityMedium,   // race condition
	"CWE-400":  schemas.SeverityMedium,   // resource exhaustion
	"CWE-476":  schemas.SeverityMedium,   // null dereference
	"CWE-601":  schemas.SeverityMedium,   // open redirect
	"CWE-614":  schemas.SeverityMedium,   // cookie without secure flag
	"CWE-770":  schemas.SeverityMedium,   // allocation without limits
	"CWE-1021": schemas.SeverityMedium,   // clickjacking
}

// GenerateSeverity derives a severity level from a CWE full name such as
// "CWE-89: Improper Neutralization of Special Elements used in an SQL
// Command". For CWEs in the top table the mapped severity is used; other
// CWEs default to medium; rules without a CWE are low.
func GenerateSeverity(cweString string) schemas.Severity {
	if cweString == "" {
		return schemas.SeverityLow
	}
	match := cwePattern.FindString(cweString)
	if match == "" {
		return schemas.SeverityLow
	}
	if severity, ok := topCWESeverities[strings.ToUpper(match)]; ok {
		return severity
	}
	return schemas.SeverityMedium
}
