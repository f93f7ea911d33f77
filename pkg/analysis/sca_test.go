// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package analysis

import (
	"testing"

	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scaFixture = `{
  "dependencies": [
    {
      "fileName": "lodash-4.17.20.tgz",
      "packages": [{"id": "pkg:npm/lodash@4.17.20"}],
      "vulnerabilities": [
        {
          "name": "CVE-2021-23337",
          "severity": "HIGH",
          "description": "lodash template injection",
          "cvssv3": {"baseScore": 7.2},
          "vulnerableSoftware": [
            {"software": {"id": "cpe:2.3:a:lodash:lodash", "versionEndExcluding": "4.17.21"}}
          ]
        },
        {
          "name": "CVE-2020-28500",
          "severity": "MODERATE",
          "description": "lodash ReDoS",
          "cvssv2": {"score": 5.0}
        }
      ]
    },
    {
      "fileName": "clean-lib.jar",
      "packages": [{"id": "pkg:maven/org.example/clean-lib@1.0"}],
      "vulnerabilities": []
    },
    {
      "fileName": "local-artifact.zip",
      "packages": [],
      "vulnerabilities": [
        {"name": "CVE-2019-0001", "severity": "LOW", "description": "something"}
      ]
    }
  ]
}`

func TestParseSCAReport(t *testing.T) {
	deps, err := ParseSCAReport([]byte(scaFixture))
	require.NoError(t, err)
	require.Len(t, deps, 3)

	first := deps[0]
	assert.Equal(t, "npm", first.PkgType)
	assert.Equal(t, "pkg:npm/lodash@4.17.20", first.PkgRef)
	assert.Equal(t, "CVE-2021-23337", first.Advisory)
	assert.Equal(t, schemas.SeverityHigh, first.Severity)
	assert.InDelta(t, 7.2, first.CVSSScore, 0.001)
	assert.Equal(t, "4.17.21", first.FixVersion)

	second := deps[1]
	assert.Equal(t, schemas.SeverityMedium, second.Severity, "moderate maps to medium")
	assert.InDelta(t, 5.0, second.CVSSScore, 0.001)
	assert.Empty(t, second.FixVersion, "no fix version when the report names none")

	noPurl := deps[2]
	assert.Equal(t, "", noPurl.PkgType)
	assert.Equal(t, "local-artifact.zip", noPurl.PkgRef)
	assert.Equal(t, schemas.SeverityLow, noPurl.Severity)
	assert.Zero(t, noPurl.CVSSScore)
}

func TestParseSCAReport_Invalid(t *testing.T) {
	_, err := ParseSCAReport([]byte("<html>error</html>"))
	require.Error(t, err)
}

func TestPackageType(t *testing.T) {
	assert.Equal(t, "maven", packageType("pkg:maven/org.example/lib@1.0"))
	assert.Equal(t, "", packageType("plain-file.jar"))
}
