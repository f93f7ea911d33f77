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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inspectorFixture = `{
  "metaData": {
    "detailedMatchList": [
      {
        "ruleName": "Authentication: JWT",
        "confidence": "High",
        "fileName": "/src/app/auth.py",
        "excerpt": "jwt.encode(payload, secret)"
      },
      {
        "ruleName": "Authentication: JWT",
        "confidence": "Medium",
        "fileName": "/src/app/tokens.py",
        "excerpt": "jwt.decode(token)"
      },
      {
        "ruleName": "Data: SQL Database",
        "confidence": "High",
        "fileName": "/src/app/db.py",
        "excerpt": "import sqlalchemy"
      },
      {
        "ruleName": "",
        "confidence": "Low",
        "fileName": "/src/app/misc.py",
        "excerpt": ""
      }
    ]
  }
}`

func TestParseInspectorReport(t *testing.T) {
	features, err := ParseInspectorReport([]byte(inspectorFixture), "/src")
	require.NoError(t, err)
	require.Len(t, features, 2, "duplicates and unnamed matches are dropped")

	jwt := features[0]
	assert.Equal(t, "Authentication: JWT", jwt.Feature)
	assert.Equal(t, "High", jwt.Confidence, "first evidence wins")
	assert.Equal(t, "app/auth.py", jwt.EvidenceFile)
	assert.Equal(t, "jwt.encode(payload, secret)", jwt.Excerpt)

	sql := features[1]
	assert.Equal(t, "Data: SQL Database", sql.Feature)
}

func TestParseInspectorReport_Invalid(t *testing.T) {
	_, err := ParseInspectorReport([]byte("not json"), "/src")
	require.Error(t, err)
}
