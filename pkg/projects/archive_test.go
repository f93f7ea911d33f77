// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package projects

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	errs "github.com/grepmarx/grepmarx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestValidateArchive(t *testing.T) {
	path := writeZip(t, map[string]string{"main.go": "package main"})
	assert.NoError(t, ValidateArchive(path))
}

func TestValidateArchive_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-zip.zip")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o640))

	err := ValidateArchive(path)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeBadRequest))
}

func TestHashArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.zip")
	content := []byte("some archive bytes")
	require.NoError(t, os.WriteFile(path, content, 0o640))

	got, err := HashArchive(path)
	require.NoError(t, err)

	want := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestExtractArchive(t *testing.T) {
	path := writeZip(t, map[string]string{
		"main.go":        "package main",
		"pkg/helper.go":  "package pkg",
		"vendor/dep.go":  "package dep",
		IgnoreFilename:   "vendor/\n",
	})
	dest := t.TempDir()

	extracted, err := ExtractArchive(path, dest)
	require.NoError(t, err)
	assert.Equal(t, 3, extracted)

	_, err = os.Stat(filepath.Join(dest, "main.go"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "pkg", "helper.go"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "vendor", "dep.go"))
	assert.True(t, os.IsNotExist(err), "ignored path must not be extracted")
}

func TestExtractArchive_DottedNames(t *testing.T) {
	path := writeZip(t, map[string]string{
		"a..b.txt":       "dots in a filename are fine",
		"docs/v1..2.txt": "so are dots in a nested one",
	})
	dest := t.TempDir()

	extracted, err := ExtractArchive(path, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, extracted)

	_, err = os.Stat(filepath.Join(dest, "a..b.txt"))
	assert.NoError(t, err)
}

func TestExtractArchive_ZipSlip(t *testing.T) {
	path := writeZip(t, map[string]string{"../escape.txt": "pwned"})

	_, err := ExtractArchive(path, t.TempDir())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeBadRequest))
}

func TestHasParentSegment(t *testing.T) {
	assert.True(t, hasParentSegment("../escape.txt"))
	assert.True(t, hasParentSegment("src/../../escape.txt"))
	assert.False(t, hasParentSegment("a..b.txt"))
	assert.False(t, hasParentSegment("src/a..b/file.txt"))
}
