// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package projects manages uploaded source archives: validation,
// extraction, line counting and the project risk score.
package projects

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/grepmarx/grepmarx/internal/utilities"
	errs "github.com/grepmarx/grepmarx/pkg/errors"
)

// IgnoreFilename is looked up at the archive root; paths it matches are
// excluded from extraction the way a .gitignore excludes files.
const IgnoreFilename = ".grepmarxignore"

// encryptedFlagBit marks an encrypted entry in the zip general purpose
// bit flags.
const encryptedFlagBit = 0x1

// hashBlockSize is the read granularity when digesting archives.
const hashBlockSize = 4096

// ValidateArchive checks that the file at path is a readable zip
// archive with no encrypted entries.
func ValidateArchive(path string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return errs.New(errs.TypeBadRequest, err, "file is not a valid zip archive")
	}
	defer utilities.CloseAndLog(reader)

	for _, file := range reader.File {
		if file.Flags&encryptedFlagBit != 0 {
			return errs.New(errs.TypeBadRequest, nil,
				"archive entry %q is encrypted, password-protected archives are not supported", file.Name)
		}
	}
	return nil
}

// HashArchive computes the hex SHA-256 digest of the file at path,
// reading it in fixed-size blocks.
func HashArchive(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open archive: %w", err)
	}
	defer utilities.CloseAndLog(f)

	digest := sha256.New()
	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", fmt.Errorf("unable to hash archive: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// ExtractArchive unpacks the zip archive at archivePath into destDir.
// Entries escaping the destination directory are rejected, and entries
// matched by the archive's ignore file are skipped. It returns the
// number of files written.
func ExtractArchive(archivePath, destDir string) (int, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, errs.New(errs.TypeBadRequest, err, "file is not a valid zip archive")
	}
	defer utilities.CloseAndLog(reader)

	matcher := loadIgnoreMatcher(&reader.Reader)

	extracted := 0
	for _, file := range reader.File {
		name := filepath.ToSlash(file.Name)
		if hasParentSegment(name) {
			return extracted, errs.New(errs.TypeBadRequest, nil,
				"archive entry %q escapes the extraction directory", file.Name)
		}
		if matcher != nil && matcher.MatchesPath(name) {
			continue
		}

		target := filepath.Join(destDir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return extracted, errs.New(errs.TypeBadRequest, nil,
				"archive entry %q escapes the extraction directory", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return extracted, fmt.Errorf("unable to create directory: %w", err)
			}
			continue
		}

		if err := extractFile(file, target); err != nil {
			return extracted, err
		}
		extracted++
	}
	return extracted, nil
}

// hasParentSegment reports whether a slash-separated entry name holds
// a ".." path segment. Names merely containing two dots, like
// "a..b.txt", are legitimate.
func hasParentSegment(name string) bool {
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

func extractFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("unable to read archive entry %q: %w", file.Name, err)
	}
	defer utilities.CloseAndLog(src)

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", target, err)
	}
	defer utilities.CloseAndLog(dst)

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("unable to extract %q: %w", file.Name, err)
	}
	return nil
}

// loadIgnoreMatcher reads the ignore file from the archive root, if
// present. A missing or unreadable ignore file disables filtering.
func loadIgnoreMatcher(reader *zip.Reader) *ignore.GitIgnore {
	for _, file := range reader.File {
		if filepath.ToSlash(file.Name) != IgnoreFilename {
			continue
		}
		src, err := file.Open()
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return nil
		}
		return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
	}
	return nil
}
