// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package projects

import (
	"fmt"
	"path/filepath"
)

// Dir returns the on-disk folder of a project under the projects
// storage path.
func Dir(projectsPath string, projectID uint) string {
	return filepath.Join(projectsPath, fmt.Sprintf("project-%d", projectID))
}

// ArchivePath returns where a project's uploaded archive is kept.
func ArchivePath(projectsPath string, projectID uint) string {
	return filepath.Join(Dir(projectsPath, projectID), "archive.zip")
}

// SourceDir returns where a project's archive is extracted to.
func SourceDir(projectsPath string, projectID uint) string {
	return filepath.Join(Dir(projectsPath, projectID), "src")
}
