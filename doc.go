// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package grepmarx is a package to provide the Grepmarx application,
// a source code security audit platform for static application security testing.
// Auditors upload source archives as projects, run pattern-based scans driven
// by rule packs, and review the resulting vulnerabilities, dependency advisories
// and discovered technologies through a JSON API.
package grepmarx
