// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Entrypoint for the operator command line.
// grepmarxctl performs the administrative tasks that do not belong in
// the web API: database migration, account creation and rule
// repository management on the host.
package main

import (
	"os"

	"github.com/grepmarx/grepmarx/cmd/grepmarxctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
