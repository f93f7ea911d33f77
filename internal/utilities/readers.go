// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package utilities holds small helpers shared across the application.
package utilities

import "go.uber.org/zap"

type Closer interface {
	Close() error
}

// CloseAndLog closes a resource and logs any error that occurs.
// It should be used for defers to ensure that the resource is closed
// properly and any errors are logged.
func CloseAndLog(c Closer) {
	if err := c.Close(); err != nil {
		zap.L().Error("failed to close", zap.Error(err))
	}
}
