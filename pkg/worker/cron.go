// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package worker

import (
	"context"
	"fmt"

	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/pkg/rules"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartRuleRefresh schedules periodic pulls of every registered rule
// repository. An empty schedule disables the cron. The returned stop
// function waits for a running refresh to complete.
func StartRuleRefresh(ctx context.Context, s *store.Store, rulesPath, schedule string) (func(), error) {
	if schedule == "" {
		return func() {}, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		zap.L().Info("scheduled rule repository refresh starting")
		if err := rules.RefreshAll(ctx, s, rulesPath); err != nil {
			zap.L().Error("scheduled rule repository refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid rule refresh schedule %q: %w", schedule, err)
	}

	c.Start()
	zap.L().Info("rule repository refresh scheduled", zap.String("schedule", schedule))
	return func() { <-c.Stop().Done() }, nil
}
