// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Entrypoint for the scan worker.
// The worker consumes scan tasks from the redis queue, runs the
// external analysis tools over the project sources and stores the
// findings. It also refreshes rule repositories on a schedule.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/internal/utilities"
	"github.com/grepmarx/grepmarx/pkg/analysis"
	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/worker"
	"go.uber.org/zap"
)

func init() {
	config.Init()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := zap.L()
	l.Info("starting scan worker")

	s, err := store.Open(config.State.Database.Type, config.State.Database.DSN)
	if err != nil {
		l.With(zap.Error(err)).Fatal("unable to open database")
	}
	defer utilities.CloseAndLog(s)

	q, err := queue.NewClient(queue.Options{
		URL:          config.State.Redis.URL,
		Queue:        config.State.Redis.Queue,
		EventChannel: config.State.Redis.EventChannel,
	})
	if err != nil {
		l.With(zap.Error(err)).Fatal("unable to connect to redis")
	}
	defer utilities.CloseAndLog(q)

	stopRefresh, err := worker.StartRuleRefresh(
		ctx,
		s,
		config.State.Storage.RulesPath,
		config.State.Worker.RuleRefreshSchedule,
	)
	if err != nil {
		l.With(zap.Error(err)).Fatal("unable to schedule rule refresh")
	}
	defer stopRefresh()

	runner := analysis.NewRunner(s, &config.State)
	pool := worker.New(q, runner, config.State.Worker.Concurrency)
	pool.Run(ctx)

	l.Info("scan worker stopped")
}
