// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package worker consumes scan tasks from the queue and executes them.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// dequeueTimeout bounds each blocking pop so workers notice shutdown.
const dequeueTimeout = 5 * time.Second

// ScanRunner executes one scan task and reports its outcome.
type ScanRunner interface {
	Execute(ctx context.Context, task schemas.ScanTask) schemas.ScanEvent
}

// Worker runs a pool of goroutines consuming the scan queue.
type Worker struct {
	queue       *queue.Client
	runner      ScanRunner
	concurrency int
}

// New builds a worker pool over the given queue and runner.
func New(q *queue.Client, runner ScanRunner, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		queue:       q,
		runner:      runner,
		concurrency: concurrency,
	}
}

// Run consumes tasks until the context is canceled, then waits for the
// in-flight scans to finish before returning. A scan already running is
// never interrupted by shutdown.
func (w *Worker) Run(ctx context.Context) {
	zap.L().Info("worker pool starting", zap.Int("concurrency", w.concurrency))

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.consume(ctx, slot)
		}(i)
	}
	wg.Wait()
	zap.L().Info("worker pool stopped")
}

func (w *Worker) consume(ctx context.Context, slot int) {
	logger := zap.L().With(zap.Int("slot", slot))
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("unable to dequeue scan task", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		logger.Info("scan task picked up",
			zap.String("task_id", task.ID.String()),
			zap.Uint("analysis_id", task.AnalysisID))

		// run the scan under a background context so an in-flight
		// scan survives shutdown
		event := w.runner.Execute(context.Background(), *task)

		logger.Info("scan task finished",
			zap.String("task_id", task.ID.String()),
			zap.String("status", string(event.Status)))

		if err := w.queue.PublishEvent(context.Background(), event); err != nil {
			logger.Error("unable to publish scan event", zap.Error(err))
		}
	}
}
