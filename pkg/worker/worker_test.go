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
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu    sync.Mutex
	tasks []schemas.ScanTask
	done  chan struct{}
}

func (r *recordingRunner) Execute(_ context.Context, task schemas.ScanTask) schemas.ScanEvent {
	r.mu.Lock()
	r.tasks = append(r.tasks, task)
	count := len(r.tasks)
	r.mu.Unlock()
	if count == cap(r.tasks) {
		close(r.done)
	}
	return schemas.ScanEvent{
		TaskID:     task.ID,
		AnalysisID: task.AnalysisID,
		Status:     schemas.AnalysisStatusSuccess,
		FinishedAt: time.Now().UTC(),
	}
}

func TestWorker_ConsumesTasks(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := queue.NewClient(queue.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const taskCount = 3
	runner := &recordingRunner{
		tasks: make([]schemas.ScanTask, 0, taskCount),
		done:  make(chan struct{}),
	}
	for i := 1; i <= taskCount; i++ {
		require.NoError(t, client.Enqueue(ctx, schemas.ScanTask{
			ID:         uuid.New(),
			AnalysisID: uint(i),
		}))
	}

	w := New(client, runner, 2)
	stopped := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(stopped)
	}()

	select {
	case <-runner.done:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not consume all tasks in time")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Len(t, runner.tasks, taskCount)

	pending, err := client.Pending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}
