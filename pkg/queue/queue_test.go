// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestEnqueueDequeue(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	task := schemas.ScanTask{
		ID:         uuid.New(),
		AnalysisID: 42,
		EnqueuedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, client.Enqueue(ctx, task))

	pending, err := client.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	got, err := client.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, uint(42), got.AnalysisID)
}

func TestDequeue_Order(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := schemas.ScanTask{ID: uuid.New(), AnalysisID: 1}
	second := schemas.ScanTask{ID: uuid.New(), AnalysisID: 2}
	require.NoError(t, client.Enqueue(ctx, first))
	require.NoError(t, client.Enqueue(ctx, second))

	got, err := client.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint(1), got.AnalysisID, "queue must be FIFO")
}

func TestDequeue_Timeout(t *testing.T) {
	client := newTestClient(t)

	got, err := client.Dequeue(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}
