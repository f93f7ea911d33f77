// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package api

import (
	"context"
	"sync"

	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

// EventFeed buffers the most recent scan completion events published by
// the workers, so dashboard clients can poll for finished scans without
// talking to redis themselves.
type EventFeed struct {
	mu     sync.RWMutex
	events []schemas.ScanEvent
	size   int
}

// NewEventFeed creates a feed retaining the last size events.
func NewEventFeed(size int) *EventFeed {
	if size < 1 {
		size = 1
	}
	return &EventFeed{size: size}
}

// Run subscribes to the scan event channel and buffers incoming events
// until the context is canceled. It blocks, callers run it in its own
// goroutine.
func (f *EventFeed) Run(ctx context.Context, q *queue.Client) error {
	events, err := q.SubscribeEvents(ctx)
	if err != nil {
		return err
	}
	for event := range events {
		zap.L().Info("scan event received",
			zap.Uint("analysis_id", event.AnalysisID),
			zap.String("status", string(event.Status)))
		f.add(event)
	}
	return nil
}

// Recent returns the buffered events, most recent last.
func (f *EventFeed) Recent() []schemas.ScanEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]schemas.ScanEvent, len(f.events))
	copy(out, f.events)
	return out
}

func (f *EventFeed) add(event schemas.ScanEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	if len(f.events) > f.size {
		f.events = f.events[len(f.events)-f.size:]
	}
}
