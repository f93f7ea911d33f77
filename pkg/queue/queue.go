// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package queue implements the redis-backed task queue that connects
// the API server to the scan worker. Scan tasks are JSON envelopes on a
// redis list; completion events are published on a pub/sub channel.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/grepmarx/grepmarx/pkg/schemas"
	"github.com/redis/go-redis/v9"
)

// Options configures the redis connection and key names.
type Options struct {
	// URL is the redis connection string (e.g. "redis://localhost:6379").
	URL string
	// Queue is the list name holding pending scan tasks.
	Queue string
	// EventChannel is the pub/sub channel for scan completion events.
	EventChannel string
	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration
}

// Client is the redis-backed implementation of the scan queue.
type Client struct {
	client  *redis.Client
	queue   string
	channel string
}

// NewClient creates a new queue client and verifies the connection.
func NewClient(opts Options) (*Client, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Queue == "" {
		opts.Queue = "grepmarx:scans"
	}
	if opts.EventChannel == "" {
		opts.EventChannel = "grepmarx:events"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return &Client{
		client:  client,
		queue:   opts.Queue,
		channel: opts.EventChannel,
	}, nil
}

// Enqueue pushes a scan task on the queue.
func (c *Client) Enqueue(ctx context.Context, task schemas.ScanTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("unable to marshal scan task: %w", err)
	}
	if err := c.client.LPush(ctx, c.queue, data).Err(); err != nil {
		return fmt.Errorf("unable to push to queue %s: %w", c.queue, err)
	}
	return nil
}

// Dequeue blocks until a scan task is available or the context is
// canceled. It returns nil without error when the pop times out.
func (c *Client) Dequeue(ctx context.Context, timeout time.Duration) (*schemas.ScanTask, error) {
	result, err := c.client.BRPop(ctx, timeout, c.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to pop from queue %s: %w", c.queue, err)
	}

	// BRPOP returns [queue_name, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	var task schemas.ScanTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("unable to unmarshal scan task: %w", err)
	}
	return &task, nil
}

// Pending returns the number of tasks waiting on the queue.
func (c *Client) Pending(ctx context.Context) (int64, error) {
	return c.client.LLen(ctx, c.queue).Result()
}

// PublishEvent publishes a scan completion event.
func (c *Client) PublishEvent(ctx context.Context, event schemas.ScanEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("unable to marshal scan event: %w", err)
	}
	if err := c.client.Publish(ctx, c.channel, data).Err(); err != nil {
		return fmt.Errorf("unable to publish to channel %s: %w", c.channel, err)
	}
	return nil
}

// SubscribeEvents subscribes to scan completion events. The returned
// channel is closed when the context is canceled.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan schemas.ScanEvent, error) {
	pubsub := c.client.Subscribe(ctx, c.channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("unable to subscribe to channel %s: %w", c.channel, err)
	}

	events := make(chan schemas.ScanEvent)
	go func() {
		defer close(events)
		defer func() { _ = pubsub.Close() }()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event schemas.ScanEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// Close closes the redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
