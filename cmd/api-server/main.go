// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Entrypoint for the API server.
// The API server exposes the RESTful API auditors use to manage
// projects, rules and scans. Scans themselves are queued over redis
// and executed by the worker process.
package main

import (
	"context"

	"github.com/grepmarx/grepmarx/internal/config"
	"github.com/grepmarx/grepmarx/internal/store"
	"github.com/grepmarx/grepmarx/internal/utilities"
	"github.com/grepmarx/grepmarx/pkg/api"
	"github.com/grepmarx/grepmarx/pkg/identities"
	"github.com/grepmarx/grepmarx/pkg/queue"
	"github.com/grepmarx/grepmarx/pkg/rules"
	"github.com/grepmarx/grepmarx/pkg/schemas"
	"go.uber.org/zap"
)

func init() {
	config.Init()
}

func main() {
	ctx := context.Background()
	l := zap.L()
	l.Info("starting api server")

	l.Debug("config file loaded", zap.Any("config_file", config.State))

	s, err := store.Open(config.State.Database.Type, config.State.Database.DSN)
	if err != nil {
		l.With(zap.Error(err)).Fatal("unable to open database")
	}
	defer utilities.CloseAndLog(s)

	if err := s.Migrate(); err != nil {
		l.With(zap.Error(err)).Fatal("unable to migrate database")
	}
	if err := s.SeedSupportedLanguages(ctx, rules.DefaultSupportedLanguages()); err != nil {
		l.With(zap.Error(err)).Fatal("unable to seed supported languages")
	}
	if err := bootstrapAdmin(ctx, s); err != nil {
		l.With(zap.Error(err)).Fatal("unable to create bootstrap account")
	}

	q, err := queue.NewClient(queue.Options{
		URL:          config.State.Redis.URL,
		Queue:        config.State.Redis.Queue,
		EventChannel: config.State.Redis.EventChannel,
	})
	if err != nil {
		l.With(zap.Error(err)).Fatal("unable to connect to redis")
	}
	defer utilities.CloseAndLog(q)

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	feed := api.NewEventFeed(64)
	go func() {
		if err := feed.Run(feedCtx, q); err != nil {
			l.With(zap.Error(err)).Error("scan event feed stopped")
		}
	}()

	l.Debug("initializing api")
	engine, err := api.InitializeEngine(s, q, feed)
	if err != nil {
		l.With(zap.Error(err)).Fatal("unable to initialize api router")
	}

	err = api.RunEngine(engine)
	if err != nil {
		l.With(zap.Error(err)).Fatal("http server exited with error")
	}
}

// bootstrapAdmin creates the initial administrator account when the
// user table is empty, so a fresh install can be logged into.
func bootstrapAdmin(ctx context.Context, s *store.Store) error {
	count, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	bootstrap := config.State.Auth.Bootstrap
	hash, err := identities.HashPassword(bootstrap.Password)
	if err != nil {
		return err
	}
	user := &store.User{
		Username:       bootstrap.Username,
		HashedPassword: hash,
		Role:           schemas.RoleAdmin,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return err
	}

	zap.L().Warn("bootstrap administrator created, change its password immediately",
		zap.String("username", bootstrap.Username))
	return nil
}
