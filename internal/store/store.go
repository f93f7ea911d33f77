// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package store provides the relational persistence layer for Grepmarx.
// It is backed by gorm with either a sqlite (default) or postgres driver.
package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
)

// Store wraps the gorm handle and exposes the repositories.
type Store struct {
	db *gorm.DB
}

// Open connects to the database described by dbType and dsn.
// For sqlite an empty dsn means an in-memory database.
func Open(dbType, dsn string) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	switch dbType {
	case DBTypeSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	case DBTypePostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open %s database: %w", dbType, err)
	}

	return &Store{db: db}, nil
}

// Migrate creates or updates the schema for all entities.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&User{},
		&Team{},
		&LdapConfiguration{},
		&Project{},
		&ProjectLinesCount{},
		&LanguageLinesCount{},
		&Analysis{},
		&Vulnerability{},
		&Occurrence{},
		&VulnerableDependency{},
		&InspectorFeature{},
		&Rule{},
		&RuleRepository{},
		&RulePack{},
		&SupportedLanguage{},
	)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("unable to get database handle: %w", err)
	}
	return sqlDB.Close()
}

// isUniqueViolation reports whether err is a unique constraint failure.
// Both drivers report these with their own error text, so match on the
// gorm sentinel first and fall back to the driver messages.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
