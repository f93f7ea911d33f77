// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package store

import (
	"context"
	"errors"

	errs "github.com/grepmarx/grepmarx/pkg/errors"
	"gorm.io/gorm"
)

// CreateUser persists a new user. The username must be free.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isUniqueViolation(err) {
			return errs.New(errs.TypeConflict, err, "user %q already exists", user.Username)
		}
		return err
	}
	return nil
}

// GetUser fetches a user by id, teams preloaded.
func (s *Store) GetUser(ctx context.Context, id uint) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Preload("Teams").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "user %d not found", id)
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername fetches a user by username, teams preloaded.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).
		Preload("Teams").
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "user %q not found", username)
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users without team associations.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser saves changes to an existing user.
func (s *Store) UpdateUser(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// DeleteUser removes the user and its team memberships.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Association("Teams").Clear(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(user).Error
}

// CountUsers returns the total number of accounts. Used at startup to
// decide whether the bootstrap admin must be created.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateTeam persists a new team.
func (s *Store) CreateTeam(ctx context.Context, team *Team) error {
	err := s.db.WithContext(ctx).Create(team).Error
	if err != nil && isUniqueViolation(err) {
		return errs.New(errs.TypeConflict, err, "team %q already exists", team.Name)
	}
	return err
}

// GetTeam fetches a team with members and projects preloaded.
func (s *Store) GetTeam(ctx context.Context, id uint) (*Team, error) {
	var team Team
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Projects").
		First(&team, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.TypeNotFound, err, "team %d not found", id)
		}
		return nil, err
	}
	return &team, nil
}

// ListTeams returns all teams with their members.
func (s *Store) ListTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := s.db.WithContext(ctx).Preload("Members").Order("name").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// UpdateTeam saves changes to an existing team, replacing associations.
func (s *Store) UpdateTeam(ctx context.Context, team *Team) error {
	if err := s.db.WithContext(ctx).Model(team).Association("Members").Replace(team.Members); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(team).Association("Projects").Replace(team.Projects); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(team).Error
}

// DeleteTeam removes a team. Members and projects survive.
func (s *Store) DeleteTeam(ctx context.Context, id uint) error {
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(team).Association("Members").Clear(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(team).Association("Projects").Clear(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(team).Error
}

// UserTeamIDs returns the ids of the teams the user belongs to.
func (s *Store) UserTeamIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Table("team_members").
		Where("user_id = ?", userID).
		Pluck("team_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetLdapConfiguration returns the single directory configuration row,
// or an empty disabled configuration when none is stored yet.
func (s *Store) GetLdapConfiguration(ctx context.Context) (*LdapConfiguration, error) {
	var cfg LdapConfiguration
	err := s.db.WithContext(ctx).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &LdapConfiguration{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveLdapConfiguration upserts the directory configuration.
func (s *Store) SaveLdapConfiguration(ctx context.Context, cfg *LdapConfiguration) error {
	return s.db.WithContext(ctx).Save(cfg).Error
}
