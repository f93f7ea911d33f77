// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package schemas

// LoginRequest is the payload of a password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token issued at login.
type LoginResponse struct {
	Token     string `json:"token"     yaml:"token"`
	ExpiresIn int64  `json:"expiresIn" yaml:"expiresIn"`
	Username  string `json:"username"  yaml:"username"`
	Role      Role   `json:"role"      yaml:"role"`
}

// ChangePasswordRequest is the payload for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword"     binding:"required,min=8"`
}

// UserRequest is the payload for creating or updating a user.
type UserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	TeamIDs  []uint `json:"teamIDs"`
}

// TeamRequest is the payload for creating or updating a team.
type TeamRequest struct {
	Name       string `json:"name" binding:"required"`
	MemberIDs  []uint `json:"memberIDs"`
	ProjectIDs []uint `json:"projectIDs"`
}

// AnalysisRequest is the payload for launching a scan.
type AnalysisRequest struct {
	RulePackIDs []uint `json:"rulePackIDs" binding:"required,min=1"`
}

// AnalysisAcceptedResponse is returned when a scan has been queued.
type AnalysisAcceptedResponse struct {
	AnalysisID uint   `json:"analysisID" yaml:"analysisID"`
	TaskID     TaskID `json:"taskID"     yaml:"taskID"`
}

// OccurrenceStatusRequest is the payload for triaging an occurrence.
type OccurrenceStatusRequest struct {
	Status ReviewStatus `json:"status" binding:"required"`
}

// DependencyPrioritizationRequest is the payload for updating the
// triage bits of a vulnerable dependency.
type DependencyPrioritizationRequest struct {
	HasPoC                  bool `json:"hasPoC"`
	Reachable               bool `json:"reachable"`
	VendorConfirmed         bool `json:"vendorConfirmed"`
	ReachableAndExploitable bool `json:"reachableAndExploitable"`
}

// RuleRepositoryRequest is the payload for registering a rule repository.
type RuleRepositoryRequest struct {
	Name   string `json:"name" binding:"required"`
	URI    string `json:"uri"  binding:"required"`
	Branch string `json:"branch"`
}

// RulePackRequest is the payload for creating or updating a rule pack.
// RuleIDs is a comma-separated id list, the way the rule browser
// submits its selection.
type RulePackRequest struct {
	Name        string `json:"name" binding:"required"`
	RuleIDs     string `json:"ruleIDs" binding:"required"`
	LanguageIDs []uint `json:"languageIDs" binding:"required,min=1"`
}

// LdapConfigurationRequest is the payload for updating the directory
// settings.
type LdapConfigurationRequest struct {
	Enabled               bool   `json:"enabled"`
	ServerHost            string `json:"serverHost"`
	ServerPort            int    `json:"serverPort"`
	BindDN                string `json:"bindDN"`
	BindPassword          string `json:"bindPassword"`
	BaseDN                string `json:"baseDN"`
	UsersApprovalRequired bool   `json:"usersApprovalRequired"`
	UserObjectFilter      string `json:"userObjectFilter"`
	GroupObjectFilter     string `json:"groupObjectFilter"`
}

// ProjectRiskSummary is one project's entry in the dashboard risk
// overview.
type ProjectRiskSummary struct {
	ID               uint   `json:"id"               yaml:"id"`
	Name             string `json:"name"             yaml:"name"`
	RiskLevel        int    `json:"riskLevel"        yaml:"riskLevel"`
	OccurrencesCount int    `json:"occurrencesCount" yaml:"occurrencesCount"`
}

// DashboardResponse is the landing page summary.
type DashboardResponse struct {
	ProjectCount      int64                `json:"projectCount"      yaml:"projectCount"`
	UserCount         int64                `json:"userCount"         yaml:"userCount"`
	RuleCount         int64                `json:"ruleCount"         yaml:"ruleCount"`
	PendingScans      int64                `json:"pendingScans"      yaml:"pendingScans"`
	Projects          []ProjectRiskSummary `json:"projects"          yaml:"projects"`
	SeverityHistogram map[Severity]int64   `json:"severityHistogram" yaml:"severityHistogram"`
	RecentAnalyses    any                  `json:"recentAnalyses"    yaml:"recentAnalyses"`
}
