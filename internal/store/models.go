// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package store

import (
	"time"

	"github.com/grepmarx/grepmarx/pkg/schemas"
)

// User is a local or LDAP-backed account.
type User struct {
	ID             uint   `gorm:"primaryKey"       json:"id"`
	Username       string `gorm:"uniqueIndex;size:128" json:"username"`
	Email          string `gorm:"size:256"         json:"email"`
	HashedPassword string `gorm:"size:128"         json:"-"`
	Role           schemas.Role `gorm:"size:16"    json:"role"`
	FromLDAP       bool   `json:"fromLDAP"`
	Teams          []*Team `gorm:"many2many:team_members" json:"teams,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Team groups users and the projects they may audit.
type Team struct {
	ID       uint       `gorm:"primaryKey"           json:"id"`
	Name     string     `gorm:"uniqueIndex;size:128" json:"name"`
	Members  []*User    `gorm:"many2many:team_members"  json:"members,omitempty"`
	Projects []*Project `gorm:"many2many:team_projects" json:"projects,omitempty"`
}

// LdapConfiguration mirrors the directory settings editable at runtime.
// A single row is kept; config file values seed it on first start.
type LdapConfiguration struct {
	ID                    uint   `gorm:"primaryKey" json:"id"`
	Enabled               bool   `json:"enabled"`
	ServerHost            string `json:"serverHost"`
	ServerPort            int    `json:"serverPort"`
	BindDN                string `json:"bindDN"`
	BindPassword          string `json:"-"`
	BaseDN                string `json:"baseDN"`
	UsersApprovalRequired bool   `json:"usersApprovalRequired"`
	UserObjectFilter      string `json:"userObjectFilter"`
	GroupObjectFilter     string `json:"groupObjectFilter"`
}

// Project is an uploaded source archive under audit.
type Project struct {
	ID                uint   `gorm:"primaryKey"       json:"id"`
	Name              string `gorm:"uniqueIndex;size:256" json:"name"`
	CreatorID         uint   `json:"creatorID"`
	Creator           *User  `json:"creator,omitempty"`
	ArchiveFilename   string `json:"archiveFilename"`
	ArchiveSHA256     string `gorm:"size:64" json:"archiveSHA256"`
	RiskLevel         int    `json:"riskLevel"`
	OccurrencesCount  int    `json:"occurrencesCount"`
	LinesCount        *ProjectLinesCount `gorm:"constraint:OnDelete:CASCADE" json:"linesCount,omitempty"`
	Analyses          []Analysis `gorm:"constraint:OnDelete:CASCADE" json:"analyses,omitempty"`
	Teams             []*Team    `gorm:"many2many:team_projects" json:"teams,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ProjectLinesCount aggregates the scc output for a project.
type ProjectLinesCount struct {
	ID                   uint `gorm:"primaryKey" json:"id"`
	ProjectID            uint `gorm:"index"      json:"projectID"`
	TotalFileCount       int  `json:"totalFileCount"`
	TotalLineCount       int  `json:"totalLineCount"`
	TotalBlankCount      int  `json:"totalBlankCount"`
	TotalCommentCount    int  `json:"totalCommentCount"`
	TotalCodeCount       int  `json:"totalCodeCount"`
	TotalComplexityCount int  `json:"totalComplexityCount"`
	LanguageLinesCounts  []LanguageLinesCount `gorm:"constraint:OnDelete:CASCADE" json:"languageLinesCounts,omitempty"`
}

// LanguageLinesCount is the per-language slice of a ProjectLinesCount.
type LanguageLinesCount struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	ProjectLinesCountID uint   `gorm:"index"      json:"-"`
	Language            string `gorm:"size:64"    json:"language"`
	FileCount           int    `json:"fileCount"`
	LineCount           int    `json:"lineCount"`
	BlankCount          int    `json:"blankCount"`
	CommentCount        int    `json:"commentCount"`
	CodeCount           int    `json:"codeCount"`
	ComplexityCount     int    `json:"complexityCount"`
}

// Analysis is one scan of a project: a SAST pass driven by rule packs,
// plus the SCA and inspector passes.
type Analysis struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ProjectID  uint `gorm:"index"      json:"projectID"`
	// TaskID is the queue task executing (or having executed) this
	// analysis. Stored as text to stay portable across drivers.
	TaskID     string                 `gorm:"size:36;index" json:"taskID"`
	Status     schemas.AnalysisStatus `gorm:"size:16"       json:"status"`
	Error      string                 `json:"error,omitempty"`
	RulePacks  []*RulePack            `gorm:"many2many:analysis_rule_packs" json:"rulePacks,omitempty"`
	StartedAt  *time.Time             `json:"startedAt,omitempty"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
	Vulnerabilities        []Vulnerability        `gorm:"constraint:OnDelete:CASCADE" json:"vulnerabilities,omitempty"`
	VulnerableDependencies []VulnerableDependency `gorm:"constraint:OnDelete:CASCADE" json:"vulnerableDependencies,omitempty"`
	InspectorFeatures      []InspectorFeature     `gorm:"constraint:OnDelete:CASCADE" json:"inspectorFeatures,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Vulnerability is a finding produced by the rule engine, grouping all
// occurrences of a single rule match.
type Vulnerability struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	AnalysisID  uint             `gorm:"index"      json:"analysisID"`
	Title       string           `gorm:"size:256"   json:"title"`
	Severity    schemas.Severity `gorm:"size:16"    json:"severity"`
	Description string           `json:"description,omitempty"`
	CWE         string           `gorm:"size:256" json:"cwe,omitempty"`
	OWASP       string           `gorm:"size:256" json:"owasp,omitempty"`
	References  string           `json:"references,omitempty"`
	Occurrences []Occurrence     `gorm:"constraint:OnDelete:CASCADE" json:"occurrences,omitempty"`
}

// Occurrence is a single location where a vulnerability matched.
type Occurrence struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	VulnerabilityID uint   `gorm:"index"      json:"vulnerabilityID"`
	FilePath        string `gorm:"size:1024"  json:"filePath"`
	MatchString     string `json:"matchString,omitempty"`
	Hunk            string `json:"hunk,omitempty"`
	StartLine       int    `json:"startLine"`
	StartColumn     int    `json:"startColumn"`
	EndLine         int    `json:"endLine"`
	EndColumn       int    `json:"endColumn"`
	ReviewStatus    schemas.ReviewStatus `gorm:"size:16" json:"reviewStatus"`
}

// VulnerableDependency is an SCA advisory for a third-party package,
// including the prioritization bits auditors maintain during review.
type VulnerableDependency struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	AnalysisID uint             `gorm:"index"      json:"analysisID"`
	PkgType    string           `gorm:"size:64"    json:"pkgType"`
	PkgRef     string           `gorm:"size:512"   json:"pkgRef"`
	Advisory   string           `gorm:"size:64"    json:"advisory"`
	Severity   schemas.Severity `gorm:"size:16"    json:"severity"`
	CVSSScore  float64          `json:"cvssScore"`
	FixVersion string           `gorm:"size:128" json:"fixVersion,omitempty"`
	Summary    string           `json:"summary,omitempty"`

	HasPoC                  bool `gorm:"column:has_poc" json:"hasPoC"`
	Reachable               bool `json:"reachable"`
	VendorConfirmed         bool `json:"vendorConfirmed"`
	ReachableAndExploitable bool `json:"reachableAndExploitable"`
}

// InspectorFeature is a technology or framework discovered by the
// feature-discovery inspector.
type InspectorFeature struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	AnalysisID   uint    `gorm:"index"      json:"analysisID"`
	Feature      string  `gorm:"size:256"   json:"feature"`
	Confidence   string  `gorm:"size:32"    json:"confidence"`
	EvidenceFile string  `gorm:"size:1024"  json:"evidenceFile,omitempty"`
	Excerpt      string  `json:"excerpt,omitempty"`
}

// Rule is a single pattern-matching rule imported from a rule repository.
// FilePath is the identity preserved across syncs so rule packs stay
// consistent when repositories are refreshed.
type Rule struct {
	ID               uint   `gorm:"primaryKey"            json:"id"`
	Title            string `gorm:"size:256"              json:"title"`
	FilePath         string `gorm:"uniqueIndex;size:1024" json:"filePath"`
	RuleRepositoryID uint   `gorm:"index"                 json:"repositoryID"`
	Repository       *RuleRepository  `gorm:"foreignKey:RuleRepositoryID" json:"repository,omitempty"`
	Category         string           `gorm:"size:256" json:"category"`
	CWE              string           `gorm:"size:256" json:"cwe,omitempty"`
	OWASP            string           `gorm:"size:256" json:"owasp,omitempty"`
	Severity         schemas.Severity `gorm:"size:16"  json:"severity"`
	Languages        []*SupportedLanguage `gorm:"many2many:rule_languages" json:"languages,omitempty"`
}

// RuleRepository is a git repository holding rule files.
type RuleRepository struct {
	ID           uint       `gorm:"primaryKey"           json:"id"`
	Name         string     `gorm:"uniqueIndex;size:128" json:"name"`
	URI          string     `gorm:"size:512"             json:"uri"`
	Branch       string     `gorm:"size:128"             json:"branch,omitempty"`
	LastUpdateOn *time.Time `json:"lastUpdateOn,omitempty"`
	Rules        []Rule     `gorm:"constraint:OnDelete:CASCADE" json:"rules,omitempty"`
}

// RulePack is a named selection of rules used to drive a scan.
type RulePack struct {
	ID        uint                 `gorm:"primaryKey"           json:"id"`
	Name      string               `gorm:"uniqueIndex;size:128" json:"name"`
	Builtin   bool                 `json:"builtin"`
	Languages []*SupportedLanguage `gorm:"many2many:rule_pack_languages" json:"languages,omitempty"`
	Rules     []*Rule              `gorm:"many2many:rule_pack_rules"     json:"rules,omitempty"`
}

// SupportedLanguage is a language the rule engine can scan.
type SupportedLanguage struct {
	ID         uint   `gorm:"primaryKey"          json:"id"`
	Name       string `gorm:"uniqueIndex;size:64" json:"name"`
	Extensions string `gorm:"size:256"            json:"extensions"`
}
