// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package config provides the global configuration for Grepmarx.
package config

import (
	"errors"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ScannerConfig is the configuration for one of the external analysis
// tools invoked by the worker as a subprocess.
type ScannerConfig struct {
	// Path is the path to the tool binary.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// Timeout is the maximum duration a single invocation may run for.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Config is the structure for the global configuration file for Grepmarx.
// It is loaded from a config file at startup time, and values can be overridden
// by environment variables. The config file is expected to be in YAML format.
// Environment variables are expected to be prefixed with "GREPMARX_", all capital
// and use underscores to separate nested keys. For example, the key
// "api.port" can be overridden by the environment variable "GREPMARX_API_PORT".
type Config struct {
	// Environment is the environment that Grepmarx is running in.
	Environment string `json:"environment" yaml:"environment"`

	// API is the configuration for the API server.
	API struct {
		// TLS is the configuration for TLS.
		TLS struct {
			// Enabled is whether TLS is enabled for the API.
			Enabled bool `json:"enabled" yaml:"enabled"`
			// CertPath is the path to the TLS certificate.
			CertPath string `json:"certpath" yaml:"certpath"`
			// KeyPath is the path to the TLS key.
			KeyPath string `json:"keypath" yaml:"keypath"`
		} `json:"tls"`
		// Port is the port that the API server will listen on.
		Port int `json:"port" yaml:"port"`
		// Host is the address the API server will bind to.
		Host string `json:"host" yaml:"host"`
	} `json:"api" yaml:"api"`

	// Logging is the configuration for the logger.
	Logging struct {
		// Level is the logging level.
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"logging" yaml:"logging"`

	// Database is the configuration for the relational store.
	Database struct {
		// Type is the database driver, either "sqlite" or "postgres".
		Type string `json:"type" yaml:"type"`
		// DSN is the driver-specific data source name.
		DSN string `json:"dsn" yaml:"dsn"`
	} `json:"database" yaml:"database"`

	// Redis is the configuration for the task queue broker.
	Redis struct {
		// URL is the redis connection string.
		URL string `json:"url" yaml:"url"`
		// Queue is the name of the list holding pending scan tasks.
		Queue string `json:"queue" yaml:"queue"`
		// EventChannel is the pub/sub channel scan completion events
		// are published on.
		EventChannel string `json:"eventChannel" yaml:"eventChannel" mapstructure:"eventChannel"`
	} `json:"redis" yaml:"redis"`

	// Storage is the configuration for on-disk artifacts.
	Storage struct {
		// ProjectsPath is the directory project archives are extracted under.
		ProjectsPath string `json:"projectsPath" yaml:"projectsPath" mapstructure:"projectsPath"`
		// RulesPath is the directory rule repositories are cloned under.
		RulesPath string `json:"rulesPath" yaml:"rulesPath" mapstructure:"rulesPath"`
	} `json:"storage" yaml:"storage"`

	// Scanners is the configuration for the external analysis tools.
	Scanners struct {
		// Semgrep is the pattern-matching rule engine.
		Semgrep ScannerConfig `json:"semgrep" yaml:"semgrep"`
		// Scc is the lines-of-code counter.
		Scc ScannerConfig `json:"scc" yaml:"scc"`
		// DependencyCheck is the dependency-graph / SCA generator.
		DependencyCheck ScannerConfig `json:"dependencyCheck" yaml:"dependencyCheck" mapstructure:"dependencyCheck"`
		// AppInspector is the feature-discovery inspector.
		AppInspector ScannerConfig `json:"appInspector" yaml:"appInspector" mapstructure:"appInspector"`
	} `json:"scanners" yaml:"scanners"`

	// Auth is the configuration for user authentication.
	Auth struct {
		// JWTSecret signs the session tokens issued at login.
		JWTSecret string `json:"jwtSecret" yaml:"jwtSecret" mapstructure:"jwtSecret"`
		// TokenTTL is how long an issued token remains valid.
		TokenTTL time.Duration `json:"tokenTTL" yaml:"tokenTTL" mapstructure:"tokenTTL"`
		// Bootstrap is the account created on first launch when no
		// user exists yet. The operator is expected to change the
		// password immediately.
		Bootstrap struct {
			Username string `json:"username" yaml:"username"`
			Password string `json:"password" yaml:"password"`
		} `json:"bootstrap" yaml:"bootstrap"`
	} `json:"auth" yaml:"auth"`

	// LDAP is the optional directory used to authenticate non-local users.
	LDAP struct {
		Enabled           bool   `json:"enabled" yaml:"enabled"`
		Host              string `json:"host" yaml:"host"`
		Port              int    `json:"port" yaml:"port"`
		BindDN            string `json:"bindDN" yaml:"bindDN" mapstructure:"bindDN"`
		BindPassword      string `json:"bindPassword" yaml:"bindPassword" mapstructure:"bindPassword"`
		BaseDN            string `json:"baseDN" yaml:"baseDN" mapstructure:"baseDN"`
		UserObjectFilter  string `json:"userObjectFilter" yaml:"userObjectFilter" mapstructure:"userObjectFilter"`
		GroupObjectFilter string `json:"groupObjectFilter" yaml:"groupObjectFilter" mapstructure:"groupObjectFilter"`
	} `json:"ldap" yaml:"ldap"`

	// Worker is the configuration for the scan worker process.
	Worker struct {
		// Concurrency is the number of scans executed in parallel.
		Concurrency int `json:"concurrency" yaml:"concurrency"`
		// RuleRefreshSchedule is the cron expression for periodic
		// rule repository pulls. Empty disables the schedule.
		RuleRefreshSchedule string `json:"ruleRefreshSchedule" yaml:"ruleRefreshSchedule" mapstructure:"ruleRefreshSchedule"`
	} `json:"worker" yaml:"worker"`
}

// State is the global configuration state for Grepmarx.
var State Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/grepmarx/")
	viper.AddConfigPath("$HOME/.grepmarx")
	viper.AddConfigPath(".")

	if configPath, exists := os.LookupEnv("GREPMARX_CONFIG_PATH"); exists {
		// If the GREPMARX_CONFIG_PATH environment variable is set, add it as a config path.
		viper.AddConfigPath(configPath)
	}

	// have to use something that will most likely not be a
	// key anywhere in the config file, so that we can
	// use it as a delimiter for the viper keys.
	// By default viper uses "." as a delimiter, which would split
	// keys containing dotted values (cron expressions, DSNs) into sub-maps.
	delimiter := "%"
	viper.SetOptions(viper.KeyDelimiter(delimiter))

	viper.SetEnvPrefix("grepmarx")
	viper.SetEnvKeyReplacer(strings.NewReplacer(delimiter, "_"))

	viper.SetDefault("Environment", "production")
	viper.SetDefault("API%TLS%Enabled", false)
	viper.SetDefault("API%Port", "5000")
	viper.SetDefault("API%Host", "0.0.0.0")

	viper.SetDefault("Logging%Level", "info")
	viper.SetDefault("Logging%Format", "json")

	viper.SetDefault("Database%Type", "sqlite")
	viper.SetDefault("Database%DSN", "/var/lib/grepmarx/grepmarx.db")

	viper.SetDefault("Redis%URL", "redis://localhost:6379")
	viper.SetDefault("Redis%Queue", "grepmarx:scans")
	viper.SetDefault("Redis%EventChannel", "grepmarx:events")

	viper.SetDefault("Storage%ProjectsPath", "/var/lib/grepmarx/projects")
	viper.SetDefault("Storage%RulesPath", "/var/lib/grepmarx/rules")

	viper.SetDefault("Scanners%Semgrep%Path", "semgrep")
	viper.SetDefault("Scanners%Semgrep%Timeout", "30m")
	viper.SetDefault("Scanners%Scc%Path", "scc")
	viper.SetDefault("Scanners%Scc%Timeout", "5m")
	viper.SetDefault("Scanners%DependencyCheck%Path", "dependency-check")
	viper.SetDefault("Scanners%DependencyCheck%Timeout", "30m")
	viper.SetDefault("Scanners%AppInspector%Path", "appinspector")
	viper.SetDefault("Scanners%AppInspector%Timeout", "15m")

	viper.SetDefault("Auth%TokenTTL", "12h")
	viper.SetDefault("Auth%Bootstrap%Username", "admin")
	viper.SetDefault("Auth%Bootstrap%Password", "admin")

	viper.SetDefault("LDAP%Enabled", false)
	viper.SetDefault("LDAP%Port", 389)

	viper.SetDefault("Worker%Concurrency", 2)
	viper.SetDefault("Worker%RuleRefreshSchedule", "")

	err := viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			zap.L().Error("error reading config", zap.Error(err))
			return
		} else if err != nil {
			zap.L().Info("config file not found, using defaults")
		}
	}
	viper.AutomaticEnv()

	err = viper.Unmarshal(
		&State,
		viper.DecodeHook(
			func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
				// Custom decode hook for time.Duration
				if t == reflect.TypeOf(time.Duration(0)) {
					if f.Kind() == reflect.String {
						return time.ParseDuration(data.(string))
					}
				}

				return data, nil
			},
		),
	)
	if err != nil {
		zap.L().Error("error unmarshalling config", zap.Error(err))
	}
	InitLogger(State.Logging.Level, State.Logging.Format,
		zap.Any("build_metadata", map[string]string{
			"version":    Version,
			"build_time": BuildTime,
			"commit":     Commit,
		}))
}

func WriteConfig(w io.Writer) error {
	if err := viper.WriteConfigTo(w); err != nil {
		return err
	}
	return nil
}

// IsEnvironmentIn reports whether the configured environment is one of envs.
func IsEnvironmentIn(envs ...string) bool {
	for _, env := range envs {
		if strings.EqualFold(State.Environment, env) {
			return true
		}
	}
	return false
}

const (
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvDevelopment = "development"
)
