//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2026 EcomData
//
// This file is part of ProductETL.
//
// ProductETL is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ProductETL is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ProductETL. If not, see https://www.gnu.org/licenses/.

// Package config provides configuration management for the ProductETL runner.
package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingStagingSource = errors.New("sources.staging path is required")
	ErrMissingCoreSource    = errors.New("sources.core path is required")
	ErrMissingGoldSource    = errors.New("sources.gold path is required")
	ErrMissingDatabaseHost  = errors.New("database.host is required")
	ErrMissingDatabaseUser  = errors.New("database.user is required")
	ErrMissingDatabaseName  = errors.New("database.name is required")
	ErrMissingSnapshotDir   = errors.New("snapshot.dir is required when snapshots are enabled")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Sources  SourcesConfig  `yaml:"sources"`
	Database DatabaseConfig `yaml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourcesConfig locates the three raw product datasets. Each tier is either
// a local CSV path or an S3 object when a bucket is configured.
type SourcesConfig struct {
	Staging  string `yaml:"staging"`
	Core     string `yaml:"core"`
	Gold     string `yaml:"gold"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
}

// DatabaseConfig holds the PostgreSQL connection settings. Unset fields
// default from the conventional DB_* environment variables.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// SnapshotConfig controls the parquet intermediates staged between
// transformation and load.
type SnapshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// PipelineConfig holds the column configuration of the cleaning engine.
// Empty lists fall back to the product pipeline defaults.
type PipelineConfig struct {
	IDColumn    string   `yaml:"id_column"`
	ListColumns []string `yaml:"list_columns"`
	TextColumns []string `yaml:"text_columns"`
}

// LoggingConfig controls runner logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the canonical product pipeline configuration.
func Default() *Config {
	cfg := &Config{
		Sources: SourcesConfig{
			Staging: "data/productsfull.csv",
			Core:    "data/productsfull2.csv",
			Gold:    "data/productsclassified.csv",
		},
		Snapshot: SnapshotConfig{Enabled: true, Dir: "/tmp"},
		Logging:  LoggingConfig{Level: "info"},
	}
	cfg.applyEnvDefaults()
	return cfg
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvDefaults fills unset database fields from DB_* environment
// variables and applies fixed fallbacks.
func (c *Config) applyEnvDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = os.Getenv("DB_HOST")
	}
	if c.Database.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil {
			c.Database.Port = p
		}
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.User == "" {
		c.Database.User = os.Getenv("DB_USER")
	}
	if c.Database.Password == "" {
		c.Database.Password = os.Getenv("DB_PASSWORD")
	}
	if c.Database.Name == "" {
		c.Database.Name = os.Getenv("DB_NAME")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if c.Sources.Staging == "" {
		return ErrMissingStagingSource
	}
	if c.Sources.Core == "" {
		return ErrMissingCoreSource
	}
	if c.Sources.Gold == "" {
		return ErrMissingGoldSource
	}
	if c.Database.Host == "" {
		return ErrMissingDatabaseHost
	}
	if c.Database.User == "" {
		return ErrMissingDatabaseUser
	}
	if c.Database.Name == "" {
		return ErrMissingDatabaseName
	}
	if c.Snapshot.Enabled && c.Snapshot.Dir == "" {
		return ErrMissingSnapshotDir
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}
