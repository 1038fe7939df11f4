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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "productetl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_FullConfig tests YAML parsing of every section
func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
sources:
  staging: raw/productsfull.csv
  core: raw/productsfull2.csv
  gold: raw/productsclassified.csv
  s3_bucket: product-raw
  s3_region: us-east-1
database:
  host: warehouse
  port: 6432
  user: loader
  password: pw
  name: products
  sslmode: require
snapshot:
  enabled: true
  dir: /var/tmp/productetl
pipeline:
  id_column: sku
  list_columns: [tags]
  text_columns: [title, blurb]
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "raw/productsfull.csv", cfg.Sources.Staging)
	assert.Equal(t, "product-raw", cfg.Sources.S3Bucket)
	assert.Equal(t, "warehouse", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.True(t, cfg.Snapshot.Enabled)
	assert.Equal(t, "/var/tmp/productetl", cfg.Snapshot.Dir)
	assert.Equal(t, "sku", cfg.Pipeline.IDColumn)
	assert.Equal(t, []string{"tags"}, cfg.Pipeline.ListColumns)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

// TestLoad_EnvDefaults tests DB_* fallback for unset database fields
func TestLoad_EnvDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_USER", "envuser")
	t.Setenv("DB_PASSWORD", "envpw")
	t.Setenv("DB_NAME", "envdb")
	t.Setenv("DB_PORT", "")

	path := writeConfig(t, `
sources:
  staging: a.csv
  core: b.csv
  gold: c.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, "envuser", cfg.Database.User)
	assert.Equal(t, "envpw", cfg.Database.Password)
	assert.Equal(t, "envdb", cfg.Database.Name)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

// TestLoad_ExplicitOverridesEnv verifies file values win over environment
func TestLoad_ExplicitOverridesEnv(t *testing.T) {
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_USER", "envuser")
	t.Setenv("DB_NAME", "envdb")

	path := writeConfig(t, `
sources:
  staging: a.csv
  core: b.csv
  gold: c.csv
database:
  host: filehost
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "filehost", cfg.Database.Host)
	assert.Equal(t, "envuser", cfg.Database.User)
}

// TestLoad_ValidationErrors tests every sentinel error
func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("DB_HOST", "h")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "d")

	tests := []struct {
		name     string
		yaml     string
		expected error
	}{
		{
			"missing staging source",
			"sources:\n  core: b.csv\n  gold: c.csv\n",
			ErrMissingStagingSource,
		},
		{
			"missing core source",
			"sources:\n  staging: a.csv\n  gold: c.csv\n",
			ErrMissingCoreSource,
		},
		{
			"missing gold source",
			"sources:\n  staging: a.csv\n  core: b.csv\n",
			ErrMissingGoldSource,
		},
		{
			"snapshot enabled without dir",
			"sources:\n  staging: a.csv\n  core: b.csv\n  gold: c.csv\nsnapshot:\n  enabled: true\n",
			ErrMissingSnapshotDir,
		},
		{
			"invalid log level",
			"sources:\n  staging: a.csv\n  core: b.csv\n  gold: c.csv\nlogging:\n  level: loud\n",
			ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := Load(path)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

// TestLoad_MissingDatabase tests the database sentinels without env fallback
func TestLoad_MissingDatabase(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	path := writeConfig(t, "sources:\n  staging: a.csv\n  core: b.csv\n  gold: c.csv\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMissingDatabaseHost)
}

// TestLoad_MissingFile tests the file-not-found path
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

// TestDefault tests the canonical product configuration
func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "data/productsfull.csv", cfg.Sources.Staging)
	assert.Equal(t, "data/productsfull2.csv", cfg.Sources.Core)
	assert.Equal(t, "data/productsclassified.csv", cfg.Sources.Gold)
	assert.True(t, cfg.Snapshot.Enabled)
	assert.Equal(t, "/tmp", cfg.Snapshot.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
}
