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

package productetl

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecomdata/productetl/core"
	"github.com/ecomdata/productetl/readers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParquetSnapshotter_StagesAllTiers verifies every tier gets an
// intermediate file, including one emptied by cleaning.
func TestParquetSnapshotter_StagesAllTiers(t *testing.T) {
	dir := t.TempDir()
	set := &core.TableSet{
		Staging: &core.Table{Name: TableStaging, Columns: []string{"itemid", "name"},
			Rows: []core.Record{{"itemid": "101", "name": "shoe"}}},
		Core: &core.Table{Name: TableCore, Columns: []string{"itemid", "name"},
			Rows: []core.Record{{"itemid": "101", "name": "shoe"}}},
		Gold: &core.Table{Name: TableGold, Columns: []string{"itemid", "category"}},
	}

	snapshotter := &ParquetSnapshotter{Dir: dir}
	require.NoError(t, snapshotter.Snapshot(context.Background(), set))

	for _, tier := range []string{TableStaging, TableCore, TableGold} {
		_, err := os.Stat(filepath.Join(dir, tier+".parquet"))
		assert.NoError(t, err, tier)
	}

	// The empty gold tier stages a schema-only snapshot.
	reader, err := readers.NewSnapshotReader(filepath.Join(dir, TableGold+".parquet"))
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []string{"category", "itemid"}, reader.Columns())
	_, err = reader.Read(context.Background())
	assert.Equal(t, io.EOF, err)
}

// TestParquetSnapshotter_SkipsShapelessTable verifies a table with no
// declared columns and no rows is left out rather than staged invalid.
func TestParquetSnapshotter_SkipsShapelessTable(t *testing.T) {
	dir := t.TempDir()
	set := &core.TableSet{
		Staging: &core.Table{Name: TableStaging},
		Core:    &core.Table{Name: TableCore},
		Gold:    &core.Table{Name: TableGold},
	}

	snapshotter := &ParquetSnapshotter{Dir: dir}
	require.NoError(t, snapshotter.Snapshot(context.Background(), set))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
