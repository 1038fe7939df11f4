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

package writers

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/ecomdata/productetl/core"
	"github.com/ecomdata/productetl/readers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSnapshotWriter_Roundtrip writes a cleaned table to parquet and reads
// it back through the snapshot reader.
func TestSnapshotWriter_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staging.parquet")
	ctx := context.Background()

	writer, err := NewSnapshotWriter(path,
		WithSnapshotFieldOrder([]string{"itemid", "name", "colorname"}))
	require.NoError(t, err)

	rows := []core.Record{
		{"itemid": "101", "name": "running shoe", "colorname": `["red","blue"]`},
		{"itemid": "102", "name": nil, "colorname": nil},
	}
	for _, row := range rows {
		require.NoError(t, writer.Write(ctx, row))
	}
	require.NoError(t, writer.Close())

	stats := writer.Stats()
	assert.Equal(t, int64(2), stats.RecordsWritten)
	assert.Equal(t, int64(1), stats.NullValueCounts["name"])

	reader, err := readers.NewSnapshotReader(path)
	require.NoError(t, err)
	defer reader.Close()

	first, err := reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "101", first["itemid"])
	assert.Equal(t, "running shoe", first["name"])
	assert.Equal(t, `["red","blue"]`, first["colorname"])

	second, err := reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "102", second["itemid"])
	assert.Nil(t, second["name"])

	_, err = reader.Read(ctx)
	assert.Equal(t, io.EOF, err)
}

// TestSnapshotWriter_SchemaOnlySnapshot verifies a writer with a known
// field order produces a readable zero-row snapshot when nothing is written.
func TestSnapshotWriter_SchemaOnlySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold.parquet")

	writer, err := NewSnapshotWriter(path,
		WithSnapshotFieldOrder([]string{"itemid", "category"}))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader, err := readers.NewSnapshotReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []string{"itemid", "category"}, reader.Columns())
	_, err = reader.Read(context.Background())
	assert.Equal(t, io.EOF, err)
}

// TestSnapshotWriter_CreatesParentDirectories tests directory bootstrap
func TestSnapshotWriter_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "nested", "core.parquet")

	writer, err := NewSnapshotWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.Write(context.Background(), core.Record{"itemid": "101"}))
	require.NoError(t, writer.Close())

	reader, err := readers.NewSnapshotReader(path)
	require.NoError(t, err)
	defer reader.Close()

	record, err := reader.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "101", record["itemid"])
}

// TestSnapshotWriter_ClosedWrite verifies writes after close fail
func TestSnapshotWriter_ClosedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold.parquet")

	writer, err := NewSnapshotWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	err = writer.Write(context.Background(), core.Record{"itemid": "101"})
	require.Error(t, err)

	var writerErr *SnapshotWriterError
	require.ErrorAs(t, err, &writerErr)
	assert.Equal(t, "write", writerErr.Op)
}
