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

package readers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecomdata/productetl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock reader for CSV testing
type mockCSVReadCloser struct {
	*strings.Reader
	closed bool
}

func (m *mockCSVReadCloser) Close() error {
	m.closed = true
	return nil
}

func newMockCSVReadCloser(data string) *mockCSVReadCloser {
	return &mockCSVReadCloser{Reader: strings.NewReader(data)}
}

func drain(t *testing.T, reader *CSVReader) []core.Record {
	t.Helper()
	ctx := context.Background()

	var records []core.Record
	for {
		record, err := reader.Read(ctx)
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, record)
	}
}

// TestCSVReader_BasicFunctionality tests header handling and type inference
func TestCSVReader_BasicFunctionality(t *testing.T) {
	mock := newMockCSVReadCloser("itemid,name,price,instock\n101,Shoe,19.99,true\n102,Boot,5,false\n")
	reader, err := NewCSVReader(mock)
	require.NoError(t, err)

	records := drain(t, reader)
	require.Len(t, records, 2)

	assert.Equal(t, 101, records[0]["itemid"])
	assert.Equal(t, "Shoe", records[0]["name"])
	assert.Equal(t, 19.99, records[0]["price"])
	assert.Equal(t, true, records[0]["instock"])
	assert.Equal(t, 5, records[1]["price"])

	require.NoError(t, reader.Close())
	assert.True(t, mock.closed)

	stats := reader.Stats()
	assert.Equal(t, int64(2), stats.RecordsRead)
}

// TestCSVReader_TypeInferenceDisabled verifies raw string passthrough
func TestCSVReader_TypeInferenceDisabled(t *testing.T) {
	mock := newMockCSVReadCloser("itemid,price\n00101,19.99\n")
	reader, err := NewCSVReader(mock, WithCSVTypeInference(false))
	require.NoError(t, err)

	records := drain(t, reader)
	require.Len(t, records, 1)

	assert.Equal(t, "00101", records[0]["itemid"])
	assert.Equal(t, "19.99", records[0]["price"])
}

// TestCSVReader_EmptyCellsBecomeNull tests null tracking for blank fields
func TestCSVReader_EmptyCellsBecomeNull(t *testing.T) {
	mock := newMockCSVReadCloser("itemid,name\n101,\n,Boot\n")
	reader, err := NewCSVReader(mock)
	require.NoError(t, err)

	records := drain(t, reader)
	require.Len(t, records, 2)

	assert.Nil(t, records[0]["name"])
	assert.Nil(t, records[1]["itemid"])

	stats := reader.Stats()
	assert.Equal(t, int64(1), stats.NullValueCounts["name"])
	assert.Equal(t, int64(1), stats.NullValueCounts["itemid"])
}

// TestCSVReader_HeaderOnlyDataset verifies an empty dataset still exposes
// its column set.
func TestCSVReader_HeaderOnlyDataset(t *testing.T) {
	mock := newMockCSVReadCloser("itemid,category\n")
	reader, err := NewCSVReader(mock)
	require.NoError(t, err)

	records := drain(t, reader)
	assert.Empty(t, records)
	assert.Equal(t, []string{"itemid", "category"}, reader.Columns())
}

// TestCSVReader_NoHeaders tests positional column naming
func TestCSVReader_NoHeaders(t *testing.T) {
	mock := newMockCSVReadCloser("101,Shoe\n")
	reader, err := NewCSVReader(mock, WithCSVHasHeaders(false))
	require.NoError(t, err)

	records := drain(t, reader)
	require.Len(t, records, 1)
	assert.Equal(t, 101, records[0]["col_0"])
	assert.Equal(t, "Shoe", records[0]["col_1"])
}

// TestCSVReader_CustomDelimiter tests the comma option
func TestCSVReader_CustomDelimiter(t *testing.T) {
	mock := newMockCSVReadCloser("itemid;name\n101;Shoe\n")
	reader, err := NewCSVReader(mock, WithCSVComma(';'))
	require.NoError(t, err)

	records := drain(t, reader)
	require.Len(t, records, 1)
	assert.Equal(t, "Shoe", records[0]["name"])
}

// TestCSVReader_EmptyInput verifies the header read fails cleanly
func TestCSVReader_EmptyInput(t *testing.T) {
	mock := newMockCSVReadCloser("")
	_, err := NewCSVReader(mock)
	require.Error(t, err)

	var readerErr *CSVReaderError
	require.ErrorAs(t, err, &readerErr)
	assert.Equal(t, "read_headers", readerErr.Op)
}

// TestCSVReader_ContextCancellation tests read abortion
func TestCSVReader_ContextCancellation(t *testing.T) {
	mock := newMockCSVReadCloser("itemid\n101\n")
	reader, err := NewCSVReader(mock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = reader.Read(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestOpenCSVFile tests the file-backed constructor
func TestOpenCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte("itemid,name\n101,shoe\n"), 0o644))

	reader, err := OpenCSVFile(path, WithCSVTypeInference(false))
	require.NoError(t, err)

	records := drain(t, reader)
	require.Len(t, records, 1)
	assert.Equal(t, "101", records[0]["itemid"])
	require.NoError(t, reader.Close())
}

// TestOpenCSVFile_Missing verifies a missing dataset is a fatal error
func TestOpenCSVFile_Missing(t *testing.T) {
	_, err := OpenCSVFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)

	var readerErr *CSVReaderError
	require.ErrorAs(t, err, &readerErr)
	assert.Equal(t, "open_file", readerErr.Op)
}
