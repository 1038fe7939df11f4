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

package core

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock source for drain testing
type mockSource struct {
	records []Record
	pos     int
	readErr error
	closed  bool
}

func (m *mockSource) Read(ctx context.Context) (Record, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.pos >= len(m.records) {
		return nil, io.EOF
	}
	record := m.records[m.pos]
	m.pos++
	return record, nil
}

func (m *mockSource) Close() error {
	m.closed = true
	return nil
}

// Mock sink for stream testing
type mockSink struct {
	written  []Record
	writeErr error
	flushErr error
	closeErr error
	flushed  bool
	closed   bool
}

func (m *mockSink) Write(ctx context.Context, record Record) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, record)
	return nil
}

func (m *mockSink) Flush() error {
	m.flushed = true
	return m.flushErr
}

func (m *mockSink) Close() error {
	m.closed = true
	return m.closeErr
}

// TestReadAll_DrainsAndCloses tests the happy path
func TestReadAll_DrainsAndCloses(t *testing.T) {
	source := &mockSource{records: []Record{
		{"itemid": "101"},
		{},
		{"itemid": "102"},
	}}

	table, err := ReadAll(context.Background(), source, "staging")
	require.NoError(t, err)

	assert.Equal(t, "staging", table.Name)
	assert.Equal(t, 2, table.Len()) // empty record skipped
	assert.True(t, source.closed)
}

// Mock source that declares its columns up front
type mockColumnSource struct {
	mockSource
	columns []string
}

func (m *mockColumnSource) Columns() []string {
	return m.columns
}

// TestReadAll_CarriesDeclaredColumns verifies the source shape survives a
// drain that yields no rows.
func TestReadAll_CarriesDeclaredColumns(t *testing.T) {
	source := &mockColumnSource{columns: []string{"itemid", "category"}}

	table, err := ReadAll(context.Background(), source, "gold")
	require.NoError(t, err)

	assert.Equal(t, 0, table.Len())
	assert.Equal(t, []string{"itemid", "category"}, table.Columns)
	assert.True(t, source.closed)
}

// TestReadAll_ReadError verifies the source is closed on failure
func TestReadAll_ReadError(t *testing.T) {
	source := &mockSource{readErr: io.ErrUnexpectedEOF}

	_, err := ReadAll(context.Background(), source, "staging")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, source.closed)
}

// TestReadAll_ContextCancellation tests drain abortion
func TestReadAll_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &mockSource{records: []Record{{"itemid": "101"}}}
	_, err := ReadAll(ctx, source, "staging")
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, source.closed)
}

// TestWriteTable_StreamsFlushesCloses tests the happy path
func TestWriteTable_StreamsFlushesCloses(t *testing.T) {
	sink := &mockSink{}
	table := &Table{Name: "gold", Rows: []Record{
		{"itemid": "101"},
		{"itemid": "102"},
	}}

	require.NoError(t, WriteTable(context.Background(), sink, table))
	assert.Len(t, sink.written, 2)
	assert.True(t, sink.flushed)
	assert.True(t, sink.closed)
}

// TestWriteTable_ErrorPaths verifies write, flush, and close failures surface
func TestWriteTable_ErrorPaths(t *testing.T) {
	table := &Table{Name: "gold", Rows: []Record{{"itemid": "101"}}}

	sink := &mockSink{writeErr: io.ErrShortWrite}
	err := WriteTable(context.Background(), sink, table)
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.True(t, sink.closed)

	sink = &mockSink{flushErr: io.ErrShortWrite}
	assert.ErrorIs(t, WriteTable(context.Background(), sink, table), io.ErrShortWrite)

	sink = &mockSink{closeErr: io.ErrClosedPipe}
	assert.ErrorIs(t, WriteTable(context.Background(), sink, table), io.ErrClosedPipe)
}
