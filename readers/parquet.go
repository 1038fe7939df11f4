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
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/ecomdata/productetl/core"
)

// SnapshotReaderError wraps structured error information for the snapshot reader.
type SnapshotReaderError struct {
	Op  string // Operation that failed (e.g., "open_file", "load_batch")
	Err error  // Underlying error
}

func (e *SnapshotReaderError) Error() string {
	return fmt.Sprintf("snapshot reader %s: %v", e.Op, e.Err)
}

func (e *SnapshotReaderError) Unwrap() error {
	return e.Err
}

// SnapshotReader implements core.DataSource for the parquet snapshots the
// pipeline stages between transformation and load. Cleaned tables carry only
// nullable scalar columns, so the supported value types are deliberately
// narrow.
type SnapshotReader struct {
	fileHandle      *os.File
	reader          *file.Reader
	recordReader    pqarrow.RecordReader
	currentBatch    arrow.Record
	currentBatchIdx int
	schema          *arrow.Schema
	recordsRead     int64
}

// NewSnapshotReader opens a parquet snapshot and prepares an Arrow record reader.
func NewSnapshotReader(filename string) (*SnapshotReader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &SnapshotReaderError{Op: "open_file", Err: err}
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, &SnapshotReaderError{Op: "create_reader", Err: err}
	}

	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{BatchSize: 1000}, memory.NewGoAllocator())
	if err != nil {
		f.Close()
		return nil, &SnapshotReaderError{Op: "create_arrow_reader", Err: err}
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		f.Close()
		return nil, &SnapshotReaderError{Op: "get_schema", Err: err}
	}

	recordReader, err := arrowReader.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		f.Close()
		return nil, &SnapshotReaderError{Op: "create_record_reader", Err: err}
	}

	return &SnapshotReader{
		fileHandle:   f,
		reader:       parquetReader,
		recordReader: recordReader,
		schema:       schema,
	}, nil
}

// Read returns the next record from the snapshot, or io.EOF.
func (p *SnapshotReader) Read(ctx context.Context) (core.Record, error) {
	select {
	case <-ctx.Done():
		return nil, &SnapshotReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if p.currentBatch == nil || p.currentBatchIdx >= int(p.currentBatch.NumRows()) {
		if err := p.loadNextBatch(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &SnapshotReaderError{Op: "load_batch", Err: err}
		}
	}

	result := p.extractRecordFromBatch(p.currentBatch, p.currentBatchIdx)
	p.currentBatchIdx++
	p.recordsRead++

	return result, nil
}

// Close releases resources and closes the underlying file.
func (p *SnapshotReader) Close() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}
	if p.recordReader != nil {
		p.recordReader.Release()
		p.recordReader = nil
	}
	if p.fileHandle != nil {
		f := p.fileHandle
		p.fileHandle = nil
		return f.Close()
	}
	return nil
}

// Schema returns the Arrow schema of the snapshot.
func (p *SnapshotReader) Schema() *arrow.Schema {
	return p.schema
}

// Columns implements core.ColumnLister from the snapshot schema.
func (p *SnapshotReader) Columns() []string {
	fields := p.schema.Fields()
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}
	return names
}

func (p *SnapshotReader) loadNextBatch() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}

	rec, err := p.recordReader.Read()
	if err != nil {
		return err
	}
	if rec == nil || rec.NumRows() == 0 {
		return io.EOF
	}

	rec.Retain()
	p.currentBatch = rec
	p.currentBatchIdx = 0
	return nil
}

func (p *SnapshotReader) extractRecordFromBatch(record arrow.Record, pos int) core.Record {
	res := make(core.Record)
	sch := record.Schema()
	for i := 0; i < int(record.NumCols()); i++ {
		res[sch.Field(i).Name] = extractValueFromColumn(record.Column(i), pos)
	}
	return res
}

func extractValueFromColumn(col arrow.Array, rowIdx int) interface{} {
	if col.IsNull(rowIdx) {
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(rowIdx)
	case *array.Int32:
		return int(arr.Value(rowIdx))
	case *array.Int64:
		return arr.Value(rowIdx)
	case *array.Float64:
		return arr.Value(rowIdx)
	case *array.String:
		return arr.Value(rowIdx)
	case *array.Timestamp:
		return arr.Value(rowIdx).ToTime(arrow.Microsecond)
	default:
		return fmt.Sprintf("%v", col.GetOneForMarshal(rowIdx))
	}
}
