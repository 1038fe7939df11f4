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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/ecomdata/productetl/core"
)

// SnapshotWriterError wraps parquet-specific write errors with context about
// the operation.
type SnapshotWriterError struct {
	Op  string // Operation that failed (e.g., "open_file", "schema", "flush_batch")
	Err error  // Underlying error
}

// Error returns the error string for SnapshotWriterError.
func (e *SnapshotWriterError) Error() string {
	return fmt.Sprintf("snapshot writer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for SnapshotWriterError.
func (e *SnapshotWriterError) Unwrap() error {
	return e.Err
}

// SnapshotWriterStats holds statistics about the snapshot writer's performance.
type SnapshotWriterStats struct {
	RecordsWritten  int64
	BatchesWritten  int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

// SnapshotWriterOptions configures the parquet snapshot writer.
type SnapshotWriterOptions struct {
	BatchSize   int64                // Number of records to buffer before writing
	Compression compress.Compression // Compression algorithm
	FieldOrder  []string             // Explicit field ordering
}

// SnapshotWriterOption represents a configuration function for SnapshotWriterOptions.
type SnapshotWriterOption func(*SnapshotWriterOptions)

// WithSnapshotBatchSize sets the number of records buffered before a batch write.
func WithSnapshotBatchSize(size int64) SnapshotWriterOption {
	return func(opts *SnapshotWriterOptions) {
		opts.BatchSize = size
	}
}

// WithSnapshotCompression sets the parquet compression algorithm.
func WithSnapshotCompression(compression compress.Compression) SnapshotWriterOption {
	return func(opts *SnapshotWriterOptions) {
		opts.Compression = compression
	}
}

// WithSnapshotFieldOrder sets the explicit field ordering for the schema.
func WithSnapshotFieldOrder(fields []string) SnapshotWriterOption {
	return func(opts *SnapshotWriterOptions) {
		opts.FieldOrder = make([]string, len(fields))
		copy(opts.FieldOrder, fields)
	}
}

// SnapshotWriter implements core.DataSink for parquet files. The pipeline
// stages each cleaned table as a parquet snapshot between transformation and
// load, so a failed load can be retried from the cleaned state.
type SnapshotWriter struct {
	file        *os.File
	writer      *pqarrow.FileWriter
	schema      *arrow.Schema
	fieldOrder  []string
	recordBuf   []core.Record
	allocator   memory.Allocator
	opts        SnapshotWriterOptions
	stats       SnapshotWriterStats
	closed      bool
}

// NewSnapshotWriter creates a parquet snapshot writer for a file, creating
// parent directories as needed.
func NewSnapshotWriter(filename string, options ...SnapshotWriterOption) (*SnapshotWriter, error) {
	opts := SnapshotWriterOptions{
		BatchSize:   1000,
		Compression: compress.Codecs.Snappy,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	dir := filepath.Dir(filename)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &SnapshotWriterError{
				Op:  "create_directory",
				Err: fmt.Errorf("failed to create directory %s: %w", dir, err),
			}
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, &SnapshotWriterError{
			Op:  "open_file",
			Err: fmt.Errorf("failed to create parquet file %s: %w", filename, err),
		}
	}

	return &SnapshotWriter{
		file:       file,
		fieldOrder: opts.FieldOrder,
		recordBuf:  make([]core.Record, 0, opts.BatchSize),
		allocator:  memory.NewGoAllocator(),
		opts:       opts,
		stats:      SnapshotWriterStats{NullValueCounts: make(map[string]int64)},
	}, nil
}

// Stats returns the current statistics of the snapshot writer.
func (p *SnapshotWriter) Stats() SnapshotWriterStats {
	return p.stats
}

// Write implements the core.DataSink interface. Buffers records and writes
// in batches.
func (p *SnapshotWriter) Write(ctx context.Context, record core.Record) error {
	if p.closed {
		return &SnapshotWriterError{Op: "write", Err: fmt.Errorf("snapshot writer is closed")}
	}

	if p.schema == nil {
		if err := p.initializeSchemaFromRecord(record); err != nil {
			return err
		}
	}

	p.recordBuf = append(p.recordBuf, record)
	p.stats.RecordsWritten++

	if int64(len(p.recordBuf)) >= p.opts.BatchSize {
		if err := p.flushBatch(); err != nil {
			return err
		}
	}
	return nil
}

// Flush implements the core.DataSink interface.
func (p *SnapshotWriter) Flush() error {
	if len(p.recordBuf) > 0 {
		return p.flushBatch()
	}
	return nil
}

// Close implements the core.DataSink interface. Flushes and closes all
// resources.
func (p *SnapshotWriter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	if len(p.recordBuf) > 0 {
		if err := p.flushBatch(); err != nil {
			return err
		}
	}

	// A table with no rows still stages a schema-only snapshot when the
	// field order is known, so every tier's intermediate exists after a run.
	if p.writer == nil && len(p.fieldOrder) > 0 {
		if err := p.initializeSchemaFromRecord(core.Record{}); err != nil {
			return err
		}
	}

	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			return &SnapshotWriterError{
				Op:  "close_writer",
				Err: fmt.Errorf("failed to close parquet writer: %w", err),
			}
		}
		p.writer = nil
		p.file = nil
		return nil
	}

	// No record was ever written; close the bare file.
	if p.file != nil {
		err := p.file.Close()
		p.file = nil
		return err
	}
	return nil
}

// initializeSchemaFromRecord creates the Arrow schema from the first record.
// Fields missing or null in that record default to nullable strings, which
// matches the TEXT-leaning shape of the cleaned tables.
func (p *SnapshotWriter) initializeSchemaFromRecord(record core.Record) error {
	fieldNames := p.fieldOrder
	if fieldNames == nil {
		fieldNames = make([]string, 0, len(record))
		for name := range record {
			fieldNames = append(fieldNames, name)
		}
		sort.Strings(fieldNames)
		p.fieldOrder = fieldNames
	}

	var fields []arrow.Field
	for _, name := range fieldNames {
		value, exists := record[name]

		dataType := arrow.DataType(arrow.BinaryTypes.String)
		if exists && value != nil {
			inferred, err := inferArrowType(value)
			if err != nil {
				return &SnapshotWriterError{
					Op:  "schema",
					Err: fmt.Errorf("failed to infer arrow type for field %s: %w", name, err),
				}
			}
			dataType = inferred
		}

		fields = append(fields, arrow.Field{Name: name, Type: dataType, Nullable: true})
	}

	p.schema = arrow.NewSchema(fields, nil)

	props := parquet.NewWriterProperties(parquet.WithCompression(p.opts.Compression))
	writer, err := pqarrow.NewFileWriter(p.schema, p.file, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return &SnapshotWriterError{
			Op:  "create_writer",
			Err: fmt.Errorf("failed to create parquet file writer: %w", err),
		}
	}
	p.writer = writer
	return nil
}

// inferArrowType infers the Arrow data type from a Go value.
func inferArrowType(value interface{}) (arrow.DataType, error) {
	switch v := value.(type) {
	case bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case int32:
		return arrow.PrimitiveTypes.Int32, nil
	case int64:
		return arrow.PrimitiveTypes.Int64, nil
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return arrow.PrimitiveTypes.Int32, nil
		}
		return arrow.PrimitiveTypes.Int64, nil
	case float32:
		return arrow.PrimitiveTypes.Float32, nil
	case float64:
		return arrow.PrimitiveTypes.Float64, nil
	case string:
		return arrow.BinaryTypes.String, nil
	case time.Time:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case []byte:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, fmt.Errorf("unsupported type %T for value %v", value, value)
	}
}

// flushBatch writes the current buffer to the parquet file.
func (p *SnapshotWriter) flushBatch() error {
	if len(p.recordBuf) == 0 {
		return nil
	}

	startTime := time.Now()

	record, err := p.createArrowRecord(p.recordBuf)
	if err != nil {
		return err
	}
	defer record.Release()

	if err := p.writer.Write(record); err != nil {
		return &SnapshotWriterError{
			Op:  "write_batch",
			Err: fmt.Errorf("failed to write record batch: %w", err),
		}
	}

	p.stats.BatchesWritten++
	p.stats.FlushDuration += time.Since(startTime)
	p.stats.LastFlushTime = time.Now()
	p.recordBuf = p.recordBuf[:0]

	return nil
}

// createArrowRecord converts buffered records to an Arrow record batch.
func (p *SnapshotWriter) createArrowRecord(records []core.Record) (arrow.Record, error) {
	builders := make([]array.Builder, len(p.fieldOrder))
	for i, name := range p.fieldOrder {
		field, ok := p.schema.FieldsByName(name)
		if !ok || len(field) == 0 {
			return nil, &SnapshotWriterError{
				Op:  "create_arrow_record",
				Err: fmt.Errorf("field %s not found in schema", name),
			}
		}
		builders[i] = array.NewBuilder(p.allocator, field[0].Type)
	}
	defer func() {
		for _, builder := range builders {
			builder.Release()
		}
	}()

	for _, record := range records {
		for i, fieldName := range p.fieldOrder {
			value, exists := record[fieldName]
			if !exists || value == nil {
				builders[i].AppendNull()
				p.stats.NullValueCounts[fieldName]++
				continue
			}
			if err := appendValueToBuilder(builders[i], value, fieldName); err != nil {
				return nil, err
			}
		}
	}

	arrays := make([]arrow.Array, len(builders))
	for i, builder := range builders {
		arrays[i] = builder.NewArray()
		defer arrays[i].Release()
	}

	return array.NewRecord(p.schema, arrays, int64(len(records))), nil
}

// appendValueToBuilder appends a value to the appropriate Arrow array builder.
func appendValueToBuilder(builder array.Builder, value interface{}, fieldName string) error {
	switch b := builder.(type) {
	case *array.BooleanBuilder:
		if v, ok := value.(bool); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Int32Builder:
		switch v := value.(type) {
		case int:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return &SnapshotWriterError{
					Op:  "append_value",
					Err: fmt.Errorf("int value %d out of range for int32 field %s", v, fieldName),
				}
			}
			b.Append(int32(v))
		case int32:
			b.Append(v)
		default:
			b.AppendNull()
		}
	case *array.Int64Builder:
		switch v := value.(type) {
		case int64:
			b.Append(v)
		case int:
			b.Append(int64(v))
		default:
			b.AppendNull()
		}
	case *array.Float32Builder:
		switch v := value.(type) {
		case float32:
			b.Append(v)
		case float64:
			b.Append(float32(v))
		default:
			b.AppendNull()
		}
	case *array.Float64Builder:
		switch v := value.(type) {
		case float64:
			b.Append(v)
		case float32:
			b.Append(float64(v))
		default:
			b.AppendNull()
		}
	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			b.Append(v)
		} else {
			b.Append(fmt.Sprintf("%v", value))
		}
	case *array.TimestampBuilder:
		if v, ok := value.(time.Time); ok {
			b.Append(arrow.Timestamp(v.UnixMicro()))
		} else {
			b.AppendNull()
		}
	case *array.BinaryBuilder:
		if v, ok := value.([]byte); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	default:
		return &SnapshotWriterError{
			Op:  "append_value",
			Err: fmt.Errorf("unsupported builder type for field %s", fieldName),
		}
	}
	return nil
}
