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
	"fmt"
	"io"
)

// The cleaning engine itself is pure and operates on whole tables; extraction
// and loading are streaming collaborators behind the interfaces in this file.

// DataSource defines the interface for data extraction.
// Implementations stream records from a source (e.g., CSV, Parquet, S3).
type DataSource interface {
	// Read returns the next record or io.EOF when no more records are available.
	Read(ctx context.Context) (Record, error)
	// Close releases any resources held by the data source.
	Close() error
}

// DataSink defines the interface for data loading.
// Implementations write records to a destination (e.g., PostgreSQL, Parquet).
type DataSink interface {
	// Write outputs a single record to the sink.
	Write(ctx context.Context, record Record) error
	// Flush ensures all buffered data is written to the sink.
	Flush() error
	// Close releases any resources held by the data sink.
	Close() error
}

// ColumnLister is implemented by sources that know their column set up
// front (CSV headers, parquet schema).
type ColumnLister interface {
	Columns() []string
}

// ReadAll drains a DataSource into a named table. The source is closed
// afterwards regardless of outcome. Empty records are skipped. When the
// source declares its columns, they are carried on the table so downstream
// stages keep the shape of a table with no surviving rows.
func ReadAll(ctx context.Context, source DataSource, name string) (*Table, error) {
	defer source.Close()

	table := NewTable(name)
	if lister, ok := source.(ColumnLister); ok {
		table.Columns = lister.Columns()
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := source.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading table %s: %w", name, err)
		}
		if len(record) == 0 {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// WriteTable streams every row of a table into a DataSink, then flushes and
// closes it. The first write, flush, or close error aborts the load.
func WriteTable(ctx context.Context, sink DataSink, table *Table) (err error) {
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing sink for table %s: %w", table.Name, cerr)
		}
	}()

	for _, row := range table.Rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := sink.Write(ctx, row); err != nil {
			return fmt.Errorf("writing table %s: %w", table.Name, err)
		}
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("flushing table %s: %w", table.Name, err)
	}
	return nil
}
