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

// Package core defines the core types for the ProductETL pipeline.
//
// ProductETL is a batch data-cleaning pipeline for raw tabular product
// datasets. Records are dynamically typed: a cell holds nil, a scalar
// (string, int, int64, float64, bool), or a list of values. A column may be
// absent from a record, which is distinct from the column being null.
package core

import "math"

// Record represents a single data record (one table row).
// Each record is a map from column names to values, supporting heterogeneous data.
type Record map[string]interface{}

// Clone returns a copy of the record. List values are copied one level deep,
// which is sufficient because no transformation mutates list elements in place.
func (r Record) Clone() Record {
	result := make(Record, len(r))
	for k, v := range r {
		if list, ok := v.([]interface{}); ok {
			copied := make([]interface{}, len(list))
			copy(copied, list)
			result[k] = copied
			continue
		}
		result[k] = v
	}
	return result
}

// Table is an ordered collection of records sharing a logical identity
// (for example the staging, core, or gold tier of one pipeline run).
// Columns carries the declared column set of the source (CSV headers,
// parquet schema), so a table emptied by cleaning still knows its shape.
type Table struct {
	Name    string
	Columns []string
	Rows    []Record
}

// NewTable creates an empty table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// Clone returns a deep copy of the table. Transformations operate on clones
// so the caller's data is never mutated.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	result := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Record, len(t.Rows)),
	}
	for i, row := range t.Rows {
		result.Rows[i] = row.Clone()
	}
	return result
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the column is declared by the source or carried
// by any row. Column sets may differ between source tables, so
// transformations on an absent column are skipped rather than failed.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	for _, row := range t.Rows {
		if _, ok := row[name]; ok {
			return true
		}
	}
	return false
}

// TableSet holds the three tier instances of a single pipeline run.
type TableSet struct {
	Staging *Table
	Core    *Table
	Gold    *Table
}

// Clone returns a deep copy of all three tables.
func (s *TableSet) Clone() *TableSet {
	if s == nil {
		return nil
	}
	return &TableSet{
		Staging: s.Staging.Clone(),
		Core:    s.Core.Clone(),
		Gold:    s.Gold.Clone(),
	}
}

// Tables returns the non-nil tables of the set in tier order.
func (s *TableSet) Tables() []*Table {
	var result []*Table
	for _, t := range []*Table{s.Staging, s.Core, s.Gold} {
		if t != nil {
			result = append(result, t)
		}
	}
	return result
}

// IsNull reports whether a cell value is one of the empty sentinels:
// nil, the empty string, or a floating-point NaN marker. All three collapse
// to nil during null canonicalization so no heterogeneous empty
// representation leaks downstream.
func IsNull(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}
