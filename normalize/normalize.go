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

// Package normalize implements the cleaning engine of the ProductETL pipeline.
//
// The Normalizer applies a fixed sequence of column-level transformations to
// the staging, core, and gold tables: list-literal parsing, JSON re-encoding
// of list values, null canonicalization, identity normalization, text
// normalization, null-identity row filtering, and core-tier deduplication.
// All transformations are pure: inputs are cloned, never mutated, and no
// stage performs I/O.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ecomdata/productetl/core"
)

// Default column configuration of the product pipeline.
var (
	DefaultIDColumn    = "itemid"
	DefaultListColumns = []string{"colorname", "desc2"}
	DefaultTextColumns = []string{"name", "description", "fit", "fitinfo"}
)

// Normalizer holds the column configuration for a cleaning run.
type Normalizer struct {
	idColumn    string
	listColumns []string
	textColumns []string
}

// Option represents a configuration function for the Normalizer.
type Option func(*Normalizer)

// WithIDColumn sets the identity column used for row filtering and deduplication.
func WithIDColumn(name string) Option {
	return func(n *Normalizer) {
		n.idColumn = name
	}
}

// WithListColumns sets the columns whose values may encode a list.
func WithListColumns(columns ...string) Option {
	return func(n *Normalizer) {
		n.listColumns = append([]string(nil), columns...)
	}
}

// WithTextColumns sets the free-text columns to lower-case and trim.
func WithTextColumns(columns ...string) Option {
	return func(n *Normalizer) {
		n.textColumns = append([]string(nil), columns...)
	}
}

// New creates a Normalizer with the default product column configuration,
// overridden by any provided options.
func New(options ...Option) *Normalizer {
	n := &Normalizer{
		idColumn:    DefaultIDColumn,
		listColumns: append([]string(nil), DefaultListColumns...),
		textColumns: append([]string(nil), DefaultTextColumns...),
	}
	for _, option := range options {
		option(n)
	}
	return n
}

// Normalize produces cleaned staging, core, and gold tables from the raw set.
// The input is never mutated. Rows may be dropped, never added; the core
// table is additionally deduplicated by the identity column, first occurrence
// winning. Malformed cell values degrade to documented defaults rather than
// failing, so the only possible error is an incomplete table set.
func (n *Normalizer) Normalize(set *core.TableSet) (*core.TableSet, error) {
	if set == nil || set.Staging == nil || set.Core == nil || set.Gold == nil {
		return nil, fmt.Errorf("normalize requires staging, core, and gold tables")
	}

	result := set.Clone()

	for _, table := range result.Tables() {
		n.parseListColumns(table)
		n.encodeListColumns(table)
		canonicalizeNulls(table)
		n.normalizeID(table)
		n.normalizeText(table)
		n.dropNullIDs(table)
	}

	n.dedupeByID(result.Core)

	// Safety net against null-like values reintroduced by later stages.
	for _, table := range result.Tables() {
		canonicalizeNulls(table)
	}

	return result, nil
}

// NormalizeTable applies every per-table stage (all but core deduplication)
// to a single table and returns the cleaned copy.
func (n *Normalizer) NormalizeTable(table *core.Table) *core.Table {
	result := table.Clone()
	n.parseListColumns(result)
	n.encodeListColumns(result)
	canonicalizeNulls(result)
	n.normalizeID(result)
	n.normalizeText(result)
	n.dropNullIDs(result)
	canonicalizeNulls(result)
	return result
}

// parseListColumns converts each cell of the configured list columns to a
// canonical native list.
func (n *Normalizer) parseListColumns(table *core.Table) {
	for _, column := range n.listColumns {
		if !table.HasColumn(column) {
			continue
		}
		for _, row := range table.Rows {
			if _, ok := row[column]; !ok {
				continue
			}
			row[column] = parseListValue(row[column])
		}
	}
}

// parseListValue maps a raw cell to a list value:
// null, empty string, and the empty-bracket literal become the empty list;
// native lists pass through; bracketed strings get a literal parse with the
// empty list as the failure default; everything else becomes the empty list.
func parseListValue(value interface{}) []interface{} {
	switch v := value.(type) {
	case nil:
		return []interface{}{}
	case []interface{}:
		return v
	case string:
		if v == "" || v == "[]" {
			return []interface{}{}
		}
		if strings.HasPrefix(v, "[") {
			if parsed, ok := parseListLiteral(v); ok {
				return parsed
			}
		}
		return []interface{}{}
	default:
		return []interface{}{}
	}
}

// encodeListColumns re-encodes parsed lists so no native list value passes
// downstream: the empty list becomes null, a non-empty list becomes its
// compact JSON-array string.
func (n *Normalizer) encodeListColumns(table *core.Table) {
	for _, column := range n.listColumns {
		if !table.HasColumn(column) {
			continue
		}
		for _, row := range table.Rows {
			list, ok := row[column].([]interface{})
			if !ok {
				continue
			}
			if len(list) == 0 {
				row[column] = nil
				continue
			}
			encoded, err := json.Marshal(list)
			if err != nil {
				row[column] = nil
				continue
			}
			row[column] = string(encoded)
		}
	}
}

// canonicalizeNulls collapses every empty sentinel (empty string, NaN, nil)
// to nil, for cells of any type.
func canonicalizeNulls(table *core.Table) {
	for _, row := range table.Rows {
		for column, value := range row {
			if core.IsNull(value) {
				row[column] = nil
			}
		}
	}
}

// normalizeID reduces the identity column to a single scalar string:
// lists contribute their first element, bracket-wrapped strings are unwrapped
// and unquoted, plain strings are trimmed, and anything else becomes null.
func (n *Normalizer) normalizeID(table *core.Table) {
	if !table.HasColumn(n.idColumn) {
		return
	}
	for _, row := range table.Rows {
		if _, ok := row[n.idColumn]; !ok {
			continue
		}
		row[n.idColumn] = extractID(row[n.idColumn])
	}
}

// extractID implements the scalar-identity extraction for one cell.
func extractID(value interface{}) interface{} {
	if list, ok := value.([]interface{}); ok {
		if len(list) == 0 {
			return nil
		}
		value = list[0]
	}

	s, ok := value.(string)
	if !ok {
		return nil
	}

	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.Trim(s, "[]")
		s = strings.ReplaceAll(s, "'", "")
		s = strings.ReplaceAll(s, `"`, "")
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return nil
	}
	return s
}

// normalizeText lower-cases and trims the configured text columns and maps
// the literal text "none" to null. Non-string scalars are stringified first;
// native lists are left for the list stages.
func (n *Normalizer) normalizeText(table *core.Table) {
	for _, column := range n.textColumns {
		if !table.HasColumn(column) {
			continue
		}
		for _, row := range table.Rows {
			value, ok := row[column]
			if !ok || value == nil {
				continue
			}
			if _, isList := value.([]interface{}); isList {
				continue
			}

			s, isString := value.(string)
			if !isString {
				s = fmt.Sprintf("%v", value)
			}
			s = strings.TrimSpace(strings.ToLower(s))
			if s == "" || s == "none" {
				row[column] = nil
				continue
			}
			row[column] = s
		}
	}
}

// dropNullIDs removes every row whose normalized identity is null or absent.
func (n *Normalizer) dropNullIDs(table *core.Table) {
	kept := table.Rows[:0]
	for _, row := range table.Rows {
		if value, ok := row[n.idColumn]; ok && value != nil {
			kept = append(kept, row)
		}
	}
	table.Rows = kept
}

// dedupeByID keeps only the first row per identity value, preserving the
// original row order.
func (n *Normalizer) dedupeByID(table *core.Table) {
	seen := make(map[string]bool, len(table.Rows))
	kept := table.Rows[:0]
	for _, row := range table.Rows {
		key := fmt.Sprintf("%v", row[n.idColumn])
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, row)
	}
	table.Rows = kept
}
