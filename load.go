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
	"database/sql"
	"sort"

	"github.com/ecomdata/productetl/core"
	"github.com/ecomdata/productetl/writers"
)

// Destination is a schema-qualified load target.
type Destination struct {
	Schema string
	Table  string
}

// Fixed destinations of the three tiers.
var (
	DestinationStaging = Destination{Schema: "staging", Table: "products_1"}
	DestinationCore    = Destination{Schema: "core", Table: "products_2"}
	DestinationGold    = Destination{Schema: "gold", Table: "products_classified"}
)

// PostgresLoader persists the cleaned tables to their fixed PostgreSQL
// destinations, each in full-replace mode.
type PostgresLoader struct {
	DB        *sql.DB
	BatchSize int
}

// Load implements the Loader interface.
func (l *PostgresLoader) Load(ctx context.Context, set *core.TableSet) error {
	targets := []struct {
		table       *core.Table
		destination Destination
	}{
		{set.Staging, DestinationStaging},
		{set.Core, DestinationCore},
		{set.Gold, DestinationGold},
	}

	for _, target := range targets {
		if err := l.loadTable(ctx, target.table, target.destination); err != nil {
			return err
		}
	}
	return nil
}

func (l *PostgresLoader) loadTable(ctx context.Context, table *core.Table, destination Destination) error {
	options := []writers.PostgresWriterOption{
		writers.WithPostgresDB(l.DB),
		writers.WithPostgresDestination(destination.Schema, destination.Table),
		writers.WithPostgresColumns(columnUnion(table)),
	}
	if l.BatchSize > 0 {
		options = append(options, writers.WithPostgresBatchSize(l.BatchSize))
	}

	sink, err := writers.NewPostgresWriter(options...)
	if err != nil {
		return err
	}
	return core.WriteTable(ctx, sink, table)
}

// columnUnion collects every column the table declares or any row carries,
// sorted, so the destination schema is stable even when early rows miss
// columns or cleaning dropped every row.
func columnUnion(table *core.Table) []string {
	seen := make(map[string]bool)
	for _, column := range table.Columns {
		seen[column] = true
	}
	for _, row := range table.Rows {
		for column := range row {
			seen[column] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for column := range seen {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
