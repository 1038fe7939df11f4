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
	"path/filepath"

	"github.com/ecomdata/productetl/core"
	"github.com/ecomdata/productetl/writers"
)

// ParquetSnapshotter stages each cleaned table as a parquet file in Dir
// before the load stage runs. A table emptied by cleaning still gets a
// schema-only snapshot from its declared columns; only a table with no
// columns at all is skipped, since parquet cannot describe it.
type ParquetSnapshotter struct {
	Dir string
}

// Snapshot implements the Snapshotter interface.
func (s *ParquetSnapshotter) Snapshot(ctx context.Context, set *core.TableSet) error {
	for _, table := range set.Tables() {
		if err := s.snapshotTable(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

func (s *ParquetSnapshotter) snapshotTable(ctx context.Context, table *core.Table) error {
	columns := columnUnion(table)
	if len(columns) == 0 {
		return nil
	}

	path := filepath.Join(s.Dir, table.Name+".parquet")
	sink, err := writers.NewSnapshotWriter(path, writers.WithSnapshotFieldOrder(columns))
	if err != nil {
		return err
	}
	return core.WriteTable(ctx, sink, table)
}
