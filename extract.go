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

	"github.com/ecomdata/productetl/config"
	"github.com/ecomdata/productetl/core"
	"github.com/ecomdata/productetl/readers"
)

// Table names of the three tiers.
const (
	TableStaging = "staging"
	TableCore    = "core"
	TableGold    = "gold"
)

// CSVExtractor reads the three raw product datasets as CSV, either from
// local files or from an S3 bucket when one is configured. Cells are kept as
// raw strings; all typing decisions belong to the cleaning engine.
type CSVExtractor struct {
	Sources config.SourcesConfig
}

// Extract implements the Extractor interface.
func (e *CSVExtractor) Extract(ctx context.Context) (*core.TableSet, error) {
	staging, err := e.readTable(ctx, TableStaging, e.Sources.Staging)
	if err != nil {
		return nil, err
	}
	coreTable, err := e.readTable(ctx, TableCore, e.Sources.Core)
	if err != nil {
		return nil, err
	}
	gold, err := e.readTable(ctx, TableGold, e.Sources.Gold)
	if err != nil {
		return nil, err
	}

	return &core.TableSet{Staging: staging, Core: coreTable, Gold: gold}, nil
}

func (e *CSVExtractor) readTable(ctx context.Context, name, location string) (*core.Table, error) {
	source, err := e.openSource(ctx, location)
	if err != nil {
		return nil, err
	}
	return core.ReadAll(ctx, source, name)
}

func (e *CSVExtractor) openSource(ctx context.Context, location string) (core.DataSource, error) {
	csvOptions := []readers.ReaderOptionCSV{readers.WithCSVTypeInference(false)}

	if e.Sources.S3Bucket != "" {
		return readers.NewS3Reader(ctx,
			readers.WithS3Bucket(e.Sources.S3Bucket),
			readers.WithS3Key(location),
			readers.WithS3Region(e.Sources.S3Region),
			readers.WithS3CSVOptions(csvOptions...),
		)
	}
	return readers.OpenCSVFile(location, csvOptions...)
}
