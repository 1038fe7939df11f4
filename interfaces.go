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

// Package productetl wires the batch product-cleaning pipeline.
//
// ProductETL ingests three raw tabular product datasets, normalizes their
// fields into the staging, core, and gold tiers, enforces integrity
// invariants, and persists the cleaned tables to PostgreSQL in full-replace
// mode. The cleaning engine (normalize, validate) is pure; extraction and
// loading are collaborators behind the interfaces in this file.
//
// Example usage:
//
//	runner, err := productetl.NewRunner(
//		productetl.WithExtractor(extractor),
//		productetl.WithLoader(loader),
//	)
//	if err != nil { log.Fatal(err) }
//	if err := runner.Run(context.Background()); err != nil { log.Fatal(err) }
package productetl

import (
	"context"

	"github.com/ecomdata/productetl/core"
)

// Extractor supplies the three raw tables of one run. Implementations assume
// their inputs exist and are parseable; a missing or unreadable source is a
// fatal error surfaced before the cleaning engine runs.
type Extractor interface {
	Extract(ctx context.Context) (*core.TableSet, error)
}

// Loader persists the three cleaned tables, each to its fixed destination,
// always in full-replace mode.
type Loader interface {
	Load(ctx context.Context, set *core.TableSet) error
}

// Snapshotter stages the cleaned tables as intermediate artifacts between
// validation and load.
type Snapshotter interface {
	Snapshot(ctx context.Context, set *core.TableSet) error
}

// ExtractorFunc is a function adapter for the Extractor interface.
type ExtractorFunc func(ctx context.Context) (*core.TableSet, error)

// Extract implements the Extractor interface for ExtractorFunc.
func (f ExtractorFunc) Extract(ctx context.Context) (*core.TableSet, error) {
	return f(ctx)
}

// LoaderFunc is a function adapter for the Loader interface.
type LoaderFunc func(ctx context.Context, set *core.TableSet) error

// Load implements the Loader interface for LoaderFunc.
func (f LoaderFunc) Load(ctx context.Context, set *core.TableSet) error {
	return f(ctx, set)
}
