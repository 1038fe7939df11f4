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
	"fmt"
	"log/slog"

	"github.com/ecomdata/productetl/normalize"
	"github.com/ecomdata/productetl/validate"
)

// Runner sequences one pipeline run: extract, normalize, validate,
// optionally snapshot, load. Every stage failure is fatal for the run; there
// is no retry and no partial success. Validation failures propagate to the
// caller untouched.
type Runner struct {
	extractor   Extractor
	loader      Loader
	snapshotter Snapshotter
	normalizer  *normalize.Normalizer
	logger      *slog.Logger
}

// RunnerOption represents a configuration function for the Runner.
type RunnerOption func(*Runner)

// WithExtractor sets the extraction collaborator.
func WithExtractor(extractor Extractor) RunnerOption {
	return func(r *Runner) {
		r.extractor = extractor
	}
}

// WithLoader sets the load collaborator.
func WithLoader(loader Loader) RunnerOption {
	return func(r *Runner) {
		r.loader = loader
	}
}

// WithSnapshotter sets the optional intermediate snapshot stage.
func WithSnapshotter(snapshotter Snapshotter) RunnerOption {
	return func(r *Runner) {
		r.snapshotter = snapshotter
	}
}

// WithNormalizer overrides the default cleaning configuration.
func WithNormalizer(normalizer *normalize.Normalizer) RunnerOption {
	return func(r *Runner) {
		r.normalizer = normalizer
	}
}

// WithLogger sets the structured logger used between stages.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner validates and constructs a Runner. An extractor and a loader are
// required; the normalizer defaults to the product column configuration and
// the logger to slog.Default().
func NewRunner(options ...RunnerOption) (*Runner, error) {
	r := &Runner{
		normalizer: normalize.New(),
		logger:     slog.Default(),
	}
	for _, option := range options {
		option(r)
	}

	if r.extractor == nil {
		return nil, fmt.Errorf("runner requires an extractor")
	}
	if r.loader == nil {
		return nil, fmt.Errorf("runner requires a loader")
	}
	return r, nil
}

// Run executes one full pipeline run.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("extracting raw tables")
	raw, err := r.extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("extract: no tables returned")
	}
	r.logger.Info("extracted raw tables",
		"staging_rows", raw.Staging.Len(),
		"core_rows", raw.Core.Len(),
		"gold_rows", raw.Gold.Len(),
	)

	cleaned, err := r.normalizer.Normalize(raw)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	r.logger.Info("normalized tables",
		"staging_rows", cleaned.Staging.Len(),
		"core_rows", cleaned.Core.Len(),
		"gold_rows", cleaned.Gold.Len(),
	)

	if err := validate.Validate(cleaned); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	r.logger.Info("validation passed")

	if r.snapshotter != nil {
		if err := r.snapshotter.Snapshot(ctx, cleaned); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		r.logger.Info("staged intermediate snapshots")
	}

	if err := r.loader.Load(ctx, cleaned); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	r.logger.Info("loaded cleaned tables")

	return nil
}
