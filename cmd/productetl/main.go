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

// Command productetl runs the product cleaning pipeline: it extracts the
// three raw product datasets, normalizes and validates them, optionally
// stages parquet snapshots, and replaces the warehouse tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ecomdata/productetl"
	"github.com/ecomdata/productetl/config"
	"github.com/ecomdata/productetl/normalize"
	"github.com/ecomdata/productetl/writers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "productetl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	db, err := writers.Open(writers.ConnConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	options := []productetl.RunnerOption{
		productetl.WithExtractor(&productetl.CSVExtractor{Sources: cfg.Sources}),
		productetl.WithLoader(&productetl.PostgresLoader{DB: db}),
		productetl.WithNormalizer(newNormalizer(cfg.Pipeline)),
		productetl.WithLogger(logger),
	}
	if cfg.Snapshot.Enabled {
		options = append(options, productetl.WithSnapshotter(&productetl.ParquetSnapshotter{Dir: cfg.Snapshot.Dir}))
	}

	runner, err := productetl.NewRunner(options...)
	if err != nil {
		return err
	}
	return runner.Run(context.Background())
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}

func newNormalizer(cfg config.PipelineConfig) *normalize.Normalizer {
	var options []normalize.Option
	if cfg.IDColumn != "" {
		options = append(options, normalize.WithIDColumn(cfg.IDColumn))
	}
	if len(cfg.ListColumns) > 0 {
		options = append(options, normalize.WithListColumns(cfg.ListColumns...))
	}
	if len(cfg.TextColumns) > 0 {
		options = append(options, normalize.WithTextColumns(cfg.TextColumns...))
	}
	return normalize.New(options...)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
