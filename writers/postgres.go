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

// Package writers provides implementations of core.DataSink for persisting
// cleaned tables.
package writers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/ecomdata/productetl/core"
)

// This file implements the PostgreSQL load collaborator. Every destination is
// written in full-replace mode: the table is dropped and recreated inside a
// transaction, then bulk-inserted. There is no upsert and no incremental
// merge; a run either replaces the destination wholesale or leaves it alone.

// ConnConfig is the explicit PostgreSQL connection configuration. It replaces
// any implicit process-wide connection state: callers construct one (usually
// via ConnConfigFromEnv) and hand it to Open.
type ConnConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnConfigFromEnv builds a ConnConfig from the conventional DB_* environment
// variables, leaving fields empty when unset.
func ConnConfigFromEnv() ConnConfig {
	port := 5432
	if p, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil && p != 0 {
		port = p
	}
	return ConnConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     port,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}
}

// DSN renders the lib/pq connection string.
func (c ConnConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("user=%s", c.User),
		fmt.Sprintf("dbname=%s", c.Database),
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", sslMode))
	return strings.Join(parts, " ")
}

// Open is the connection factory for the load collaborator.
func Open(cfg ConnConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, &PostgresWriterError{Op: "connect", Err: err}
	}
	return db, nil
}

// PostgresWriterError wraps PostgreSQL-specific write errors with context
// about the operation.
type PostgresWriterError struct {
	Op  string // The operation being performed (e.g., "write", "connect")
	Err error  // The underlying error
}

// Error returns the error string for PostgresWriterError.
func (e *PostgresWriterError) Error() string {
	return fmt.Sprintf("postgres writer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for PostgresWriterError.
func (e *PostgresWriterError) Unwrap() error {
	return e.Err
}

// PostgresWriterStats holds PostgreSQL write performance statistics.
type PostgresWriterStats struct {
	RecordsWritten   int64         // Total records written
	BatchesWritten   int64         // Number of batches written
	TransactionCount int64         // Number of transactions committed
	LastWriteTime    time.Time     // Time of last write
	WriteDuration    time.Duration // Total time spent writing
}

// PostgresWriterOptions configures the PostgreSQL writer.
type PostgresWriterOptions struct {
	DB           *sql.DB       // Open database handle (required)
	Schema       string        // Destination schema (staging, core, gold)
	TableName    string        // Destination table name
	Columns      []string      // Columns to write (order matters; inferred when empty)
	BatchSize    int           // Number of records per batch
	QueryTimeout time.Duration // Timeout for individual statements
}

// PostgresWriterOption represents a configuration function for PostgresWriterOptions.
type PostgresWriterOption func(*PostgresWriterOptions)

// WithPostgresDB sets the open database handle backing the writer.
func WithPostgresDB(db *sql.DB) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.DB = db
	}
}

// WithPostgresDestination sets the schema-qualified destination table.
func WithPostgresDestination(schema, table string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.Schema = schema
		opts.TableName = table
	}
}

// WithPostgresColumns sets the columns to write.
func WithPostgresColumns(columns []string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.Columns = append([]string(nil), columns...)
	}
}

// WithPostgresBatchSize sets the batch size for writes.
func WithPostgresBatchSize(size int) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.BatchSize = size
	}
}

// WithPostgresQueryTimeout sets the per-statement timeout.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.QueryTimeout = timeout
	}
}

// PostgresWriter implements core.DataSink for PostgreSQL output in
// full-replace mode. It batches inserts and wraps each batch in a transaction.
type PostgresWriter struct {
	mu          sync.Mutex
	db          *sql.DB
	options     PostgresWriterOptions
	columns     []string
	prepared    *sql.Stmt
	recordBuf   []core.Record
	stats       PostgresWriterStats
	initialized bool
	closed      bool
}

// NewPostgresWriter creates a writer for one destination table. The
// destination is replaced on the first write: the table is dropped, recreated
// from the first record's shape, and bulk-loaded.
func NewPostgresWriter(options ...PostgresWriterOption) (*PostgresWriter, error) {
	opts := PostgresWriterOptions{
		BatchSize:    1000,
		QueryTimeout: 30 * time.Second,
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.DB == nil {
		return nil, &PostgresWriterError{Op: "validate_options", Err: fmt.Errorf("database handle is required")}
	}
	if opts.TableName == "" {
		return nil, &PostgresWriterError{Op: "validate_options", Err: fmt.Errorf("table name is required")}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	return &PostgresWriter{
		db:        opts.DB,
		options:   opts,
		columns:   opts.Columns,
		recordBuf: make([]core.Record, 0, opts.BatchSize),
	}, nil
}

// Write implements the core.DataSink interface. Buffers records and writes in
// batches. Thread-safe.
func (w *PostgresWriter) Write(ctx context.Context, record core.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return &PostgresWriterError{Op: "write", Err: fmt.Errorf("postgres writer is closed")}
	}

	if !w.initialized {
		if err := w.initializeUnsafe(ctx, record); err != nil {
			return &PostgresWriterError{Op: "initialize", Err: err}
		}
	}

	w.recordBuf = append(w.recordBuf, record)
	w.stats.RecordsWritten++

	if len(w.recordBuf) >= w.options.BatchSize {
		if err := w.flushBufferUnsafe(ctx); err != nil {
			return &PostgresWriterError{Op: "write", Err: err}
		}
	}
	return nil
}

// Flush implements the core.DataSink interface.
func (w *PostgresWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), w.options.QueryTimeout)
	defer cancel()

	if err := w.flushBufferUnsafe(ctx); err != nil {
		return &PostgresWriterError{Op: "flush", Err: err}
	}
	return nil
}

// Close implements the core.DataSink interface. Flushes any remaining
// records and releases the prepared statement; the database handle belongs to
// the caller and stays open.
func (w *PostgresWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), w.options.QueryTimeout)
	defer cancel()

	// A table with no surviving rows still replaces its destination: stale
	// rows from the previous run must not outlive this one.
	if !w.initialized {
		if err := w.replaceDestinationUnsafe(ctx); err != nil {
			return &PostgresWriterError{Op: "close", Err: err}
		}
	}

	if err := w.flushBufferUnsafe(ctx); err != nil {
		return &PostgresWriterError{Op: "close", Err: err}
	}
	if w.prepared != nil {
		if err := w.prepared.Close(); err != nil {
			return &PostgresWriterError{Op: "close", Err: err}
		}
		w.prepared = nil
	}
	return nil
}

// Stats returns PostgreSQL write performance statistics.
func (w *PostgresWriter) Stats() PostgresWriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// initializeUnsafe performs the full-replace bootstrap from the first record:
// ensure the schema exists, drop and recreate the table, prepare the insert
// (must hold mutex).
func (w *PostgresWriter) initializeUnsafe(ctx context.Context, firstRecord core.Record) error {
	if len(w.columns) == 0 {
		w.columns = make([]string, 0, len(firstRecord))
		for column := range firstRecord {
			w.columns = append(w.columns, column)
		}
		sort.Strings(w.columns)
	}

	if err := w.ensureSchemaUnsafe(ctx); err != nil {
		return err
	}

	if err := w.replaceTableUnsafe(ctx, firstRecord); err != nil {
		return fmt.Errorf("failed to replace table: %w", err)
	}

	if err := w.prepareStatementUnsafe(ctx); err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	w.initialized = true
	return nil
}

// ensureSchemaUnsafe creates the destination schema when one is configured
// (must hold mutex).
func (w *PostgresWriter) ensureSchemaUnsafe(ctx context.Context) error {
	if w.options.Schema == "" {
		return nil
	}
	query := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.options.Schema)
	if _, err := w.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// replaceDestinationUnsafe drops and recreates the destination without
// preparing an insert, for the zero-row close path (must hold mutex).
func (w *PostgresWriter) replaceDestinationUnsafe(ctx context.Context) error {
	if err := w.ensureSchemaUnsafe(ctx); err != nil {
		return err
	}
	if err := w.replaceTableUnsafe(ctx, core.Record{}); err != nil {
		return fmt.Errorf("failed to replace table: %w", err)
	}
	return nil
}

// qualifiedTable returns the schema-qualified destination name.
func (w *PostgresWriter) qualifiedTable() string {
	if w.options.Schema == "" {
		return w.options.TableName
	}
	return w.options.Schema + "." + w.options.TableName
}

// replaceTableUnsafe drops and recreates the destination table based on the
// first record (must hold mutex).
func (w *PostgresWriter) replaceTableUnsafe(ctx context.Context, record core.Record) error {
	drop := fmt.Sprintf("DROP TABLE IF EXISTS %s", w.qualifiedTable())
	if _, err := w.db.ExecContext(ctx, drop); err != nil {
		return err
	}

	var columns []string
	for _, col := range w.columns {
		columns = append(columns, fmt.Sprintf("%s %s", col, w.inferSQLType(record[col])))
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", w.qualifiedTable(), strings.Join(columns, ", "))
	_, err := w.db.ExecContext(ctx, create)
	return err
}

// prepareStatementUnsafe prepares the INSERT statement (must hold mutex).
func (w *PostgresWriter) prepareStatementUnsafe(ctx context.Context) error {
	placeholders := make([]string, len(w.columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.qualifiedTable(),
		strings.Join(w.columns, ", "),
		strings.Join(placeholders, ", "))

	stmt, err := w.db.PrepareContext(ctx, query)
	if err != nil {
		return err
	}

	w.prepared = stmt
	return nil
}

// flushBufferUnsafe writes buffered records inside a transaction (must hold mutex).
func (w *PostgresWriter) flushBufferUnsafe(ctx context.Context) error {
	if len(w.recordBuf) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, record := range w.recordBuf {
		values := make([]interface{}, len(w.columns))
		for i, col := range w.columns {
			if val, ok := record[col]; ok {
				values[i] = w.convertValue(val)
			} else {
				values[i] = nil
			}
		}

		stmt := tx.StmtContext(ctx, w.prepared)
		_, err = stmt.ExecContext(ctx, values...)
		stmt.Close()
		if err != nil {
			return fmt.Errorf("failed to execute insert: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	w.stats.TransactionCount++

	w.stats.BatchesWritten++
	w.stats.LastWriteTime = time.Now()
	w.stats.WriteDuration += time.Since(start)
	w.recordBuf = w.recordBuf[:0]

	return nil
}

// inferSQLType infers the PostgreSQL column type from a Go value.
func (w *PostgresWriter) inferSQLType(value interface{}) string {
	if value == nil {
		return "TEXT"
	}

	switch value.(type) {
	case bool:
		return "BOOLEAN"
	case int, int8, int16, int32, int64:
		return "BIGINT"
	case uint, uint8, uint16, uint32, uint64:
		return "BIGINT"
	case float32, float64:
		return "DOUBLE PRECISION"
	case time.Time:
		return "TIMESTAMP"
	case []byte:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

// convertValue converts Go values to PostgreSQL-compatible types.
func (w *PostgresWriter) convertValue(value interface{}) interface{} {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case time.Time, bool, int64, float64, string, []byte:
		return v
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
			return rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint())
		case reflect.Float32:
			return float64(rv.Float())
		default:
			return fmt.Sprintf("%v", v)
		}
	}
}
