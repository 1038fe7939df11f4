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

package readers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ecomdata/productetl/core"
)

// S3ReaderError provides structured error information for S3 reader operations.
type S3ReaderError struct {
	Op  string // Operation that failed (e.g., "get_object", "read")
	Err error  // Underlying error
}

func (e *S3ReaderError) Error() string {
	return fmt.Sprintf("s3 reader %s: %v", e.Op, e.Err)
}

func (e *S3ReaderError) Unwrap() error {
	return e.Err
}

// S3ReaderOptions configures the S3 reader behavior.
type S3ReaderOptions struct {
	Bucket         string          // S3 bucket name
	Key            string          // Object key of the raw dataset
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
	CSVOptions     []ReaderOptionCSV
}

// ReaderOptionS3 represents a configuration function for S3Reader.
type ReaderOptionS3 func(*S3ReaderOptions)

func WithS3Bucket(bucket string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Bucket = bucket
	}
}

func WithS3Key(key string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Key = key
	}
}

func WithS3Region(region string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Region = region
	}
}

func WithS3Profile(profile string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Profile = profile
	}
}

func WithS3Credentials(creds aws.Credentials) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.Credentials = creds
	}
}

func WithS3Endpoint(endpoint string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.EndpointURL = endpoint
	}
}

func WithS3PathStyle(pathStyle bool) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.ForcePathStyle = pathStyle
	}
}

// WithS3CSVOptions forwards options to the CSV reader wrapping the object body.
func WithS3CSVOptions(options ...ReaderOptionCSV) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) {
		opts.CSVOptions = append(opts.CSVOptions, options...)
	}
}

// S3Reader implements core.DataSource by streaming one raw CSV object from
// S3. Raw product drops can live in a bucket instead of local disk; the rest
// of the pipeline is unchanged.
type S3Reader struct {
	csv  *CSVReader
	opts S3ReaderOptions
}

// NewS3Reader fetches the configured object and prepares a CSV source over
// its body. A missing bucket, key, or object is a fatal extraction error.
func NewS3Reader(ctx context.Context, options ...ReaderOptionS3) (*S3Reader, error) {
	opts := S3ReaderOptions{}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3ReaderError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}
	if opts.Key == "" {
		return nil, &S3ReaderError{Op: "validate_options", Err: fmt.Errorf("object key is required")}
	}

	cfg, err := createAWSConfig(ctx, opts)
	if err != nil {
		return nil, &S3ReaderError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(opts.Bucket),
		Key:    aws.String(opts.Key),
	})
	if err != nil {
		return nil, &S3ReaderError{Op: "get_object", Err: fmt.Errorf("failed to get object %s: %w", opts.Key, err)}
	}

	csvReader, err := NewCSVReader(result.Body, opts.CSVOptions...)
	if err != nil {
		result.Body.Close()
		return nil, &S3ReaderError{Op: "create_csv_reader", Err: err}
	}

	return &S3Reader{csv: csvReader, opts: opts}, nil
}

// Read implements the core.DataSource interface.
func (s *S3Reader) Read(ctx context.Context) (core.Record, error) {
	return s.csv.Read(ctx)
}

// Columns implements core.ColumnLister via the underlying CSV reader.
func (s *S3Reader) Columns() []string {
	return s.csv.Columns()
}

// Close implements the core.DataSource interface.
func (s *S3Reader) Close() error {
	return s.csv.Close()
}

// Stats returns the statistics of the underlying CSV reader.
func (s *S3Reader) Stats() CSVReaderStats {
	return s.csv.Stats()
}

// createAWSConfig creates AWS configuration from options.
func createAWSConfig(ctx context.Context, opts S3ReaderOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}

	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	// Override with explicit credentials if provided
	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}
