/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package library

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Mirror asynchronously copies every uploaded library file into an
// S3-compatible bucket. It never participates in List or pull_chunk reads —
// the local filesystem stays the single source of truth the core operates
// against; this is a fire-and-forget backup, not a second tier of storage.
type S3Mirror struct {
	client       *s3.Client
	bucket       string
	region       string
	usePathStyle bool
	timeout      time.Duration
	logger       zerolog.Logger
}

// S3MirrorConfig configures the optional library mirror.
type S3MirrorConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // optional: MinIO, Spaces, and other S3-compatible stores
	UsePathStyle    bool
}

// NewS3Mirror builds an S3Mirror. It does not verify bucket access eagerly —
// a misconfigured mirror should never block server startup.
func NewS3Mirror(ctx context.Context, cfg S3MirrorConfig, logger zerolog.Logger) (*S3Mirror, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.Endpoint, HostnameImmutable: true, SigningRegion: cfg.Region}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Mirror{
		client:       client,
		bucket:       cfg.Bucket,
		region:       cfg.Region,
		usePathStyle: cfg.UsePathStyle,
		timeout:      10 * time.Second,
		logger:       logger.With().Str("component", "library_s3_mirror").Logger(),
	}, nil
}

// Store uploads name/content to the configured bucket. Errors are logged,
// never returned — callers invoke this from a detached goroutine and have
// no error channel to receive on.
func (m *S3Mirror) Store(name string, content []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	key := libraryKey(name)
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(detectContentType(name)),
	})
	if err != nil {
		m.logger.Warn().Err(err).Str("name", name).Str("key", key).Msg("library mirror upload failed")
		return
	}
	m.logger.Debug().Str("name", name).Str("key", key).Msg("library file mirrored to s3")
}

func libraryKey(name string) string {
	return "songs/" + name
}

func detectContentType(name string) string {
	switch filepath.Ext(name) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	case ".aac":
		return "audio/aac"
	case ".opus":
		return "audio/opus"
	default:
		return "application/octet-stream"
	}
}
