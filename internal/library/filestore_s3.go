/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3Config contains S3-compatible object storage configuration.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // S3-compatible services (MinIO, Spaces, etc.)
	UsePathStyle    bool   // Required for MinIO
}

// S3FileStore implements FileStore using S3-compatible object storage.
// Keys follow <tenant>/<trackID> under the configured bucket.
type S3FileStore struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3FileStore creates an S3-backed track store.
func NewS3FileStore(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3FileStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3FileStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With().Str("component", "filestore_s3").Logger(),
	}, nil
}

func (s *S3FileStore) key(tenantID int64, trackID string) string {
	return path.Join(strconv.FormatInt(tenantID, 10), trackID)
}

func (s *S3FileStore) prefix(tenantID int64) string {
	return strconv.FormatInt(tenantID, 10) + "/"
}

// Store uploads the payload. Object storage has no directories, so tenant
// provisioning is implicit.
func (s *S3FileStore) Store(ctx context.Context, tenantID int64, trackID string, payload io.Reader) (string, error) {
	key := s.key(tenantID, trackID)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   payload,
	}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	s.logger.Debug().
		Str("key", key).
		Int64("tenant_id", tenantID).
		Msg("track uploaded to object storage")

	return key, nil
}

// Open returns the payload body for delivery.
func (s *S3FileStore) Open(ctx context.Context, tenantID int64, trackID string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(tenantID, trackID)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return out.Body, nil
}

// List returns track identifiers under the tenant prefix. A prefix with no
// objects at all maps to ErrLibraryNotFound, matching the filesystem backend.
func (s *S3FileStore) List(ctx context.Context, tenantID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var (
		ids  []string
		seen bool
	)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix(tenantID)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			seen = true
			name := path.Base(aws.ToString(obj.Key))
			if strings.HasSuffix(name, TrackExtension) {
				ids = append(ids, name)
			}
		}
	}
	if !seen {
		return nil, ErrLibraryNotFound
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists reports whether any object lives under the tenant prefix.
func (s *S3FileStore) Exists(ctx context.Context, tenantID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.prefix(tenantID)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("list objects: %w", err)
	}
	return len(out.Contents) > 0, nil
}

// Localize downloads the payload to a temp file for inspection.
func (s *S3FileStore) Localize(ctx context.Context, tenantID int64, trackID string) (string, func(), error) {
	body, err := s.Open(ctx, tenantID, trackID)
	if err != nil {
		return "", nil, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "squonk-track-*"+TrackExtension)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("download track: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	name := tmp.Name()
	return name, func() { os.Remove(name) }, nil
}
