// Package s3 provides an S3-backed implementation of the record store.
// Records are stored one object per (kind, id) pair under a configurable
// key prefix, e.g. "agentperf/profile/u1".
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/agentperf/agentperf/pkg/types"
	"github.com/agentperf/agentperf/pkg/utils"
)

// Config represents S3 store configuration.
type Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	MaxRetries      int    `yaml:"max_retries"`
}

// NewDefaultConfig returns an S3 store configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Region:     "us-east-1",
		Prefix:     "agentperf",
		MaxRetries: 3,
	}
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket name cannot be empty")
	}
	if c.Region == "" {
		return fmt.Errorf("region cannot be empty")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("access_key_id and secret_access_key must be set together")
	}
	return nil
}

// Store implements the record store over an S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	logger *utils.Logger
}

// NewStore creates an S3-backed store. Credentials fall back to the
// default AWS chain when no static keys are configured; a custom
// endpoint enables MinIO and other S3-compatible backends.
func NewStore(ctx context.Context, cfg *Config, logger *utils.Logger) (*Store, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid S3 store config: %w", err)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(cfg.MaxRetries),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: utils.OrDiscard(logger).WithComponent("s3"),
	}, nil
}

// Load retrieves the record object, translating a missing key into
// types.ErrNotFound.
func (s *Store) Load(ctx context.Context, kind, id string) ([]byte, error) {
	key := s.objectKey(kind, id)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	s.logger.Debug("loaded %s (%d bytes)", key, len(data))
	return data, nil
}

// Save writes the record object, overwriting any previous version.
func (s *Store) Save(ctx context.Context, kind, id string, data []byte) error {
	key := s.objectKey(kind, id)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	s.logger.Debug("saved %s (%d bytes)", key, len(data))
	return nil
}

// Delete removes the record object. S3 deletes are idempotent, so a
// missing key is not an error.
func (s *Store) Delete(ctx context.Context, kind, id string) error {
	key := s.objectKey(kind, id)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// HealthCheck verifies the bucket is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}

func (s *Store) objectKey(kind, id string) string {
	if s.prefix == "" {
		return kind + "/" + id
	}
	return s.prefix + "/" + kind + "/" + id
}
