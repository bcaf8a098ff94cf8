// Package storage implements deploy bucket provisioning and artefact upload on S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	awsconfig "github.com/funcstack/funcstack/internal/config/aws"
	"github.com/funcstack/funcstack/internal/deploy/contract"
	"github.com/funcstack/funcstack/internal/providers/aws/client"
)

// defaultRegion is the one region where CreateBucket rejects a location constraint.
const defaultRegion = "us-east-1"

// Store implements contract.Storage.
type Store struct {
	client client.S3Client
	region string
	logger *slog.Logger
}

var _ contract.Storage = (*Store)(nil)

// NewStore creates a store. region is used to build object URLs.
func NewStore(s3Client client.S3Client, region string, log *slog.Logger) *Store {
	return &Store{client: s3Client, region: region, logger: log}
}

// BucketExists reports whether the bucket exists and is reachable.
func (s *Store) BucketExists(ctx context.Context, name string) (bool, error) {
	s.logger.Debug("calling external service", "context", map[string]string{
		"operation": "S3.HeadBucket",
		"bucket":    name,
	})

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		return true, nil
	}

	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket") {
		return false, nil
	}

	return false, fmt.Errorf("failed to check bucket %s: %w", name, err)
}

// CreateBucket creates the bucket in region. A bucket already owned by the caller is not an error.
func (s *Store) CreateBucket(ctx context.Context, name, region string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if region != "" && region != defaultRegion {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}

	s.logger.Debug("calling external service", "context", map[string]string{
		"operation": "S3.CreateBucket",
		"bucket":    name,
		"region":    region,
	})

	_, err := s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return nil
}

// UploadObject stores body under key.
func (s *Store) UploadObject(ctx context.Context, bucket, key string, body io.Reader) error {
	s.logger.Debug("calling external service", "context", map[string]string{
		"operation": "S3.PutObject",
		"bucket":    bucket,
		"key":       key,
	})

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// ObjectURL returns the virtual-hosted HTTPS URL of key.
func (s *Store) ObjectURL(bucket, key string) string {
	return awsconfig.BuildObjectURL(bucket, s.region, key)
}
