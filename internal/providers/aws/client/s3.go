package client

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client defines the interface for the S3 operations used for deploy buckets.
type S3Client interface {
	HeadBucket(
		ctx context.Context,
		params *s3.HeadBucketInput,
		optFns ...func(*s3.Options),
	) (*s3.HeadBucketOutput, error)
	CreateBucket(
		ctx context.Context,
		params *s3.CreateBucketInput,
		optFns ...func(*s3.Options),
	) (*s3.CreateBucketOutput, error)
	PutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)
}

// S3ClientAdapter wraps the AWS SDK S3 client to implement S3Client.
type S3ClientAdapter struct {
	client *s3.Client
}

// NewS3ClientAdapter creates a new adapter wrapping the AWS SDK S3 client.
func NewS3ClientAdapter(client *s3.Client) *S3ClientAdapter {
	return &S3ClientAdapter{client: client}
}

// HeadBucket wraps the AWS SDK HeadBucket operation.
func (a *S3ClientAdapter) HeadBucket(
	ctx context.Context,
	params *s3.HeadBucketInput,
	optFns ...func(*s3.Options),
) (*s3.HeadBucketOutput, error) {
	return a.client.HeadBucket(ctx, params, optFns...)
}

// CreateBucket wraps the AWS SDK CreateBucket operation.
func (a *S3ClientAdapter) CreateBucket(
	ctx context.Context,
	params *s3.CreateBucketInput,
	optFns ...func(*s3.Options),
) (*s3.CreateBucketOutput, error) {
	return a.client.CreateBucket(ctx, params, optFns...)
}

// PutObject wraps the AWS SDK PutObject operation.
func (a *S3ClientAdapter) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	return a.client.PutObject(ctx, params, optFns...)
}
