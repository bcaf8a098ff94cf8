package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSClient defines the interface for the STS operations used to resolve the caller's account.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// STSClientAdapter wraps the AWS SDK STS client to implement STSClient.
type STSClientAdapter struct {
	client *sts.Client
}

// NewSTSClientAdapter creates a new adapter wrapping the AWS SDK STS client.
func NewSTSClientAdapter(client *sts.Client) *STSClientAdapter {
	return &STSClientAdapter{client: client}
}

// GetCallerIdentity wraps the AWS SDK GetCallerIdentity operation.
func (a *STSClientAdapter) GetCallerIdentity(
	ctx context.Context,
	params *sts.GetCallerIdentityInput,
	optFns ...func(*sts.Options),
) (*sts.GetCallerIdentityOutput, error) {
	result, err := a.client.GetCallerIdentity(ctx, params, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}
	return result, nil
}
