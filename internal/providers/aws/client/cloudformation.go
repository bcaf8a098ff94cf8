// Package client holds narrow interfaces over the AWS SDK clients used by the deploy engine,
// plus adapters wrapping the real SDK clients.
package client

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// CloudFormationClient defines the interface for CloudFormation operations.
// This interface enables mocking for unit tests.
//
//nolint:dupl // Interface signature duplicated in test mock
type CloudFormationClient interface {
	DescribeStacks(
		ctx context.Context,
		params *cloudformation.DescribeStacksInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.DescribeStacksOutput, error)
	DescribeStackEvents(
		ctx context.Context,
		params *cloudformation.DescribeStackEventsInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.DescribeStackEventsOutput, error)
	CreateStack(
		ctx context.Context,
		params *cloudformation.CreateStackInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.CreateStackOutput, error)
	UpdateStack(
		ctx context.Context,
		params *cloudformation.UpdateStackInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.UpdateStackOutput, error)
}

// CloudFormationClientAdapter wraps the AWS SDK CloudFormation client to implement CloudFormationClient.
type CloudFormationClientAdapter struct {
	client *cloudformation.Client
}

// NewCloudFormationClientAdapter creates a new adapter wrapping the AWS SDK CloudFormation client.
func NewCloudFormationClientAdapter(client *cloudformation.Client) *CloudFormationClientAdapter {
	return &CloudFormationClientAdapter{client: client}
}

// DescribeStacks wraps the AWS SDK DescribeStacks operation.
func (a *CloudFormationClientAdapter) DescribeStacks(
	ctx context.Context,
	params *cloudformation.DescribeStacksInput,
	optFns ...func(*cloudformation.Options),
) (*cloudformation.DescribeStacksOutput, error) {
	return a.client.DescribeStacks(ctx, params, optFns...)
}

// DescribeStackEvents wraps the AWS SDK DescribeStackEvents operation.
func (a *CloudFormationClientAdapter) DescribeStackEvents(
	ctx context.Context,
	params *cloudformation.DescribeStackEventsInput,
	optFns ...func(*cloudformation.Options),
) (*cloudformation.DescribeStackEventsOutput, error) {
	return a.client.DescribeStackEvents(ctx, params, optFns...)
}

// CreateStack wraps the AWS SDK CreateStack operation.
func (a *CloudFormationClientAdapter) CreateStack(
	ctx context.Context,
	params *cloudformation.CreateStackInput,
	optFns ...func(*cloudformation.Options),
) (*cloudformation.CreateStackOutput, error) {
	return a.client.CreateStack(ctx, params, optFns...)
}

// UpdateStack wraps the AWS SDK UpdateStack operation.
func (a *CloudFormationClientAdapter) UpdateStack(
	ctx context.Context,
	params *cloudformation.UpdateStackInput,
	optFns ...func(*cloudformation.Options),
) (*cloudformation.UpdateStackOutput, error) {
	return a.client.UpdateStack(ctx, params, optFns...)
}
