package client

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// LambdaClient defines the interface for the Lambda operations used by the health check.
// ListFunctions matches lambda.ListFunctionsAPIClient so the SDK paginator accepts it.
type LambdaClient interface {
	ListFunctions(
		ctx context.Context,
		params *lambda.ListFunctionsInput,
		optFns ...func(*lambda.Options),
	) (*lambda.ListFunctionsOutput, error)
	Invoke(
		ctx context.Context,
		params *lambda.InvokeInput,
		optFns ...func(*lambda.Options),
	) (*lambda.InvokeOutput, error)
}

// LambdaClientAdapter wraps the AWS SDK Lambda client to implement LambdaClient.
type LambdaClientAdapter struct {
	client *lambda.Client
}

// NewLambdaClientAdapter creates a new adapter wrapping the AWS SDK Lambda client.
func NewLambdaClientAdapter(client *lambda.Client) *LambdaClientAdapter {
	return &LambdaClientAdapter{client: client}
}

// ListFunctions wraps the AWS SDK ListFunctions operation.
func (a *LambdaClientAdapter) ListFunctions(
	ctx context.Context,
	params *lambda.ListFunctionsInput,
	optFns ...func(*lambda.Options),
) (*lambda.ListFunctionsOutput, error) {
	return a.client.ListFunctions(ctx, params, optFns...)
}

// Invoke wraps the AWS SDK Invoke operation.
func (a *LambdaClientAdapter) Invoke(
	ctx context.Context,
	params *lambda.InvokeInput,
	optFns ...func(*lambda.Options),
) (*lambda.InvokeOutput, error) {
	return a.client.Invoke(ctx, params, optFns...)
}
