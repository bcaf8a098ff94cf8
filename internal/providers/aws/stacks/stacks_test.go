package stacks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funcstack/funcstack/internal/deploy/contract"
	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/testutil"
)

// mockCloudFormationClient is a mock implementation of CloudFormationClient
//
//nolint:dupl // Mock struct must match interface signature
type mockCloudFormationClient struct {
	describeStacksFunc func(
		ctx context.Context,
		params *cloudformation.DescribeStacksInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.DescribeStacksOutput, error)
	describeStackEventsFunc func(
		ctx context.Context,
		params *cloudformation.DescribeStackEventsInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.DescribeStackEventsOutput, error)
	createStackFunc func(
		ctx context.Context,
		params *cloudformation.CreateStackInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.CreateStackOutput, error)
	updateStackFunc func(
		ctx context.Context,
		params *cloudformation.UpdateStackInput,
		optFns ...func(*cloudformation.Options),
	) (*cloudformation.UpdateStackOutput, error)
}

func (m *mockCloudFormationClient) DescribeStacks(
	ctx context.Context,
	params *cloudformation.DescribeStacksInput,
	optFns ...func(*cloudformation.Options),
) (*cloudformation.DescribeStacksOutput, error) {
	if m.describeStacksFunc != nil {
		return m.describeStacksFunc(ctx, params, optFns...)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCloudFormationClient) DescribeStackEvents(
	ctx context.Context,
	params *cloudformation.DescribeStackEventsInput,
	optFns ...func(*cloudformation.Options),
) (*cloudformation.DescribeStackEventsOutput, error) {
	if m.describeStackEventsFunc != nil {
		return m.describeStackEventsFunc(ctx, params, optFns...)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCloudFormationClient) CreateStack(
	ctx context.Context,
	params *cloudformation.CreateStackInput,
	optFns ...func(*cloudformation.Options),
) (*cloudformation.CreateStackOutput, error) {
	if m.createStackFunc != nil {
		return m.createStackFunc(ctx, params, optFns...)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCloudFormationClient) UpdateStack(
	ctx context.Context,
	params *cloudformation.UpdateStackInput,
	optFns ...func(*cloudformation.Options),
) (*cloudformation.UpdateStackOutput, error) {
	if m.updateStackFunc != nil {
		return m.updateStackFunc(ctx, params, optFns...)
	}
	return nil, errors.New("not implemented")
}

func fastConfig() Config {
	return Config{
		PollInterval:    time.Millisecond,
		MaxPollInterval: 4 * time.Millisecond,
		Timeout:         2 * time.Second,
	}
}

func validationError(message string) error {
	return &smithy.GenericAPIError{Code: "ValidationError", Message: message}
}

func describeWith(statuses ...types.StackStatus) (func(
	context.Context, *cloudformation.DescribeStacksInput, ...func(*cloudformation.Options),
) (*cloudformation.DescribeStacksOutput, error), *int32) {
	var calls int32
	return func(
		_ context.Context,
		params *cloudformation.DescribeStacksInput,
		_ ...func(*cloudformation.Options),
	) (*cloudformation.DescribeStacksOutput, error) {
		idx := int(atomic.AddInt32(&calls, 1)) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		return &cloudformation.DescribeStacksOutput{
			Stacks: []types.Stack{{
				StackName:   params.StackName,
				StackId:     aws.String("arn:aws:cloudformation:us-east-1:123456789012:stack/app/1"),
				StackStatus: statuses[idx],
				Outputs: []types.Output{
					{OutputKey: aws.String("ApiEndpoint"), OutputValue: aws.String("https://example")},
				},
			}},
		}, nil
	}, &calls
}

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(&mockCloudFormationClient{}, Config{}, testutil.SilentLogger())
	assert.Equal(t, DefaultConfig(), m.cfg)
}

func TestDescribeStack(t *testing.T) {
	t.Run("stack exists", func(t *testing.T) {
		describe, _ := describeWith(types.StackStatusCreateComplete)
		m := NewManager(&mockCloudFormationClient{describeStacksFunc: describe}, fastConfig(), testutil.SilentLogger())

		stack, err := m.DescribeStack(context.Background(), "app")

		require.NoError(t, err)
		assert.Equal(t, "app", stack.Name)
		assert.Equal(t, "CREATE_COMPLETE", stack.Status)
		assert.Equal(t, map[string]string{"ApiEndpoint": "https://example"}, stack.Outputs)
	})

	t.Run("stack does not exist", func(t *testing.T) {
		mock := &mockCloudFormationClient{
			describeStacksFunc: func(
				_ context.Context,
				_ *cloudformation.DescribeStacksInput,
				_ ...func(*cloudformation.Options),
			) (*cloudformation.DescribeStacksOutput, error) {
				return nil, validationError("Stack with id app does not exist")
			},
		}
		m := NewManager(mock, fastConfig(), testutil.SilentLogger())

		_, err := m.DescribeStack(context.Background(), "app")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		mock := &mockCloudFormationClient{
			describeStacksFunc: func(
				_ context.Context,
				_ *cloudformation.DescribeStacksInput,
				_ ...func(*cloudformation.Options),
			) (*cloudformation.DescribeStacksOutput, error) {
				return nil, errors.New("access denied")
			},
		}
		m := NewManager(mock, fastConfig(), testutil.SilentLogger())

		_, err := m.DescribeStack(context.Background(), "app")

		require.Error(t, err)
		assert.Empty(t, apperrors.GetErrorCode(err))
		assert.Contains(t, err.Error(), "access denied")
	})
}

func TestCreateStack(t *testing.T) {
	var captured *cloudformation.CreateStackInput
	mock := &mockCloudFormationClient{
		createStackFunc: func(
			_ context.Context,
			params *cloudformation.CreateStackInput,
			_ ...func(*cloudformation.Options),
		) (*cloudformation.CreateStackOutput, error) {
			captured = params
			return &cloudformation.CreateStackOutput{}, nil
		},
	}
	m := NewManager(mock, fastConfig(), testutil.SilentLogger())

	t.Run("inline body", func(t *testing.T) {
		require.NoError(t, m.CreateStack(context.Background(), "app", contract.TemplateSource{Body: "{}"}))
		assert.Equal(t, "{}", aws.ToString(captured.TemplateBody))
		assert.Nil(t, captured.TemplateURL)
		assert.Contains(t, captured.Capabilities, types.CapabilityCapabilityNamedIam)
		require.Len(t, captured.Tags, 1)
		assert.Equal(t, "funcstack", aws.ToString(captured.Tags[0].Value))
	})

	t.Run("template url", func(t *testing.T) {
		require.NoError(t, m.CreateStack(context.Background(), "app", contract.TemplateSource{URL: "https://b/t.json"}))
		assert.Equal(t, "https://b/t.json", aws.ToString(captured.TemplateURL))
		assert.Nil(t, captured.TemplateBody)
	})
}

func TestUpdateStackClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "no updates",
			err:      validationError("No updates are to be performed."),
			wantCode: apperrors.ErrCodeNoUpdates,
		},
		{
			name:     "rollback in progress",
			err:      validationError("Stack:arn:aws:cloudformation:us-east-1:1:stack/app/1 is in UPDATE_ROLLBACK_IN_PROGRESS state and can not be updated."),
			wantCode: apperrors.ErrCodeStackNotReady,
		},
		{
			name:     "resource not ready code",
			err:      &smithy.GenericAPIError{Code: "ResourceNotReady", Message: "busy"},
			wantCode: apperrors.ErrCodeStackNotReady,
		},
		{
			name:     "plain error",
			err:      errors.New("throttled"),
			wantCode: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCloudFormationClient{
				updateStackFunc: func(
					_ context.Context,
					_ *cloudformation.UpdateStackInput,
					_ ...func(*cloudformation.Options),
				) (*cloudformation.UpdateStackOutput, error) {
					return nil, tt.err
				},
			}
			m := NewManager(mock, fastConfig(), testutil.SilentLogger())

			err := m.UpdateStack(context.Background(), "app", contract.TemplateSource{Body: "{}"})

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.GetErrorCode(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestWaitForStackConverged(t *testing.T) {
	t.Run("completes after progress", func(t *testing.T) {
		describe, calls := describeWith(
			types.StackStatusUpdateInProgress,
			types.StackStatusUpdateCompleteCleanupInProgress,
			types.StackStatusUpdateComplete,
		)
		m := NewManager(&mockCloudFormationClient{describeStacksFunc: describe}, fastConfig(), testutil.SilentLogger())

		stack, err := m.WaitForStackConverged(context.Background(), "app")

		require.NoError(t, err)
		assert.Equal(t, "UPDATE_COMPLETE", stack.Status)
		assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	})

	t.Run("failure carries resource events", func(t *testing.T) {
		describe, _ := describeWith(types.StackStatusUpdateRollbackComplete)
		mock := &mockCloudFormationClient{
			describeStacksFunc: describe,
			describeStackEventsFunc: func(
				_ context.Context,
				_ *cloudformation.DescribeStackEventsInput,
				_ ...func(*cloudformation.Options),
			) (*cloudformation.DescribeStackEventsOutput, error) {
				return &cloudformation.DescribeStackEventsOutput{
					StackEvents: []types.StackEvent{
						{
							LogicalResourceId:    aws.String("LambdaApi"),
							ResourceType:         aws.String("AWS::Lambda::Function"),
							ResourceStatus:       types.ResourceStatusUpdateFailed,
							ResourceStatusReason: aws.String("bucket not found"),
						},
						{
							LogicalResourceId: aws.String("Api"),
							ResourceStatus:    types.ResourceStatusUpdateComplete,
						},
					},
				}, nil
			},
		}
		m := NewManager(mock, fastConfig(), testutil.SilentLogger())

		_, err := m.WaitForStackConverged(context.Background(), "app")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeStackFailed, apperrors.GetErrorCode(err))
		assert.Contains(t, err.Error(), "LambdaApi (AWS::Lambda::Function): bucket not found")
		assert.NotContains(t, err.Error(), "Api ()")
	})

	t.Run("times out", func(t *testing.T) {
		describe, _ := describeWith(types.StackStatusCreateInProgress)
		cfg := fastConfig()
		cfg.Timeout = 20 * time.Millisecond
		m := NewManager(&mockCloudFormationClient{describeStacksFunc: describe}, cfg, testutil.SilentLogger())

		_, err := m.WaitForStackConverged(context.Background(), "app")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeStackTimeout, apperrors.GetErrorCode(err))
	})

	t.Run("context cancelled", func(t *testing.T) {
		describe, _ := describeWith(types.StackStatusCreateInProgress)
		m := NewManager(&mockCloudFormationClient{describeStacksFunc: describe}, fastConfig(), testutil.SilentLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.WaitForStackConverged(ctx, "app")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStatusOutcome(t *testing.T) {
	assert.Equal(t, outcomeComplete, statusOutcome(types.StackStatusCreateComplete))
	assert.Equal(t, outcomeFailed, statusOutcome(types.StackStatusRollbackComplete))
	assert.Equal(t, outcomeFailed, statusOutcome(types.StackStatusUpdateRollbackFailed))
	assert.Equal(t, outcomeInProgress, statusOutcome(types.StackStatusUpdateRollbackInProgress))
	assert.Equal(t, outcomeInProgress, statusOutcome(types.StackStatusReviewInProgress))
}
