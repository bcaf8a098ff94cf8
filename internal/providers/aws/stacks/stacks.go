// Package stacks implements contract.StackManager on top of CloudFormation.
package stacks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"

	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/deploy/contract"
	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/providers/aws/client"
)

// Provider messages that are not failures of the call itself.
const (
	noUpdatesMessage    = "No updates are to be performed"
	notExistMessage     = "does not exist"
	notUpdatableMessage = "can not be updated"
	resourceNotReady    = "ResourceNotReady"
)

// Config bounds the convergence wait.
type Config struct {
	PollInterval    time.Duration
	MaxPollInterval time.Duration
	Timeout         time.Duration
}

// DefaultConfig returns the built-in polling bounds.
func DefaultConfig() Config {
	return Config{
		PollInterval:    constants.DefaultStackPollInterval,
		MaxPollInterval: constants.DefaultStackMaxPollInterval,
		Timeout:         constants.DefaultStackTimeout,
	}
}

// Manager implements contract.StackManager.
type Manager struct {
	client client.CloudFormationClient
	cfg    Config
	logger *slog.Logger
}

// NewManager creates a stack manager. Zero durations in cfg take the defaults.
func NewManager(cfnClient client.CloudFormationClient, cfg Config, log *slog.Logger) *Manager {
	defaults := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.MaxPollInterval < cfg.PollInterval {
		cfg.MaxPollInterval = max(defaults.MaxPollInterval, cfg.PollInterval)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	return &Manager{client: cfnClient, cfg: cfg, logger: log}
}

var _ contract.StackManager = (*Manager)(nil)

// DescribeStack returns the current state of the stack, or a NOT_FOUND error.
func (m *Manager) DescribeStack(ctx context.Context, name string) (*contract.Stack, error) {
	m.logger.Debug("calling external service", "context", map[string]string{
		"operation": "CloudFormation.DescribeStacks",
		"stack":     name,
	})

	result, err := m.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		return nil, classify(err, name)
	}
	if len(result.Stacks) == 0 {
		return nil, apperrors.ErrResourceNotFound(fmt.Sprintf("stack %s not found", name), nil)
	}

	return toStack(&result.Stacks[0]), nil
}

// CreateStack submits a new stack. It does not wait.
func (m *Manager) CreateStack(ctx context.Context, name string, source contract.TemplateSource) error {
	input := &cloudformation.CreateStackInput{
		StackName:    aws.String(name),
		Capabilities: []types.Capability{types.CapabilityCapabilityIam, types.CapabilityCapabilityNamedIam},
		Tags: []types.Tag{
			{
				Key:   aws.String(constants.ManagedByTagKey),
				Value: aws.String(constants.ProjectName),
			},
		},
	}
	if source.URL != "" {
		input.TemplateURL = aws.String(source.URL)
	} else {
		input.TemplateBody = aws.String(source.Body)
	}

	m.logger.Debug("calling external service", "context", map[string]string{
		"operation": "CloudFormation.CreateStack",
		"stack":     name,
	})

	if _, err := m.client.CreateStack(ctx, input); err != nil {
		return classify(err, name)
	}
	return nil
}

// UpdateStack submits a new template for an existing stack. It does not wait.
// "No updates" and "stack busy" responses come back as NO_UPDATES and STACK_NOT_READY.
func (m *Manager) UpdateStack(ctx context.Context, name string, source contract.TemplateSource) error {
	input := &cloudformation.UpdateStackInput{
		StackName:    aws.String(name),
		Capabilities: []types.Capability{types.CapabilityCapabilityIam, types.CapabilityCapabilityNamedIam},
	}
	if source.URL != "" {
		input.TemplateURL = aws.String(source.URL)
	} else {
		input.TemplateBody = aws.String(source.Body)
	}

	m.logger.Debug("calling external service", "context", map[string]string{
		"operation": "CloudFormation.UpdateStack",
		"stack":     name,
	})

	if _, err := m.client.UpdateStack(ctx, input); err != nil {
		return classify(err, name)
	}
	return nil
}

// WaitForStackConverged polls the stack with exponential backoff until it reaches a
// complete or failed status, the timeout passes, or ctx is done.
func (m *Manager) WaitForStackConverged(ctx context.Context, name string) (*contract.Stack, error) {
	interval := m.cfg.PollInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	timeout := time.After(m.cfg.Timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, apperrors.ErrStackTimeout(
				fmt.Sprintf("stack %s did not converge within %s", name, m.cfg.Timeout), nil)
		case <-timer.C:
			stack, err := m.DescribeStack(ctx, name)
			if err != nil {
				return nil, err
			}

			switch statusOutcome(types.StackStatus(stack.Status)) {
			case outcomeComplete:
				m.logger.Debug("stack converged", "context", map[string]string{
					"stack":  name,
					"status": stack.Status,
				})
				return stack, nil
			case outcomeFailed:
				return stack, m.failure(ctx, name, stack.Status)
			case outcomeInProgress:
				interval = min(interval*2, m.cfg.MaxPollInterval)
				timer.Reset(interval)
			}
		}
	}
}

type outcome int

const (
	outcomeInProgress outcome = iota
	outcomeComplete
	outcomeFailed
)

func statusOutcome(status types.StackStatus) outcome {
	switch status {
	case types.StackStatusCreateComplete, types.StackStatusUpdateComplete, types.StackStatusImportComplete:
		return outcomeComplete
	case types.StackStatusCreateFailed, types.StackStatusRollbackComplete,
		types.StackStatusRollbackFailed, types.StackStatusUpdateRollbackComplete,
		types.StackStatusUpdateRollbackFailed, types.StackStatusDeleteComplete,
		types.StackStatusDeleteFailed, types.StackStatusUpdateFailed,
		types.StackStatusImportRollbackFailed, types.StackStatusImportRollbackComplete:
		return outcomeFailed
	default:
		return outcomeInProgress
	}
}

func (m *Manager) failure(ctx context.Context, name, status string) error {
	message := fmt.Sprintf("stack %s ended in status %s", name, status)
	if details := m.failedResourceEvents(ctx, name); details != "" {
		message += "\n\nResource failures:\n" + details
	}
	return apperrors.ErrStackFailed(message, nil)
}

// failedResourceEvents retrieves detailed failure information from stack events.
func (m *Manager) failedResourceEvents(ctx context.Context, name string) string {
	result, err := m.client.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(name),
	})
	if err != nil {
		m.logger.Debug("failed to describe stack events", "context", map[string]string{
			"stack": name,
			"error": err.Error(),
		})
		return ""
	}

	var failures []string
	for i := range result.StackEvents {
		event := &result.StackEvents[i]
		status := string(event.ResourceStatus)
		if !strings.Contains(status, "FAILED") && !strings.Contains(status, "ROLLBACK") {
			continue
		}
		reason := aws.ToString(event.ResourceStatusReason)
		if reason == "" {
			continue
		}
		failures = append(failures, fmt.Sprintf("  - %s (%s): %s",
			aws.ToString(event.LogicalResourceId), aws.ToString(event.ResourceType), reason))
	}

	return strings.Join(failures, "\n")
}

func toStack(s *types.Stack) *contract.Stack {
	outputs := make(map[string]string, len(s.Outputs))
	for _, out := range s.Outputs {
		if out.OutputKey != nil && out.OutputValue != nil {
			outputs[*out.OutputKey] = *out.OutputValue
		}
	}
	return &contract.Stack{
		Name:    aws.ToString(s.StackName),
		ID:      aws.ToString(s.StackId),
		Status:  string(s.StackStatus),
		Outputs: outputs,
	}
}

// classify maps provider responses with a meaning to the orchestrator onto coded errors.
// Everything else is returned wrapped but otherwise unchanged.
func classify(err error, stack string) error {
	code, message := "", err.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code, message = apiErr.ErrorCode(), apiErr.ErrorMessage()
	}

	switch {
	case strings.Contains(message, noUpdatesMessage):
		return apperrors.ErrNoChanges(err)
	case strings.Contains(message, notExistMessage):
		return apperrors.ErrResourceNotFound(fmt.Sprintf("stack %s not found", stack), err)
	case code == resourceNotReady || strings.Contains(message, notUpdatableMessage):
		return apperrors.ErrNotReady(err)
	}
	return fmt.Errorf("stack %s: %w", stack, err)
}
