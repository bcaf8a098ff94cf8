// Package functions lists and invokes deployed Lambda functions and tails their logs.
package functions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/funcstack/funcstack/internal/deploy/contract"
	"github.com/funcstack/funcstack/internal/providers/aws/client"
)

// LogGroupName returns the log group Lambda writes function's logs to.
func LogGroupName(function string) string {
	return "/aws/lambda/" + function
}

// Invoker implements contract.FunctionInvoker.
type Invoker struct {
	client client.LambdaClient
	logger *slog.Logger
}

var _ contract.FunctionInvoker = (*Invoker)(nil)

// NewInvoker creates an invoker.
func NewInvoker(lambdaClient client.LambdaClient, log *slog.Logger) *Invoker {
	return &Invoker{client: lambdaClient, logger: log}
}

// ListDeployedFunctions returns every function of the account and region.
func (i *Invoker) ListDeployedFunctions(ctx context.Context) ([]contract.DeployedFunction, error) {
	i.logger.Debug("calling external service", "context", map[string]string{
		"operation": "Lambda.ListFunctions",
	})

	var functions []contract.DeployedFunction
	paginator := lambda.NewListFunctionsPaginator(i.client, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list functions: %w", err)
		}
		for _, fn := range page.Functions {
			functions = append(functions, contract.DeployedFunction{
				Name: aws.ToString(fn.FunctionName),
				ARN:  aws.ToString(fn.FunctionArn),
			})
		}
	}

	return functions, nil
}

// InvokeFunction invokes name synchronously with payload.
func (i *Invoker) InvokeFunction(ctx context.Context, name string, payload []byte) (*contract.Invocation, error) {
	i.logger.Debug("calling external service", "context", map[string]string{
		"operation": "Lambda.Invoke",
		"function":  name,
	})

	output, err := i.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(name),
		InvocationType: lambdatypes.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s: %w", name, err)
	}

	return &contract.Invocation{
		StatusCode:    int(output.StatusCode),
		Payload:       output.Payload,
		FunctionError: aws.ToString(output.FunctionError),
	}, nil
}

// LogTailer implements contract.LogTailer with CloudWatch Logs.
type LogTailer struct {
	client client.CloudWatchLogsClient
	logger *slog.Logger
}

var _ contract.LogTailer = (*LogTailer)(nil)

// NewLogTailer creates a log tailer.
func NewLogTailer(logsClient client.CloudWatchLogsClient, log *slog.Logger) *LogTailer {
	return &LogTailer{client: logsClient, logger: log}
}

// RecentLogLines returns the last limit log lines of function written since since,
// oldest first. A function that never logged has no log group and yields no lines.
func (l *LogTailer) RecentLogLines(
	ctx context.Context,
	function string,
	since time.Time,
	limit int,
) ([]string, error) {
	l.logger.Debug("calling external service", "context", map[string]string{
		"operation": "CloudWatchLogs.FilterLogEvents",
		"log_group": LogGroupName(function),
	})

	// FilterLogEvents returns events oldest first, so the tail is on the last page.
	var lines []string
	paginator := cloudwatchlogs.NewFilterLogEventsPaginator(l.client, &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(LogGroupName(function)),
		StartTime:    aws.Int64(since.UnixMilli()),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			var notFound *logstypes.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read logs of %s: %w", function, err)
		}
		for _, event := range page.Events {
			if msg := strings.TrimRight(aws.ToString(event.Message), "\n"); msg != "" {
				lines = append(lines, msg)
			}
		}
		if limit > 0 && len(lines) > limit {
			lines = lines[len(lines)-limit:]
		}
	}
	return lines, nil
}
