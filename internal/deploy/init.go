package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/funcstack/funcstack/internal/config"
	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/providers/aws/client"
	"github.com/funcstack/funcstack/internal/providers/aws/functions"
	"github.com/funcstack/funcstack/internal/providers/aws/identity"
	"github.com/funcstack/funcstack/internal/providers/aws/stacks"
	"github.com/funcstack/funcstack/internal/providers/aws/storage"
)

// Target is where a deploy lands once the configuration is resolved against the account.
type Target struct {
	Region string
	Bucket string
}

// Initialize builds an AWS-backed orchestrator from cfg and resolves the deploy target.
// The bucket defaults to one derived from the stack name, account and region.
func Initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Orchestrator, *Target, error) {
	logger.Debug(fmt.Sprintf("initializing %s deploy engine", constants.ProjectName),
		"version", *constants.GetVersion(),
		"stack", cfg.StackName,
	)

	if err := cfg.AWS.LoadSDKConfig(ctx); err != nil {
		return nil, nil, err
	}
	awsCfg := *cfg.AWS.SDKConfig

	bucket, err := identity.ResolveBucket(
		ctx,
		client.NewSTSClientAdapter(sts.NewFromConfig(awsCfg)),
		cfg.Bucket,
		cfg.StackName,
		cfg.AWS.Region,
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("AWS backend configured", "context", map[string]string{
		"region": cfg.AWS.Region,
		"bucket": bucket,
	})

	stackManager := stacks.NewManager(
		client.NewCloudFormationClientAdapter(cloudformation.NewFromConfig(awsCfg)),
		stacks.Config{
			PollInterval:    cfg.StackPollInterval,
			MaxPollInterval: cfg.StackMaxPollInterval,
			Timeout:         cfg.StackTimeout,
		},
		logger,
	)
	store := storage.NewStore(client.NewS3ClientAdapter(s3.NewFromConfig(awsCfg)), cfg.AWS.Region, logger)
	invoker := functions.NewInvoker(client.NewLambdaClientAdapter(lambda.NewFromConfig(awsCfg)), logger)
	tailer := functions.NewLogTailer(
		client.NewCloudWatchLogsClientAdapter(cloudwatchlogs.NewFromConfig(awsCfg)),
		logger,
	)

	orchestrator := NewOrchestrator(stackManager, store, invoker, tailer, logger, Options{
		UploadConcurrency: cfg.UploadConcurrency,
		PingConcurrency:   cfg.PingConcurrency,
		SkipPing:          cfg.SkipPing,
	})

	return orchestrator, &Target{Region: cfg.AWS.Region, Bucket: bucket}, nil
}
