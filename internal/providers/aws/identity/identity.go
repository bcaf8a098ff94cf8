// Package identity provides helpers for retrieving AWS identity information.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/funcstack/funcstack/internal/providers/aws/client"
)

// GetAccountID retrieves the AWS account ID using STS GetCallerIdentity.
func GetAccountID(ctx context.Context, stsClient client.STSClient, log *slog.Logger) (string, error) {
	log.Debug("calling external service", "context", map[string]string{
		"operation": "STS.GetCallerIdentity",
	})

	output, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity failed: %w", err)
	}

	if output.Account == nil || *output.Account == "" {
		return "", fmt.Errorf("STS returned empty account ID")
	}

	return *output.Account, nil
}

// DefaultBucketName derives the deploy bucket of a stack when none is configured.
// Bucket names are global, so the account and region are part of it.
func DefaultBucketName(stackName, accountID, region string) string {
	name := strings.ToLower(fmt.Sprintf("%s-deploy-%s-%s", stackName, accountID, region))
	if len(name) > 63 {
		name = strings.TrimRight(name[:63], "-")
	}
	return name
}

// ResolveBucket returns configured when set, otherwise the default bucket name for the caller's account.
func ResolveBucket(
	ctx context.Context,
	stsClient client.STSClient,
	configured, stackName, region string,
	log *slog.Logger,
) (string, error) {
	if configured != "" {
		return configured, nil
	}

	accountID, err := GetAccountID(ctx, stsClient, log)
	if err != nil {
		return "", err
	}
	return DefaultBucketName(stackName, accountID, region), nil
}
