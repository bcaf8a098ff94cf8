// Package aws contains AWS-specific configuration helpers for funcstack.
package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/viper"
)

// Config contains AWS-specific configuration.
type Config struct {
	// Region overrides the SDK's region resolution when set.
	Region string `mapstructure:"region"`
	// Profile selects a shared-config profile when set.
	Profile string `mapstructure:"profile"`

	// AWS SDK Configuration (credentials, region, etc.)
	SDKConfig *aws.Config `mapstructure:"-"`
}

// BindEnvVars binds AWS-specific environment variables to the provided Viper instance.
// The SDK's own AWS_REGION and AWS_PROFILE keep working through LoadDefaultConfig.
func BindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("aws.region", "FUNCSTACK_AWS_REGION")
	_ = v.BindEnv("aws.profile", "FUNCSTACK_AWS_PROFILE")
}

// LoadSDKConfig loads the AWS SDK configuration from the environment.
// Region and Profile are applied when set, and Region is back-filled from the SDK otherwise.
func (c *Config) LoadSDKConfig(ctx context.Context) error {
	var opts []func(*awsConfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsConfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		opts = append(opts, awsConfig.WithSharedConfigProfile(c.Profile))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS SDK configuration: %w", err)
	}
	if awsCfg.Region == "" {
		return fmt.Errorf("no AWS region configured: set region in the config file, FUNCSTACK_AWS_REGION or AWS_REGION")
	}

	c.SDKConfig = &awsCfg
	c.Region = awsCfg.Region
	return nil
}

// BuildObjectURL builds the virtual-hosted S3 HTTPS URL of key.
func BuildObjectURL(bucket, region, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, strings.Join(segments, "/"))
}
