// Package cmd holds the cobra commands of the funcstack CLI.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/funcstack/funcstack/internal/client/output"
	"github.com/funcstack/funcstack/internal/config"
	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/logger"
)

var (
	debug         bool
	timeout       string
	timeoutCancel context.CancelFunc
	verbose       bool
)

// flagBindings maps configuration keys to the flags overriding them.
var flagBindings = map[string]string{
	"stack_name":    "stack",
	"manifest":      "manifest",
	"bucket":        "bucket",
	"version":       "app-version",
	"aws.region":    "region",
	"aws.profile":   "profile",
	"skip_ping":     "skip-ping",
	"output_format": "format",
}

var rootCmd = &cobra.Command{
	Use:   constants.ProjectName,
	Short: "Deploy serverless applications from a manifest",
	Long: fmt.Sprintf(`%s turns a manifest of functions, HTTP routes and event triggers into a
CloudFormation stack and drives it to the described state.`, constants.ProjectName),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if verbose {
			output.Header(output.Bold(constants.ProjectName) + " " + *constants.GetVersion())
			output.Infof("verbose output enabled")
		}

		logger.Initialize(constants.CLI, cliLogLevel(slog.LevelWarn))

		if timeout == "0" {
			if verbose {
				output.Infof("timeout disabled")
			}
			return nil
		}

		timeoutDuration, err := parseTimeout(timeout)
		if err != nil {
			return fmt.Errorf("error parsing timeout: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
		timeoutCancel = cancel
		cmd.SetContext(ctx)

		if verbose {
			output.Infof("timeout: %s", timeoutDuration)
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	if timeoutCancel != nil {
		timeoutCancel()
	}

	if err != nil {
		output.Errorf("%v", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&timeout, "timeout", constants.DefaultCommandTimeout.String(),
		"Timeout for the whole command (e.g., 45m, 600), 0 disables it")
	flags.BoolVar(&verbose, "verbose", false, "Verbose output")
	flags.BoolVar(&debug, "debug", false, "Enable debugging logs")

	flags.String("stack", "", "Stack name")
	flags.String("manifest", "", "Manifest file (default "+constants.ManifestFileName+")")
	flags.String("bucket", "", "Deploy bucket (default derived from stack, account and region)")
	flags.String("app-version", "", "Version tag of this deploy (default current UTC time)")
	flags.String("region", "", "AWS region")
	flags.String("profile", "", "AWS shared config profile")
}

// loadConfig resolves the configuration with flags of cmd applied over file and
// environment, then re-initializes the logger for the configured environment.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	v, err := config.NewViper()
	if err != nil {
		return nil, nil, err
	}

	for key, name := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Initialize(constants.Environment(cfg.Environment), cliLogLevel(cfg.GetLogLevel()))
	return cfg, log, nil
}

func cliLogLevel(configured slog.Level) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return configured
}

// parseTimeout parses a duration ("10m", "30s") or a number of seconds ("600").
// An empty string means the default command timeout.
func parseTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		return constants.DefaultCommandTimeout, nil
	}

	duration, err := time.ParseDuration(timeoutStr)
	if err == nil {
		return duration, nil
	}

	seconds, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout format: %s (use duration like '10m' or '30s', or seconds like '600')",
			timeoutStr)
	}

	return time.Duration(seconds) * time.Second, nil
}
