// Package config manages configuration for the funcstack CLI.
// It uses Viper for unified configuration management from files, environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"regexp"
	"strings"
	"time"

	awsconfig "github.com/funcstack/funcstack/internal/config/aws"
	"github.com/funcstack/funcstack/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the deploy configuration.
type Config struct {
	StackName   string `mapstructure:"stack_name" validate:"required,stackname"`
	Bucket      string `mapstructure:"bucket" validate:"omitempty,min=3,max=63"`
	Version     string `mapstructure:"version" validate:"omitempty,max=64"`
	Manifest    string `mapstructure:"manifest" validate:"required"`
	LogLevel    string `mapstructure:"log_level"`
	Environment string `mapstructure:"environment" validate:"oneof=cli development production"`

	StackPollInterval    time.Duration `mapstructure:"stack_poll_interval" validate:"gt=0"`
	StackMaxPollInterval time.Duration `mapstructure:"stack_max_poll_interval" validate:"gtefield=StackPollInterval"`
	StackTimeout         time.Duration `mapstructure:"stack_timeout" validate:"gt=0"`

	SkipPing          bool   `mapstructure:"skip_ping"`
	UploadConcurrency int    `mapstructure:"upload_concurrency" validate:"gte=1,lte=64"`
	PingConcurrency   int    `mapstructure:"ping_concurrency" validate:"gte=1,lte=64"`
	OutputFormat      string `mapstructure:"output_format" validate:"oneof=yaml json"`

	AWS *awsconfig.Config `mapstructure:"aws"`
}

var (
	validate       = newValidator()
	stackNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,127}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("stackname", func(fl validator.FieldLevel) bool {
		return stackNameRegex.MatchString(fl.Field().String())
	})
	return v
}

// NewViper returns a Viper instance with defaults, the optional config file and
// FUNCSTACK_* environment variables applied. Callers may bind flags on top.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if err := loadConfigFile(v); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)
	awsconfig.BindEnvVars(v)

	return v, nil
}

// Load loads the configuration without flag overrides.
func Load() (*Config, error) {
	v, err := NewViper()
	if err != nil {
		return nil, err
	}
	return LoadFrom(v)
}

// LoadFrom decodes and validates the configuration held by v.
// An empty version is replaced by the current UTC time.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.AWS == nil {
		cfg.AWS = &awsconfig.Config{}
	}
	if cfg.Version == "" {
		cfg.Version = time.Now().UTC().Format(constants.VersionTagLayout)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Helper functions

func setDefaults(v *viper.Viper) {
	v.SetDefault("manifest", constants.ManifestFileName)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("environment", string(constants.CLI))
	v.SetDefault("stack_poll_interval", constants.DefaultStackPollInterval)
	v.SetDefault("stack_max_poll_interval", constants.DefaultStackMaxPollInterval)
	v.SetDefault("stack_timeout", constants.DefaultStackTimeout)
	v.SetDefault("skip_ping", false)
	v.SetDefault("upload_concurrency", constants.DefaultUploadConcurrency)
	v.SetDefault("ping_concurrency", constants.DefaultPingConcurrency)
	v.SetDefault("output_format", "yaml")
}

// configFilePath resolves FUNCSTACK_CONFIG, falling back to ~/.funcstack/config.yaml.
func configFilePath() (string, error) {
	if path := os.Getenv(constants.EnvPrefix + "_CONFIG"); path != "" {
		return path, nil
	}

	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}
	return constants.ConfigFilePath(currentUser.HomeDir), nil
}

func loadConfigFile(v *viper.Viper) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if readErr := v.ReadInConfig(); readErr != nil {
		return readErr
	}

	return nil
}

func bindEnvVars(v *viper.Viper) {
	// Bind all environment variables explicitly
	envVars := []string{
		"BUCKET",
		"ENVIRONMENT",
		"LOG_LEVEL",
		"MANIFEST",
		"OUTPUT_FORMAT",
		"PING_CONCURRENCY",
		"SKIP_PING",
		"STACK_MAX_POLL_INTERVAL",
		"STACK_NAME",
		"STACK_POLL_INTERVAL",
		"STACK_TIMEOUT",
		"UPLOAD_CONCURRENCY",
		"VERSION",
	}

	for _, envVar := range envVars {
		// Convert to lowercase to match mapstructure tags (keep underscores)
		configKey := strings.ToLower(envVar)
		_ = v.BindEnv(configKey, constants.EnvPrefix+"_"+envVar)
	}
}
