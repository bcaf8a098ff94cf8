// Package constants defines global constants used throughout funcstack.
// It includes version information, paths, built-in defaults and health-check literals.
package constants

// ProjectName is the name of the CLI tool and application
const ProjectName = "funcstack"

// ConfigDirName is the name of the configuration directory in the user's home directory
const ConfigDirName = ".funcstack"

// ConfigFileName is the name of the global configuration file
const ConfigFileName = "config.yaml"

// ManifestFileName is the default manifest file looked up in the working directory
const ManifestFileName = "funcstack.yaml"

// EnvPrefix is the prefix for all environment variables read by the configuration layer
const EnvPrefix = "FUNCSTACK"

// ConfigDirPath returns the full path to the global configuration directory.
func ConfigDirPath(homeDir string) string {
	return homeDir + "/" + ConfigDirName
}

// ConfigFilePath returns the full path to the global configuration file
func ConfigFilePath(homeDir string) string {
	return ConfigDirPath(homeDir) + "/" + ConfigFileName
}

// Environment represents the execution environment (e.g., CLI, Lambda).
type Environment string

// Environment types for logger configuration
const (
	Development Environment = "development"
	Production  Environment = "production"
	CLI         Environment = "cli"
)
