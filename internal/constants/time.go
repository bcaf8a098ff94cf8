package constants

import "time"

// VersionTagLayout is the time layout used for generated version tags.
const VersionTagLayout = "20060102-150405"

// Stack convergence polling defaults.
const (
	DefaultStackPollInterval    = 5 * time.Second
	DefaultStackMaxPollInterval = 30 * time.Second
	DefaultStackTimeout         = 30 * time.Minute
)

// DefaultCommandTimeout bounds a whole CLI invocation unless --timeout overrides it.
const DefaultCommandTimeout = 45 * time.Minute

// HealthCheckLogLookback is how far back log lines are fetched for a failing function.
const HealthCheckLogLookback = 5 * time.Minute

// HealthCheckLogLines caps the log lines attached to a failing health check.
const HealthCheckLogLines = 20
