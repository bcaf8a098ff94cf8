package constants

// DefaultFunctionName is the reserved manifest entry holding manifest-wide function defaults.
// It is never deployed as a function of its own.
const DefaultFunctionName = "default"

// Built-in function settings used when neither the function nor the manifest default sets them.
const (
	DefaultFunctionTimeout = 3
	DefaultFunctionMemory  = 128
	DefaultFunctionRuntime = "provided.al2023"
	DefaultFunctionHandler = "bootstrap"
)

// PackageExtension is appended to every uploaded function package key.
const PackageExtension = ".zip"

// HealthCheckPayload is sent to every deployed function after a deploy.
// Function runtimes recognise the marker and answer with HealthCheckResponse.
const HealthCheckPayload = `{"__ping":true}`

// HealthCheckResponse is the exact body a healthy function returns for HealthCheckPayload.
const HealthCheckResponse = `{"test":"ok"}`

// HealthCheckStatusCode is the invocation status expected from a healthy function.
const HealthCheckStatusCode = 200

// APIStageName is the API Gateway stage every deployment is published to.
const APIStageName = "prod"
