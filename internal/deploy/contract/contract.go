// Package contract defines the remote capabilities the deploy orchestrator drives.
// Provider packages implement them; the orchestrator only sees these interfaces.
package contract

import (
	"context"
	"io"
	"time"
)

// TemplateSource is a template submitted either inline or by URL. Exactly one is set.
type TemplateSource struct {
	Body string
	URL  string
}

// Stack describes a remote stack.
type Stack struct {
	Name    string
	ID      string
	Status  string
	Outputs map[string]string
}

// DeployedFunction is one function known to the remote function service.
type DeployedFunction struct {
	Name string
	ARN  string
}

// Invocation is the result of a synchronous function invocation.
type Invocation struct {
	StatusCode int
	Payload    []byte
	// FunctionError is set when the function itself raised an error.
	FunctionError string
}

// StackManager manages stacks. Implementations report a missing stack with an
// errors.NotFound coded error, and map the "nothing to update" and "stack busy"
// provider responses to the NO_UPDATES and STACK_NOT_READY codes.
type StackManager interface {
	DescribeStack(ctx context.Context, name string) (*Stack, error)
	CreateStack(ctx context.Context, name string, source TemplateSource) error
	UpdateStack(ctx context.Context, name string, source TemplateSource) error
	// WaitForStackConverged blocks until the last operation on name settles.
	WaitForStackConverged(ctx context.Context, name string) (*Stack, error)
}

// BucketStore provisions deploy buckets.
type BucketStore interface {
	BucketExists(ctx context.Context, name string) (bool, error)
	CreateBucket(ctx context.Context, name, region string) error
}

// ObjectStore stores deploy artefacts.
type ObjectStore interface {
	UploadObject(ctx context.Context, bucket, key string, body io.Reader) error
	// ObjectURL is the address the stack service reads an uploaded template from.
	ObjectURL(bucket, key string) string
}

// Storage combines bucket provisioning and object upload.
type Storage interface {
	BucketStore
	ObjectStore
}

// FunctionInvoker lists and invokes deployed functions.
type FunctionInvoker interface {
	ListDeployedFunctions(ctx context.Context) ([]DeployedFunction, error)
	InvokeFunction(ctx context.Context, name string, payload []byte) (*Invocation, error)
}

// LogTailer fetches recent log lines of a function.
type LogTailer interface {
	RecentLogLines(ctx context.Context, function string, since time.Time, limit int) ([]string, error)
}
