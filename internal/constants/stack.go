package constants

// TemplateBodyMaxBytes is the largest template CloudFormation accepts inline.
// Bigger templates are uploaded to the deploy bucket and submitted by URL.
const TemplateBodyMaxBytes = 51200

// TemplateObjectName is the key suffix used when a template is submitted by URL.
const TemplateObjectName = "template.json"

// Fan-out limits for independent remote calls.
const (
	DefaultUploadConcurrency = 4
	DefaultPingConcurrency   = 8
)

// ManagedByTagKey tags every stack created by the orchestrator.
const ManagedByTagKey = "ManagedBy"
