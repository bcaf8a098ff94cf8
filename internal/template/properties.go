package template

// Resource types emitted by the builders.
const (
	TypeFunction            = "AWS::Lambda::Function"
	TypeVersion             = "AWS::Lambda::Version"
	TypePermission          = "AWS::Lambda::Permission"
	TypeEventSourceMapping  = "AWS::Lambda::EventSourceMapping"
	TypeRestAPI             = "AWS::ApiGateway::RestApi"
	TypeAPIResource         = "AWS::ApiGateway::Resource"
	TypeMethod              = "AWS::ApiGateway::Method"
	TypeDeployment          = "AWS::ApiGateway::Deployment"
	TypeRole                = "AWS::IAM::Role"
	TypePolicy              = "AWS::IAM::Policy"
	TypeBucket              = "AWS::S3::Bucket"
	TypeEventsRule          = "AWS::Events::Rule"
	TypeSubscriptionFilter  = "AWS::Logs::SubscriptionFilter"
	TypeSNSSubscription     = "AWS::SNS::Subscription"
	TypeWaitConditionHandle = "AWS::CloudFormation::WaitConditionHandle"
)

// FunctionProperties configures a runnable function unit.
type FunctionProperties struct {
	FunctionName any                  `json:"FunctionName,omitempty"`
	Description  string               `json:"Description,omitempty"`
	Handler      string               `json:"Handler"`
	Runtime      string               `json:"Runtime"`
	Role         any                  `json:"Role"`
	MemorySize   int                  `json:"MemorySize"`
	Timeout      int                  `json:"Timeout"`
	Code         FunctionCode         `json:"Code"`
	Environment  *FunctionEnvironment `json:"Environment,omitempty"`
}

// FunctionCode points at an uploaded package.
type FunctionCode struct {
	S3Bucket string `json:"S3Bucket"`
	S3Key    string `json:"S3Key"`
}

// FunctionEnvironment holds function environment variables.
type FunctionEnvironment struct {
	Variables map[string]string `json:"Variables"`
}

// VersionProperties publishes an immutable function version.
type VersionProperties struct {
	FunctionName any    `json:"FunctionName"`
	Description  string `json:"Description,omitempty"`
}

// PermissionProperties grants a service principal the right to invoke a function.
type PermissionProperties struct {
	Action        string `json:"Action"`
	FunctionName  any    `json:"FunctionName"`
	Principal     any    `json:"Principal"`
	SourceArn     any    `json:"SourceArn,omitempty"`
	SourceAccount any    `json:"SourceAccount,omitempty"`
}

// EventSourceMappingProperties makes a function consume a stream.
type EventSourceMappingProperties struct {
	EventSourceArn   string `json:"EventSourceArn"`
	FunctionName     any    `json:"FunctionName"`
	StartingPosition string `json:"StartingPosition"`
	BatchSize        int    `json:"BatchSize,omitempty"`
	Enabled          bool   `json:"Enabled"`
}

// RestAPIProperties configures the HTTP API.
type RestAPIProperties struct {
	Name        any    `json:"Name"`
	Description string `json:"Description,omitempty"`
}

// APIResourceProperties configures one URL path segment.
type APIResourceProperties struct {
	RestAPIID any    `json:"RestApiId"`
	ParentID  any    `json:"ParentId"`
	PathPart  string `json:"PathPart"`
}

// MethodProperties binds an HTTP method of a path segment to an integration.
type MethodProperties struct {
	RestAPIID         any               `json:"RestApiId"`
	ResourceID        any               `json:"ResourceId"`
	HTTPMethod        string            `json:"HttpMethod"`
	AuthorizationType string            `json:"AuthorizationType"`
	Integration       MethodIntegration `json:"Integration"`
	MethodResponses   []MethodResponse  `json:"MethodResponses,omitempty"`
}

// MethodIntegration describes how a method reaches its backend.
type MethodIntegration struct {
	Type                  string                `json:"Type"`
	IntegrationHTTPMethod string                `json:"IntegrationHttpMethod,omitempty"`
	URI                   any                   `json:"Uri,omitempty"`
	RequestTemplates      map[string]string     `json:"RequestTemplates,omitempty"`
	IntegrationResponses  []IntegrationResponse `json:"IntegrationResponses,omitempty"`
}

// IntegrationResponse maps a backend response onto a method response.
type IntegrationResponse struct {
	StatusCode         string            `json:"StatusCode"`
	ResponseParameters map[string]string `json:"ResponseParameters,omitempty"`
	ResponseTemplates  map[string]string `json:"ResponseTemplates,omitempty"`
}

// MethodResponse declares a response a method may return.
type MethodResponse struct {
	StatusCode         string          `json:"StatusCode"`
	ResponseParameters map[string]bool `json:"ResponseParameters,omitempty"`
}

// DeploymentProperties publishes the API to a stage.
type DeploymentProperties struct {
	RestAPIID   any    `json:"RestApiId"`
	StageName   string `json:"StageName"`
	Description string `json:"Description,omitempty"`
}

// RoleProperties configures an IAM role.
type RoleProperties struct {
	AssumeRolePolicyDocument PolicyDocument `json:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []any          `json:"ManagedPolicyArns,omitempty"`
}

// PolicyProperties attaches an inline policy to roles.
type PolicyProperties struct {
	PolicyName     any            `json:"PolicyName"`
	PolicyDocument PolicyDocument `json:"PolicyDocument"`
	Roles          []any          `json:"Roles"`
}

// PolicyDocument is an IAM policy document.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

// PolicyStatement is one IAM policy statement.
type PolicyStatement struct {
	Effect    string         `json:"Effect"`
	Principal map[string]any `json:"Principal,omitempty"`
	Action    []string       `json:"Action"`
	Resource  any            `json:"Resource,omitempty"`
}

// BucketProperties configures an object storage bucket.
type BucketProperties struct {
	BucketName                string              `json:"BucketName,omitempty"`
	NotificationConfiguration *BucketNotification `json:"NotificationConfiguration,omitempty"`
}

// BucketNotification routes object events to functions.
type BucketNotification struct {
	LambdaConfigurations []LambdaNotification `json:"LambdaConfigurations"`
}

// LambdaNotification sends one object event kind to a function.
type LambdaNotification struct {
	Event    string              `json:"Event"`
	Function any                 `json:"Function"`
	Filter   *NotificationFilter `json:"Filter,omitempty"`
}

// NotificationFilter restricts notifications by key prefix or suffix.
type NotificationFilter struct {
	S3Key KeyFilter `json:"S3Key"`
}

// KeyFilter holds key filter rules.
type KeyFilter struct {
	Rules []FilterRule `json:"Rules"`
}

// FilterRule is one prefix or suffix rule.
type FilterRule struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// EventsRuleProperties configures a schedule or event-bus rule.
type EventsRuleProperties struct {
	Description        string         `json:"Description,omitempty"`
	ScheduleExpression string         `json:"ScheduleExpression,omitempty"`
	EventPattern       any            `json:"EventPattern,omitempty"`
	State              string         `json:"State"`
	Targets            []EventsTarget `json:"Targets"`
}

// EventsTarget is one rule target.
type EventsTarget struct {
	Arn   any    `json:"Arn"`
	ID    string `json:"Id"`
	Input string `json:"Input,omitempty"`
}

// SubscriptionFilterProperties subscribes a function to a log group.
type SubscriptionFilterProperties struct {
	LogGroupName   string `json:"LogGroupName"`
	FilterPattern  string `json:"FilterPattern"`
	DestinationArn any    `json:"DestinationArn"`
}

// SNSSubscriptionProperties subscribes a function to a notification topic.
type SNSSubscriptionProperties struct {
	Protocol string `json:"Protocol"`
	Endpoint any    `json:"Endpoint"`
	TopicArn string `json:"TopicArn"`
}
