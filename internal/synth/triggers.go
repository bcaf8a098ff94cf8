package synth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/template"

	"github.com/go-viper/mapstructure/v2"
)

// Recognized trigger kinds.
const (
	TriggerS3     = "s3"
	TriggerEvents = "events"
	TriggerLogs   = "logs"
	TriggerStream = "stream"
	TriggerSNS    = "sns"
)

type s3Config struct {
	Bucket string `mapstructure:"bucket"`
	Event  string `mapstructure:"event"`
	Prefix string `mapstructure:"prefix"`
	Suffix string `mapstructure:"suffix"`
}

type eventsConfig struct {
	Schedule string         `mapstructure:"schedule"`
	Pattern  map[string]any `mapstructure:"pattern"`
	Input    map[string]any `mapstructure:"input"`
	Enabled  *bool          `mapstructure:"enabled"`
}

type logsConfig struct {
	LogGroup string `mapstructure:"logGroup"`
	Filter   string `mapstructure:"filter"`
	Region   string `mapstructure:"region"`
}

type streamConfig struct {
	ARN              string `mapstructure:"arn"`
	StartingPosition string `mapstructure:"startingPosition"`
	BatchSize        int    `mapstructure:"batchSize"`
	Enabled          *bool  `mapstructure:"enabled"`
}

type snsConfig struct {
	Topic string `mapstructure:"topic"`
}

// bucketFragment collects the notifications of one bucket across functions.
type bucketFragment struct {
	name          string
	notifications []template.LambdaNotification
	dependsOn     []string
}

// TriggerBuilder wires declared event sources to functions. Buckets shared by several
// functions are emitted once with every notification.
type TriggerBuilder struct {
	doc     *template.Document
	buckets map[string]*bucketFragment
	order   []string
	role    string
	logger  *slog.Logger
}

// NewTriggerBuilder returns a builder granting stream read access to the role named role.
func NewTriggerBuilder(role string, logger *slog.Logger) *TriggerBuilder {
	return &TriggerBuilder{
		doc:     template.New(),
		buckets: make(map[string]*bucketFragment),
		role:    role,
		logger:  logger,
	}
}

// Add wires every trigger of fn. Unknown kinds and unusable configs are logged and skipped.
func (b *TriggerBuilder) Add(fn string, triggers []manifest.Trigger) {
	for idx, trigger := range triggers {
		prefix := fmt.Sprintf("Trigger%s%s%d", pascal(fn), pascal(trigger.Kind), idx)

		var err error
		switch trigger.Kind {
		case TriggerS3:
			err = b.addS3(fn, prefix, trigger.Config)
		case TriggerEvents:
			err = b.addEvents(fn, prefix, trigger.Config)
		case TriggerLogs:
			err = b.addLogs(fn, prefix, trigger.Config)
		case TriggerStream:
			err = b.addStream(fn, prefix, trigger.Config)
		case TriggerSNS:
			err = b.addSNS(fn, prefix, trigger.Config)
		default:
			err = fmt.Errorf("unknown trigger kind %q", trigger.Kind)
		}

		if err != nil {
			b.logger.Warn("skipping trigger", "context", map[string]any{
				"function": fn,
				"kind":     trigger.Kind,
				"index":    idx,
				"error":    err.Error(),
			})
		}
	}
}

// Document returns the accumulated fragment.
func (b *TriggerBuilder) Document() *template.Document {
	for _, logical := range b.order {
		bucket := b.buckets[logical]
		b.doc.Put(logical, template.Resource{
			Type: template.TypeBucket,
			Properties: template.BucketProperties{
				BucketName: bucket.name,
				NotificationConfiguration: &template.BucketNotification{
					LambdaConfigurations: bucket.notifications,
				},
			},
			DependsOn: bucket.dependsOn,
		})
	}
	return b.doc
}

// BuildTriggers wires the resolved triggers of every function in functions.
func BuildTriggers(m *manifest.Manifest, functions []string, logger *slog.Logger) *template.Document {
	builder := NewTriggerBuilder(ExecutionRoleName, logger)
	for _, fn := range functions {
		builder.Add(fn, m.TriggersFor(fn))
	}
	return builder.Document()
}

func decodeConfig(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func (b *TriggerBuilder) permission(logical, fn string, principal, sourceArn any) {
	b.doc.Put(logical, template.Resource{
		Type: template.TypePermission,
		Properties: template.PermissionProperties{
			Action:       "lambda:InvokeFunction",
			FunctionName: template.GetAtt(FunctionLogicalName(fn), "Arn"),
			Principal:    principal,
			SourceArn:    sourceArn,
		},
	})
}

func (b *TriggerBuilder) addS3(fn, prefix string, raw map[string]any) error {
	var cfg s3Config
	if err := decodeConfig(raw, &cfg); err != nil {
		return err
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("s3 trigger requires a bucket")
	}
	if cfg.Event == "" {
		cfg.Event = "s3:ObjectCreated:*"
	}

	logical := "S3Bucket" + pascal(cfg.Bucket)
	if existing, ok := b.buckets[logical]; ok && existing.name != cfg.Bucket {
		return fmt.Errorf("s3 bucket %q synthesizes %s, already used by bucket %q", cfg.Bucket, logical, existing.name)
	}

	permissionName := prefix + "Permission"
	b.permission(permissionName, fn, "s3.amazonaws.com",
		template.Sub("arn:${AWS::Partition}:s3:::"+cfg.Bucket))

	notification := template.LambdaNotification{
		Event:    cfg.Event,
		Function: template.GetAtt(FunctionLogicalName(fn), "Arn"),
	}
	var rules []template.FilterRule
	if cfg.Prefix != "" {
		rules = append(rules, template.FilterRule{Name: "prefix", Value: cfg.Prefix})
	}
	if cfg.Suffix != "" {
		rules = append(rules, template.FilterRule{Name: "suffix", Value: cfg.Suffix})
	}
	if len(rules) > 0 {
		notification.Filter = &template.NotificationFilter{S3Key: template.KeyFilter{Rules: rules}}
	}

	bucket, ok := b.buckets[logical]
	if !ok {
		bucket = &bucketFragment{name: cfg.Bucket}
		b.buckets[logical] = bucket
		b.order = append(b.order, logical)
	}
	bucket.notifications = append(bucket.notifications, notification)
	bucket.dependsOn = append(bucket.dependsOn, permissionName)
	return nil
}

func (b *TriggerBuilder) addEvents(fn, prefix string, raw map[string]any) error {
	var cfg eventsConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return err
	}
	if (cfg.Schedule == "") == (cfg.Pattern == nil) {
		return fmt.Errorf("events trigger requires exactly one of schedule or pattern")
	}

	state := "ENABLED"
	if cfg.Enabled != nil && !*cfg.Enabled {
		state = "DISABLED"
	}

	target := template.EventsTarget{
		Arn: template.GetAtt(FunctionLogicalName(fn), "Arn"),
		ID:  pascal(fn) + "Target",
	}
	if cfg.Input != nil {
		input, err := json.Marshal(cfg.Input)
		if err != nil {
			return fmt.Errorf("events trigger input: %w", err)
		}
		target.Input = string(input)
	}

	props := template.EventsRuleProperties{
		ScheduleExpression: cfg.Schedule,
		State:              state,
		Targets:            []template.EventsTarget{target},
	}
	if cfg.Pattern != nil {
		props.EventPattern = cfg.Pattern
	}

	b.doc.Put(prefix, template.Resource{Type: template.TypeEventsRule, Properties: props})
	b.permission(prefix+"Permission", fn, "events.amazonaws.com", template.GetAtt(prefix, "Arn"))
	return nil
}

func (b *TriggerBuilder) addLogs(fn, prefix string, raw map[string]any) error {
	var cfg logsConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return err
	}
	if cfg.LogGroup == "" {
		return fmt.Errorf("logs trigger requires a logGroup")
	}

	region := "${AWS::Region}"
	if cfg.Region != "" {
		region = cfg.Region
	}

	permissionName := prefix + "Permission"
	b.permission(permissionName, fn,
		template.Sub("logs."+region+".amazonaws.com"),
		template.Sub("arn:${AWS::Partition}:logs:"+region+":${AWS::AccountId}:log-group:"+cfg.LogGroup+":*"))

	b.doc.Put(prefix, template.Resource{
		Type: template.TypeSubscriptionFilter,
		Properties: template.SubscriptionFilterProperties{
			LogGroupName:   cfg.LogGroup,
			FilterPattern:  cfg.Filter,
			DestinationArn: template.GetAtt(FunctionLogicalName(fn), "Arn"),
		},
		DependsOn: []string{permissionName},
	})
	return nil
}

func streamActions(arn string) []string {
	switch {
	case strings.Contains(arn, ":kinesis:"):
		return []string{
			"kinesis:DescribeStream",
			"kinesis:DescribeStreamSummary",
			"kinesis:GetRecords",
			"kinesis:GetShardIterator",
			"kinesis:ListShards",
			"kinesis:ListStreams",
		}
	case strings.Contains(arn, ":dynamodb:"):
		return []string{
			"dynamodb:DescribeStream",
			"dynamodb:GetRecords",
			"dynamodb:GetShardIterator",
			"dynamodb:ListStreams",
		}
	}
	return nil
}

func (b *TriggerBuilder) addStream(fn, prefix string, raw map[string]any) error {
	var cfg streamConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return err
	}
	actions := streamActions(cfg.ARN)
	if actions == nil {
		return fmt.Errorf("stream trigger requires a kinesis or dynamodb stream arn, got %q", cfg.ARN)
	}
	if cfg.StartingPosition == "" {
		cfg.StartingPosition = "LATEST"
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}

	policyName := prefix + "Policy"
	b.doc.Put(policyName, template.Resource{
		Type: template.TypePolicy,
		Properties: template.PolicyProperties{
			PolicyName: template.Sub("${AWS::StackName}-" + prefix),
			PolicyDocument: template.PolicyDocument{
				Version: "2012-10-17",
				Statement: []template.PolicyStatement{{
					Effect:   "Allow",
					Action:   actions,
					Resource: cfg.ARN,
				}},
			},
			Roles: []any{template.Ref(b.role)},
		},
	})

	b.doc.Put(prefix, template.Resource{
		Type: template.TypeEventSourceMapping,
		Properties: template.EventSourceMappingProperties{
			EventSourceArn:   cfg.ARN,
			FunctionName:     template.GetAtt(FunctionLogicalName(fn), "Arn"),
			StartingPosition: cfg.StartingPosition,
			BatchSize:        cfg.BatchSize,
			Enabled:          cfg.Enabled == nil || *cfg.Enabled,
		},
		DependsOn: []string{policyName},
	})
	return nil
}

func (b *TriggerBuilder) addSNS(fn, prefix string, raw map[string]any) error {
	var cfg snsConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return err
	}
	if !strings.HasPrefix(cfg.Topic, "arn:") {
		return fmt.Errorf("sns trigger requires a topic arn, got %q", cfg.Topic)
	}

	b.doc.Put(prefix, template.Resource{
		Type: template.TypeSNSSubscription,
		Properties: template.SNSSubscriptionProperties{
			Protocol: "lambda",
			Endpoint: template.GetAtt(FunctionLogicalName(fn), "Arn"),
			TopicArn: cfg.Topic,
		},
	})
	b.permission(prefix+"Permission", fn, "sns.amazonaws.com", cfg.Topic)
	return nil
}
