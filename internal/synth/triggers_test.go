package synth

import (
	"testing"

	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/template"
	"github.com/funcstack/funcstack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trigger(kind string, config map[string]any) manifest.Trigger {
	return manifest.Trigger{Kind: kind, Config: config}
}

func TestTriggerBuilderKinds(t *testing.T) {
	tests := []struct {
		name      string
		trigger   manifest.Trigger
		wantNames []string
		check     func(t *testing.T, doc *template.Document)
	}{
		{
			name:      "s3",
			trigger:   trigger(TriggerS3, map[string]any{"bucket": "uploads", "suffix": ".png"}),
			wantNames: []string{"S3BucketUploads", "TriggerWorkerS30Permission"},
			check: func(t *testing.T, doc *template.Document) {
				bucket, _ := doc.Get("S3BucketUploads")
				assert.Equal(t, []string{"TriggerWorkerS30Permission"}, bucket.DependsOn)
				props := bucket.Properties.(template.BucketProperties)
				require.Len(t, props.NotificationConfiguration.LambdaConfigurations, 1)
				n := props.NotificationConfiguration.LambdaConfigurations[0]
				assert.Equal(t, "s3:ObjectCreated:*", n.Event)
				assert.Equal(t, []template.FilterRule{{Name: "suffix", Value: ".png"}}, n.Filter.S3Key.Rules)
			},
		},
		{
			name:      "events schedule",
			trigger:   trigger(TriggerEvents, map[string]any{"schedule": "rate(5 minutes)", "input": map[string]any{"job": "sweep"}}),
			wantNames: []string{"TriggerWorkerEvents0", "TriggerWorkerEvents0Permission"},
			check: func(t *testing.T, doc *template.Document) {
				rule, _ := doc.Get("TriggerWorkerEvents0")
				props := rule.Properties.(template.EventsRuleProperties)
				assert.Equal(t, "rate(5 minutes)", props.ScheduleExpression)
				assert.Equal(t, "ENABLED", props.State)
				assert.JSONEq(t, `{"job":"sweep"}`, props.Targets[0].Input)

				perm, _ := doc.Get("TriggerWorkerEvents0Permission")
				assert.Equal(t, "events.amazonaws.com", perm.Properties.(template.PermissionProperties).Principal)
			},
		},
		{
			name:      "events pattern disabled",
			trigger:   trigger(TriggerEvents, map[string]any{"pattern": map[string]any{"source": []any{"aws.ec2"}}, "enabled": false}),
			wantNames: []string{"TriggerWorkerEvents0", "TriggerWorkerEvents0Permission"},
			check: func(t *testing.T, doc *template.Document) {
				rule, _ := doc.Get("TriggerWorkerEvents0")
				props := rule.Properties.(template.EventsRuleProperties)
				assert.Equal(t, "DISABLED", props.State)
				assert.NotNil(t, props.EventPattern)
			},
		},
		{
			name:      "logs",
			trigger:   trigger(TriggerLogs, map[string]any{"logGroup": "/aws/app", "filter": "ERROR"}),
			wantNames: []string{"TriggerWorkerLogs0", "TriggerWorkerLogs0Permission"},
			check: func(t *testing.T, doc *template.Document) {
				perm, _ := doc.Get("TriggerWorkerLogs0Permission")
				assert.Equal(t, template.Sub("logs.${AWS::Region}.amazonaws.com"),
					perm.Properties.(template.PermissionProperties).Principal)

				filter, _ := doc.Get("TriggerWorkerLogs0")
				assert.Equal(t, []string{"TriggerWorkerLogs0Permission"}, filter.DependsOn)
				assert.Equal(t, "ERROR", filter.Properties.(template.SubscriptionFilterProperties).FilterPattern)
			},
		},
		{
			name:      "logs explicit region",
			trigger:   trigger(TriggerLogs, map[string]any{"logGroup": "/aws/app", "region": "eu-west-1"}),
			wantNames: []string{"TriggerWorkerLogs0", "TriggerWorkerLogs0Permission"},
			check: func(t *testing.T, doc *template.Document) {
				perm, _ := doc.Get("TriggerWorkerLogs0Permission")
				assert.Equal(t, template.Sub("logs.eu-west-1.amazonaws.com"),
					perm.Properties.(template.PermissionProperties).Principal)
			},
		},
		{
			name:      "kinesis stream",
			trigger:   trigger(TriggerStream, map[string]any{"arn": "arn:aws:kinesis:us-east-1:123456789012:stream/events", "batchSize": "10"}),
			wantNames: []string{"TriggerWorkerStream0", "TriggerWorkerStream0Policy"},
			check: func(t *testing.T, doc *template.Document) {
				mapping, _ := doc.Get("TriggerWorkerStream0")
				props := mapping.Properties.(template.EventSourceMappingProperties)
				assert.Equal(t, "LATEST", props.StartingPosition)
				assert.Equal(t, 10, props.BatchSize)
				assert.True(t, props.Enabled)
				assert.Equal(t, []string{"TriggerWorkerStream0Policy"}, mapping.DependsOn)

				policy, _ := doc.Get("TriggerWorkerStream0Policy")
				policyProps := policy.Properties.(template.PolicyProperties)
				assert.Equal(t, []any{template.Ref(ExecutionRoleName)}, policyProps.Roles)
				assert.Contains(t, policyProps.PolicyDocument.Statement[0].Action, "kinesis:GetRecords")
			},
		},
		{
			name:      "dynamodb stream",
			trigger:   trigger(TriggerStream, map[string]any{"arn": "arn:aws:dynamodb:us-east-1:123456789012:table/t/stream/x", "startingPosition": "TRIM_HORIZON"}),
			wantNames: []string{"TriggerWorkerStream0", "TriggerWorkerStream0Policy"},
			check: func(t *testing.T, doc *template.Document) {
				mapping, _ := doc.Get("TriggerWorkerStream0")
				assert.Equal(t, "TRIM_HORIZON", mapping.Properties.(template.EventSourceMappingProperties).StartingPosition)
				policy, _ := doc.Get("TriggerWorkerStream0Policy")
				assert.Contains(t, policy.Properties.(template.PolicyProperties).PolicyDocument.Statement[0].Action,
					"dynamodb:GetRecords")
			},
		},
		{
			name:      "sns",
			trigger:   trigger(TriggerSNS, map[string]any{"topic": "arn:aws:sns:us-east-1:123456789012:jobs"}),
			wantNames: []string{"TriggerWorkerSns0", "TriggerWorkerSns0Permission"},
			check: func(t *testing.T, doc *template.Document) {
				sub, _ := doc.Get("TriggerWorkerSns0")
				assert.Equal(t, "lambda", sub.Properties.(template.SNSSubscriptionProperties).Protocol)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewTriggerBuilder(ExecutionRoleName, testutil.SilentLogger())
			builder.Add("worker", []manifest.Trigger{tt.trigger})
			doc := builder.Document()

			assert.Equal(t, tt.wantNames, doc.Names())
			tt.check(t, doc)
		})
	}
}

func TestTriggerBuilderSkipsUnusable(t *testing.T) {
	tests := []struct {
		name    string
		trigger manifest.Trigger
	}{
		{"unknown kind", trigger("sqs", map[string]any{"queue": "q"})},
		{"s3 without bucket", trigger(TriggerS3, map[string]any{})},
		{"events without schedule or pattern", trigger(TriggerEvents, map[string]any{})},
		{"events with both", trigger(TriggerEvents, map[string]any{"schedule": "rate(1 hour)", "pattern": map[string]any{"a": 1}})},
		{"logs without group", trigger(TriggerLogs, map[string]any{"filter": "x"})},
		{"stream with unsupported arn", trigger(TriggerStream, map[string]any{"arn": "arn:aws:sqs:us-east-1:1:q"})},
		{"sns without arn", trigger(TriggerSNS, map[string]any{"topic": "jobs"})},
		{"unknown config key", trigger(TriggerSNS, map[string]any{"topic": "arn:aws:sns:us-east-1:1:t", "typo": true})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := testutil.CapturingLogger()
			builder := NewTriggerBuilder(ExecutionRoleName, log)

			builder.Add("worker", []manifest.Trigger{
				tt.trigger,
				trigger(TriggerSNS, map[string]any{"topic": "arn:aws:sns:us-east-1:123456789012:ok"}),
			})
			doc := builder.Document()

			assert.Equal(t, []string{"TriggerWorkerSns1", "TriggerWorkerSns1Permission"}, doc.Names())
			assert.Contains(t, buf.String(), "skipping trigger")
			assert.Contains(t, buf.String(), "level=WARN")
		})
	}
}

func TestTriggerBuilderSharedBucket(t *testing.T) {
	builder := NewTriggerBuilder(ExecutionRoleName, testutil.SilentLogger())
	builder.Add("resize", []manifest.Trigger{trigger(TriggerS3, map[string]any{"bucket": "media", "suffix": ".jpg"})})
	builder.Add("index", []manifest.Trigger{trigger(TriggerS3, map[string]any{"bucket": "media", "event": "s3:ObjectRemoved:*"})})
	doc := builder.Document()

	assert.Len(t, doc.NamesOfType(template.TypeBucket), 1)
	bucket, ok := doc.Get("S3BucketMedia")
	require.True(t, ok)
	assert.Equal(t, []string{"TriggerResizeS30Permission", "TriggerIndexS30Permission"}, bucket.DependsOn)
	assert.Len(t, bucket.Properties.(template.BucketProperties).NotificationConfiguration.LambdaConfigurations, 2)
}

func TestTriggerBuilderSkipsCollidingBucketNames(t *testing.T) {
	logger, buf := testutil.CapturingLogger()
	builder := NewTriggerBuilder(ExecutionRoleName, logger)
	builder.Add("resize", []manifest.Trigger{trigger(TriggerS3, map[string]any{"bucket": "my-media"})})
	builder.Add("index", []manifest.Trigger{trigger(TriggerS3, map[string]any{"bucket": "mymedia"})})
	doc := builder.Document()

	assert.Len(t, doc.NamesOfType(template.TypeBucket), 1)
	bucket, ok := doc.Get("S3BucketMymedia")
	require.True(t, ok)
	props := bucket.Properties.(template.BucketProperties)
	assert.Equal(t, "my-media", props.BucketName)
	assert.Len(t, props.NotificationConfiguration.LambdaConfigurations, 1)
	assert.Equal(t, []string{"TriggerResizeS30Permission"}, bucket.DependsOn)
	assert.False(t, doc.Has("TriggerIndexS30Permission"))

	assert.Contains(t, buf.String(), "skipping trigger")
	assert.Contains(t, buf.String(), "already used by bucket")
}

func TestBuildTriggersUsesDefaultFallback(t *testing.T) {
	m := testutil.NewManifestBuilder().
		WithDefault(manifest.Function{Triggers: []manifest.Trigger{
			trigger(TriggerEvents, map[string]any{"schedule": "rate(1 day)"}),
		}}).
		WithFunction("a", manifest.Function{}).
		WithFunction("b", manifest.Function{Triggers: []manifest.Trigger{
			trigger(TriggerSNS, map[string]any{"topic": "arn:aws:sns:us-east-1:1:t"}),
		}}).
		Build()

	doc := BuildTriggers(m, []string{"a", "b"}, testutil.SilentLogger())

	assert.Equal(t, []string{
		"TriggerAEvents0",
		"TriggerAEvents0Permission",
		"TriggerBSns0",
		"TriggerBSns0Permission",
	}, doc.Names())
}
