package synth

import (
	"strings"
	"testing"

	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/template"
	"github.com/funcstack/funcstack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionProps(t *testing.T, doc *template.Document, fn string) template.FunctionProperties {
	t.Helper()
	r, ok := doc.Get(FunctionLogicalName(fn))
	require.True(t, ok, "function %s not synthesized", fn)
	props, ok := r.Properties.(template.FunctionProperties)
	require.True(t, ok)
	return props
}

func TestBuildFunctionsSkipsDefault(t *testing.T) {
	m := testutil.NewManifestBuilder().
		WithDefault(manifest.Function{Timeout: 7}).
		WithFunction("api", manifest.Function{}).
		Build()

	doc, err := BuildFunctions(FunctionInput{
		Bucket:   "deploy-bucket",
		Version:  "20260101-120000",
		Manifest: m,
		Packages: []UploadedPackage{
			{Function: "default", Key: "default-20260101-120000.zip"},
			{Function: "api", Key: "api-20260101-120000.zip"},
		},
	})
	require.NoError(t, err)

	for _, name := range doc.Names() {
		assert.False(t, strings.HasPrefix(strings.ToLower(name), "default"), name)
		assert.NotContains(t, name, "Default")
	}
	for name := range doc.Outputs {
		assert.NotContains(t, strings.ToLower(name), "default")
	}
	assert.Equal(t, []string{"LambdaApi", "LambdaPermissionApi", "LambdaVersionApi20260101120000"}, doc.Names())
}

func TestBuildFunctionsResolvesSettings(t *testing.T) {
	tests := []struct {
		name        string
		defaults    *manifest.Function
		function    manifest.Function
		wantTimeout int
		wantMemory  int
	}{
		{
			name:        "built-in defaults",
			wantTimeout: 3,
			wantMemory:  128,
		},
		{
			name:        "manifest default",
			defaults:    &manifest.Function{Timeout: 10, Memory: 512},
			wantTimeout: 10,
			wantMemory:  512,
		},
		{
			name:        "function overrides manifest default",
			defaults:    &manifest.Function{Timeout: 10, Memory: 512},
			function:    manifest.Function{Timeout: 20},
			wantTimeout: 20,
			wantMemory:  512,
		},
		{
			name:        "function overrides built-ins",
			function:    manifest.Function{Timeout: 30, Memory: 1024},
			wantTimeout: 30,
			wantMemory:  1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := testutil.NewManifestBuilder()
			if tt.defaults != nil {
				builder.WithDefault(*tt.defaults)
			}
			m := builder.WithFunction("worker", tt.function).Build()

			doc, err := BuildFunctions(FunctionInput{
				Bucket:   "b",
				Version:  "v1",
				Manifest: m,
				Packages: []UploadedPackage{{Function: "worker", Key: "worker-v1.zip"}},
			})
			require.NoError(t, err)

			props := functionProps(t, doc, "worker")
			assert.Equal(t, tt.wantTimeout, props.Timeout)
			assert.Equal(t, tt.wantMemory, props.MemorySize)
		})
	}
}

func TestBuildFunctionsUnknownToManifest(t *testing.T) {
	doc, err := BuildFunctions(FunctionInput{
		Bucket:   "b",
		Version:  "v1",
		Manifest: &manifest.Manifest{},
		Packages: []UploadedPackage{{Function: "orphan", Key: "orphan-v1.zip"}},
	})
	require.NoError(t, err)

	props := functionProps(t, doc, "orphan")
	assert.Equal(t, 3, props.Timeout)
	assert.Equal(t, 128, props.MemorySize)
	assert.Equal(t, "bootstrap", props.Handler)
	assert.Equal(t, "provided.al2023", props.Runtime)
}

func TestBuildFunctionsFragmentContents(t *testing.T) {
	m := testutil.NewManifestBuilder().
		WithDefault(manifest.Function{Environment: map[string]string{"STAGE": "prod", "LEVEL": "info"}}).
		WithFunction("api", manifest.Function{Handler: "main", Environment: map[string]string{"LEVEL": "debug"}}).
		Build()

	doc, err := BuildFunctions(FunctionInput{
		Bucket:   "deploy-bucket",
		Version:  "v2",
		Manifest: m,
		Packages: []UploadedPackage{{Function: "api", Key: "api-v2.zip"}},
	})
	require.NoError(t, err)

	props := functionProps(t, doc, "api")
	assert.Equal(t, template.FunctionCode{S3Bucket: "deploy-bucket", S3Key: "api-v2.zip"}, props.Code)
	assert.Equal(t, "main", props.Handler)
	assert.Equal(t, template.Sub("${AWS::StackName}-api"), props.FunctionName)
	require.NotNil(t, props.Environment)
	assert.Equal(t, map[string]string{"STAGE": "prod", "LEVEL": "debug"}, props.Environment.Variables)

	version, ok := doc.Get("LambdaVersionApiv2")
	require.True(t, ok)
	assert.Equal(t, template.TypeVersion, version.Type)
	assert.Equal(t, template.DeletionPolicyRetain, version.DeletionPolicy)

	permission, ok := doc.Get("LambdaPermissionApi")
	require.True(t, ok)
	assert.Equal(t, "apigateway.amazonaws.com", permission.Properties.(template.PermissionProperties).Principal)

	assert.Contains(t, doc.Outputs, "LambdaApiArn")
}

func TestPascal(t *testing.T) {
	tests := map[string]string{
		"appIndex": "AppIndex",
		"{id}":     "Id",
		"my-path":  "Mypath",
		"v1":       "V1",
		"{}":       "",
		"":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, pascal(in), in)
	}
}

func TestBuildFunctionsRejectsCollidingNames(t *testing.T) {
	m := testutil.NewManifestBuilder().
		WithFunction("appIndex", manifest.Function{}).
		WithFunction("AppIndex", manifest.Function{}).
		Build()
	require.NoError(t, m.Validate())

	doc, err := BuildFunctions(FunctionInput{
		Bucket:   "b",
		Version:  "v1",
		Manifest: m,
		Packages: []UploadedPackage{
			{Function: "appIndex", Key: "appIndex-v1.zip"},
			{Function: "AppIndex", Key: "AppIndex-v1.zip"},
		},
	})

	assert.Nil(t, doc)
	testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeTemplateConflict)
	assert.Contains(t, err.Error(), `"AppIndex"`)
	assert.Contains(t, err.Error(), `"appIndex"`)
	assert.Contains(t, err.Error(), "LambdaAppIndex")
}
