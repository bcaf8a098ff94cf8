package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funcstack/funcstack/internal/config"
	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/testutil"
)

func synthConfig(format string) *config.Config {
	return &config.Config{
		StackName:    "shop",
		Version:      "v1",
		OutputFormat: format,
	}
}

func TestRenderTemplate(t *testing.T) {
	m := testutil.NewManifestBuilder().
		WithFunction("appIndex", manifest.Function{Timeout: 5}).
		WithRoute("/", "get", "appIndex").
		Build()

	t.Run("json", func(t *testing.T) {
		rendered, err := renderTemplate(synthConfig("json"), m, testutil.SilentLogger())
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(rendered, &doc))
		resources := doc["Resources"].(map[string]any)
		assert.Contains(t, resources, "LambdaAppIndex")
		assert.Contains(t, resources, "MethodGET")
		assert.Contains(t, string(rendered), synthBucketPlaceholder)
		assert.Contains(t, string(rendered), "appIndex-v1.zip")
	})

	t.Run("yaml", func(t *testing.T) {
		cfg := synthConfig("yaml")
		cfg.Bucket = "shop-artifacts"

		rendered, err := renderTemplate(cfg, m, testutil.SilentLogger())
		require.NoError(t, err)
		assert.Contains(t, string(rendered), "AWSTemplateFormatVersion:")
		assert.Contains(t, string(rendered), "shop-artifacts")
		assert.NotContains(t, string(rendered), synthBucketPlaceholder)
	})
}
