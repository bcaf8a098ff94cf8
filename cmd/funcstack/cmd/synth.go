package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/funcstack/funcstack/internal/client/output"
	"github.com/funcstack/funcstack/internal/config"
	"github.com/funcstack/funcstack/internal/deploy"
	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/synth"
)

// synthBucketPlaceholder stands in for the deploy bucket when none is configured,
// since synth never contacts the account to derive one.
const synthBucketPlaceholder = "funcstack-deploy-bucket"

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Print the template a deploy would submit",
	Long: `Synthesize the complete template for the manifest and print it without
contacting AWS. Every declared function is assumed to be uploaded.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		m, err := manifest.Load(cfg.Manifest)
		if err != nil {
			return err
		}

		rendered, err := renderTemplate(cfg, m, log)
		if err != nil {
			return err
		}
		output.Write(rendered)
		return nil
	},
}

func init() {
	synthCmd.Flags().String("format", "", "Output format: yaml or json (default yaml)")
	rootCmd.AddCommand(synthCmd)
}

// renderTemplate assembles and validates the template for m and renders it in the
// configured output format.
func renderTemplate(cfg *config.Config, m *manifest.Manifest, log *slog.Logger) ([]byte, error) {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = synthBucketPlaceholder
	}

	names := m.FunctionNames()
	packages := make([]synth.UploadedPackage, 0, len(names))
	for _, name := range names {
		packages = append(packages, synth.UploadedPackage{
			Function: name,
			Key:      deploy.PackageKey(name, cfg.Version),
		})
	}

	doc, err := synth.Assemble(synth.Input{
		StackName: cfg.StackName,
		Bucket:    bucket,
		Version:   cfg.Version,
		Manifest:  m,
		Packages:  packages,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if cfg.OutputFormat == "json" {
		rendered, err := doc.IndentedJSON()
		if err != nil {
			return nil, err
		}
		return append(rendered, '\n'), nil
	}
	return doc.YAML()
}
