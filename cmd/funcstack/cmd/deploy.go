package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/funcstack/funcstack/internal/client/output"
	"github.com/funcstack/funcstack/internal/config"
	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/deploy"
	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/manifest"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the manifest to its stack",
	Long: `Provision the deploy bucket and stack when missing, upload every function package,
update the stack and health check the deployed functions.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runDeploy(cmd.Context(), cfg, log)
	},
}

func init() {
	deployCmd.Flags().Bool("skip-ping", false, "Skip the post-deploy health check")
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	start := time.Now()

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return err
	}

	orchestrator, target, err := deploy.Initialize(ctx, cfg, log)
	if err != nil {
		return err
	}

	output.Header(fmt.Sprintf("Deploying %s", cfg.StackName))
	output.KeyValue("Version", cfg.Version)
	output.KeyValue("Region", target.Region)
	output.KeyValue("Bucket", target.Bucket)

	staged, err := stagePackages(cfg.Manifest, m)
	defer removeStaged(staged, log)
	if err != nil {
		return err
	}
	output.Infof("staged %d packages", len(staged))

	session := deploy.NewSession(cfg.StackName, target.Bucket, target.Region, cfg.Version, m, staged)
	result, err := orchestrator.Deploy(ctx, session)
	if err != nil {
		reportFailure(session, err)
		return fmt.Errorf("deploy %s failed", session.ID)
	}

	reportResult(result, time.Since(start))
	return nil
}

// packagePath resolves the package of a function, defaulting to <name>.zip next to the manifest.
func packagePath(manifestPath, name string, fn manifest.Function) string {
	if fn.Package != "" {
		return fn.Package
	}
	return filepath.Join(filepath.Dir(manifestPath), name+constants.PackageExtension)
}

// stagePackages copies every function package into a temp file. The orchestrator removes
// each staged copy after its transfer, so the originals are never touched. The staged
// packages created so far are returned even on error.
func stagePackages(manifestPath string, m *manifest.Manifest) ([]deploy.LocalPackage, error) {
	var staged []deploy.LocalPackage
	for _, name := range m.FunctionNames() {
		fn, _ := m.Function(name)
		path, err := stageFile(packagePath(manifestPath, name, fn), name)
		if err != nil {
			return staged, apperrors.ErrInvalidManifest(fmt.Sprintf("package of %s is not readable", name), err)
		}
		staged = append(staged, deploy.LocalPackage{Function: name, Path: path})
	}
	return staged, nil
}

func stageFile(src, function string) (string, error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return "", err
	}
	defer func() { _ = in.Close() }()

	out, err := os.CreateTemp("", constants.ProjectName+"-"+function+"-*"+constants.PackageExtension)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("failed to stage package: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("failed to stage package: %w", err)
	}
	return out.Name(), nil
}

// removeStaged drops staged copies a failed deploy never reached the upload step for.
func removeStaged(staged []deploy.LocalPackage, log *slog.Logger) {
	for _, pkg := range staged {
		if err := os.Remove(pkg.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove staged package", "path", pkg.Path, "error", err)
		}
	}
}

func reportResult(result *deploy.Result, elapsed time.Duration) {
	if result.NoChanges {
		output.Successf("stack is already up to date")
	} else {
		output.Successf("deploy finished in %s", output.Duration(elapsed))
	}
	output.KeyValue("Deploy", result.SessionID)
	output.KeyValue("State", output.StateBadge(string(result.State)))

	if len(result.Outputs) > 0 {
		output.Blank()
		rows := make([][]string, 0, len(result.Outputs))
		for _, key := range slices.Sorted(maps.Keys(result.Outputs)) {
			rows = append(rows, []string{key, result.Outputs[key]})
		}
		output.Table([]string{"Output", "Value"}, rows)
	}

	if len(result.Pinged) > 0 {
		output.Blank()
		output.Infof("healthy functions")
		output.List(result.Pinged)
	}
}

func reportFailure(session *deploy.Session, err error) {
	output.Errorf("%s", apperrors.GetErrorMessage(err))
	output.KeyValue("Deploy", session.ID)
	output.KeyValue("State", output.StateBadge(string(session.State())))
	output.KeyValue("Cause", apperrors.GetErrorDetails(err))

	if apperrors.IsIntegrity(err) {
		output.Warningf("the stack converged but a function failed its health check")
	}

	var failure *deploy.HealthCheckFailure
	if errors.As(err, &failure) && len(failure.Logs) > 0 {
		output.Blank()
		output.Infof("recent logs of %s", failure.Function)
		output.List(failure.Logs)
	}
}
