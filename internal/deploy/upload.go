package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/synth"
)

// upload transfers every package concurrently. A failed transfer fails the step but does
// not cancel the others, and every local file is removed once its own transfer settles.
func (o *Orchestrator) upload(ctx context.Context, s *Session, log *slog.Logger) error {
	o.transition(s, StateUploading, log)

	uploaded := make([]synth.UploadedPackage, len(s.Packages))

	var g errgroup.Group
	g.SetLimit(o.options.UploadConcurrency)
	for i, pkg := range s.Packages {
		g.Go(func() error {
			defer removeLocal(pkg.Path, log)

			key := PackageKey(pkg.Function, s.Version)
			if err := o.uploadFile(ctx, s.Bucket, key, pkg.Path); err != nil {
				log.Error("package upload failed", "context", map[string]string{
					"function": pkg.Function,
					"key":      key,
					"error":    err.Error(),
				})
				return apperrors.ErrUploadFailed(fmt.Sprintf("failed to upload package of %s", pkg.Function), err)
			}

			log.Debug("package uploaded", "context", map[string]string{
				"function": pkg.Function,
				"key":      key,
			})
			uploaded[i] = synth.UploadedPackage{Function: pkg.Function, Key: key}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.transition(s, StateUploadFailed, log)
		return err
	}

	s.Uploaded = uploaded
	o.transition(s, StateUploaded, log)
	return nil
}

func (o *Orchestrator) uploadFile(ctx context.Context, bucket, key, path string) error {
	f, err := os.Open(path) //nolint:gosec // path is a staged package
	if err != nil {
		return fmt.Errorf("failed to open package: %w", err)
	}
	defer func() { _ = f.Close() }()

	return o.storage.UploadObject(ctx, bucket, key, f)
}

func removeLocal(path string, log *slog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to remove local package", "path", path, "error", err)
	}
}
