package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/deploy/contract"
	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/synth"
	"github.com/funcstack/funcstack/internal/template"
)

// placeholderName is the only resource of a freshly created stack.
const placeholderName = "Placeholder"

func (o *Orchestrator) ensureBucket(ctx context.Context, s *Session, log *slog.Logger) error {
	exists, err := o.storage.BucketExists(ctx, s.Bucket)
	if err != nil {
		return err
	}
	if exists {
		log.Debug("using existing bucket", "bucket", s.Bucket)
		o.transition(s, StateFetchedBucket, log)
		return nil
	}

	log.Info("creating bucket", "context", map[string]string{
		"bucket": s.Bucket,
		"region": s.Region,
	})
	if err := o.storage.CreateBucket(ctx, s.Bucket, s.Region); err != nil {
		return err
	}
	o.transition(s, StateCreatedBucket, log)
	return nil
}

func (o *Orchestrator) ensureStack(ctx context.Context, s *Session, log *slog.Logger) error {
	stack, err := o.stacks.DescribeStack(ctx, s.StackName)
	if err == nil {
		log.Debug("using existing stack", "context", map[string]string{
			"stack":  stack.Name,
			"status": stack.Status,
		})
		s.Outputs = stack.Outputs
		o.transition(s, StateFetchedStack, log)
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	body, err := placeholderTemplate(s).JSON()
	if err != nil {
		return fmt.Errorf("failed to render placeholder template: %w", err)
	}

	log.Info("creating stack", "stack", s.StackName)
	if err := o.stacks.CreateStack(ctx, s.StackName, contract.TemplateSource{Body: string(body)}); err != nil {
		return err
	}
	stack, err = o.stacks.WaitForStackConverged(ctx, s.StackName)
	if err != nil {
		return err
	}

	s.Outputs = stack.Outputs
	o.transition(s, StateCreated, log)
	return nil
}

func placeholderTemplate(s *Session) *template.Document {
	doc := template.NewTemplate(fmt.Sprintf("%s application %s", constants.ProjectName, s.StackName))
	doc.Put(placeholderName, template.Resource{Type: template.TypeWaitConditionHandle})
	return doc
}

func (o *Orchestrator) update(ctx context.Context, s *Session, log *slog.Logger) error {
	o.transition(s, StateUpdating, log)

	doc, err := synth.Assemble(synth.Input{
		StackName: s.StackName,
		Bucket:    s.Bucket,
		Version:   s.Version,
		Manifest:  s.Manifest,
		Packages:  s.Uploaded,
	}, log)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	s.Document = doc

	source, err := o.templateSource(ctx, s, doc, log)
	if err != nil {
		return err
	}

	err = o.stacks.UpdateStack(ctx, s.StackName, source)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNoUpdates):
		log.Info("stack is already up to date", "stack", s.StackName)
		s.NoChanges = true
		if stack, describeErr := o.stacks.DescribeStack(ctx, s.StackName); describeErr == nil {
			s.Outputs = stack.Outputs
		}
		return nil
	case errors.Is(err, apperrors.ErrStackNotReady) && s.State() == StateUpdating:
		// An operation started outside this session, such as an operator rollback, owns the stack.
		log.Warn("stack is busy with another operation, leaving it to converge", "context", map[string]string{
			"stack": s.StackName,
			"error": err.Error(),
		})
		return nil
	default:
		return err
	}

	stack, err := o.stacks.WaitForStackConverged(ctx, s.StackName)
	if err != nil {
		return err
	}
	s.Outputs = stack.Outputs
	o.transition(s, StateUpdated, log)
	return nil
}

// templateSource submits doc inline when it fits the inline body limit and by URL otherwise.
func (o *Orchestrator) templateSource(
	ctx context.Context,
	s *Session,
	doc *template.Document,
	log *slog.Logger,
) (contract.TemplateSource, error) {
	body, err := doc.JSON()
	if err != nil {
		return contract.TemplateSource{}, fmt.Errorf("failed to render template: %w", err)
	}
	if len(body) <= constants.TemplateBodyMaxBytes {
		return contract.TemplateSource{Body: string(body)}, nil
	}

	key := TemplateKey(s.Version)
	log.Info("template exceeds the inline limit, uploading it", "context", map[string]any{
		"bytes": len(body),
		"key":   key,
	})
	if err := o.storage.UploadObject(ctx, s.Bucket, key, bytes.NewReader(body)); err != nil {
		return contract.TemplateSource{}, apperrors.ErrUploadFailed("failed to upload template", err)
	}
	return contract.TemplateSource{URL: o.storage.ObjectURL(s.Bucket, key)}, nil
}
