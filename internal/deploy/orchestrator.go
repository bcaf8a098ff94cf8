package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/deploy/contract"
	"github.com/funcstack/funcstack/internal/logger"
)

// Options tune an Orchestrator. Zero values fall back to the defaults.
type Options struct {
	UploadConcurrency int
	PingConcurrency   int
	SkipPing          bool
}

// Result is returned by a successful deploy.
type Result struct {
	SessionID string
	State     State
	Outputs   map[string]string
	// NoChanges is set when the stack already matched the synthesized template.
	NoChanges bool
	// Pinged lists the deployed functions that passed the health check.
	Pinged []string
}

// Orchestrator drives deploy sessions against the remote capabilities.
type Orchestrator struct {
	stacks    contract.StackManager
	storage   contract.Storage
	invoker   contract.FunctionInvoker
	logTailer contract.LogTailer
	logger    *slog.Logger
	options   Options
}

// NewOrchestrator creates an orchestrator. logTailer may be nil, in which case
// health check failures carry no log lines.
func NewOrchestrator(
	stacks contract.StackManager,
	storage contract.Storage,
	invoker contract.FunctionInvoker,
	logTailer contract.LogTailer,
	log *slog.Logger,
	options Options,
) *Orchestrator {
	if options.UploadConcurrency <= 0 {
		options.UploadConcurrency = constants.DefaultUploadConcurrency
	}
	if options.PingConcurrency <= 0 {
		options.PingConcurrency = constants.DefaultPingConcurrency
	}
	return &Orchestrator{
		stacks:    stacks,
		storage:   storage,
		invoker:   invoker,
		logTailer: logTailer,
		logger:    log,
		options:   options,
	}
}

type step struct {
	name string
	run  func(ctx context.Context, s *Session, log *slog.Logger) error
}

// Deploy runs every step of s in order and stops at the first failure, leaving s in
// the state of the last completed step. It returns exactly one of a result or an error.
func (o *Orchestrator) Deploy(ctx context.Context, s *Session) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	ctx = logger.WithDeployID(ctx, s.ID)
	log := logger.DeriveRequestLogger(ctx, o.logger)
	start := time.Now()

	log.Info("starting deploy", "context", map[string]any{
		"stack":    s.StackName,
		"bucket":   s.Bucket,
		"region":   s.Region,
		"version":  s.Version,
		"packages": len(s.Packages),
	})

	steps := []step{
		{"bucket", o.ensureBucket},
		{"stack", o.ensureStack},
		{"upload", o.upload},
		{"update", o.update},
	}
	if o.options.SkipPing {
		log.Info("health check disabled")
	} else {
		steps = append(steps, step{"ping", o.ping})
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("deploy interrupted before %s step: %w", st.name, err)
		}

		log.Debug("running deploy step", append([]any{"step", st.name}, logger.GetDeadlineInfo(ctx)...)...)
		if err := st.run(ctx, s, log); err != nil {
			log.Error("deploy step failed", "context", map[string]any{
				"step":  st.name,
				"state": string(s.State()),
				"error": err.Error(),
			})
			return nil, err
		}
	}

	log.Info("deploy finished", "context", map[string]any{
		"state":      string(s.State()),
		"no_changes": s.NoChanges,
		"duration":   time.Since(start).String(),
	})

	return &Result{
		SessionID: s.ID,
		State:     s.State(),
		Outputs:   s.Outputs,
		NoChanges: s.NoChanges,
		Pinged:    s.Pinged,
	}, nil
}

func (o *Orchestrator) transition(s *Session, to State, log *slog.Logger) {
	log.Debug("deploy state changed", "context", map[string]string{
		"from": string(s.State()),
		"to":   string(to),
	})
	s.transition(to)
}
