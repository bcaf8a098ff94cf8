package deploy

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/deploy/contract"
	apperrors "github.com/funcstack/funcstack/internal/errors"
)

// HealthCheckFailure explains why one function failed the post-deploy health check.
type HealthCheckFailure struct {
	Function string
	Reason   string
	// Logs holds recent log lines of the function, oldest first.
	Logs []string
}

func (f *HealthCheckFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Function, f.Reason)
}

func (o *Orchestrator) ping(ctx context.Context, s *Session, log *slog.Logger) error {
	o.transition(s, StatePinging, log)
	since := time.Now().Add(-constants.HealthCheckLogLookback)

	deployed, err := o.invoker.ListDeployedFunctions(ctx)
	if err != nil {
		return err
	}

	targets, err := pingTargets(s, deployed)
	if err != nil {
		return err
	}

	var (
		mu     sync.Mutex
		passed []string
	)

	var g errgroup.Group
	g.SetLimit(o.options.PingConcurrency)
	for _, name := range targets {
		g.Go(func() error {
			if err := o.pingFunction(ctx, name, since, log); err != nil {
				return err
			}
			mu.Lock()
			passed = append(passed, name)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slices.Sort(passed)
	s.Pinged = passed
	log.Info("health check passed", "functions", len(passed))
	o.transition(s, StatePinged, log)
	return nil
}

// pingTargets returns the deployed names of every uploaded function that is not bare.
// A deployed function belongs to the stack when its name starts with "<stack>-<function>".
func pingTargets(s *Session, deployed []contract.DeployedFunction) ([]string, error) {
	var targets []string
	for _, pkg := range s.Uploaded {
		if pkg.Function == constants.DefaultFunctionName || s.Manifest.IsBare(pkg.Function) {
			continue
		}

		prefix := s.StackName + "-" + pkg.Function
		matched := matchDeployed(prefix, deployed)
		if len(matched) == 0 {
			return nil, apperrors.ErrDeployIntegrity(
				fmt.Sprintf("health check of %s failed", pkg.Function),
				&HealthCheckFailure{Function: prefix, Reason: "function is not deployed"},
			)
		}
		for _, name := range matched {
			if !slices.Contains(targets, name) {
				targets = append(targets, name)
			}
		}
	}

	slices.Sort(targets)
	return targets, nil
}

// matchDeployed prefers the function named exactly prefix and falls back to every
// function whose name starts with it.
func matchDeployed(prefix string, deployed []contract.DeployedFunction) []string {
	var matched []string
	for _, fn := range deployed {
		if fn.Name == prefix {
			return []string{fn.Name}
		}
		if strings.HasPrefix(fn.Name, prefix) {
			matched = append(matched, fn.Name)
		}
	}
	return matched
}

func (o *Orchestrator) pingFunction(ctx context.Context, name string, since time.Time, log *slog.Logger) error {
	invocation, err := o.invoker.InvokeFunction(ctx, name, []byte(constants.HealthCheckPayload))

	var reason string
	switch {
	case err != nil:
		reason = "invocation failed: " + err.Error()
	case invocation.StatusCode != constants.HealthCheckStatusCode:
		reason = fmt.Sprintf("unexpected status %d", invocation.StatusCode)
	case invocation.FunctionError != "":
		reason = fmt.Sprintf("function error %s: %s", invocation.FunctionError, invocation.Payload)
	case !bytes.Equal(invocation.Payload, []byte(constants.HealthCheckResponse)):
		reason = fmt.Sprintf("unexpected response %q", invocation.Payload)
	default:
		log.Debug("function is healthy", "function", name)
		return nil
	}

	failure := &HealthCheckFailure{
		Function: name,
		Reason:   reason,
		Logs:     o.recentLogs(ctx, name, since, log),
	}
	log.Error("health check failed", "context", map[string]any{
		"function":  name,
		"reason":    reason,
		"log_lines": len(failure.Logs),
	})
	return apperrors.ErrDeployIntegrity(fmt.Sprintf("health check of %s failed", name), failure)
}

func (o *Orchestrator) recentLogs(ctx context.Context, name string, since time.Time, log *slog.Logger) []string {
	if o.logTailer == nil {
		return nil
	}
	lines, err := o.logTailer.RecentLogLines(ctx, name, since, constants.HealthCheckLogLines)
	if err != nil {
		log.Warn("failed to fetch function logs", "function", name, "error", err)
		return nil
	}
	return lines
}
