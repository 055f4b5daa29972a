package tasks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"portfolio/internal/queue"
	"portfolio/internal/service"
)

// Sweeper runs one reconcile pass over stored assets.
type Sweeper interface {
	Run(ctx context.Context, dryRun bool) (service.ReconcileReport, error)
}

type Processor struct {
	sweeper Sweeper
	logger  zerolog.Logger
}

type reconcilePayload struct {
	DryRun bool `json:"dryRun"`
}

func NewProcessor(sweeper Sweeper, logger zerolog.Logger) *Processor {
	return &Processor{
		sweeper: sweeper,
		logger:  logger,
	}
}

// Handle runs a queued task. Unknown task types are logged and dropped.
func (p *Processor) Handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case service.TaskReconcile:
		return p.handleReconcile(ctx, task)
	default:
		p.logger.Warn().Str("type", task.Type).Str("task_id", task.ID).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handleReconcile(ctx context.Context, task queue.Task) error {
	var payload reconcilePayload
	if err := task.Bind(&payload); err != nil {
		p.logger.Warn().Err(err).Str("task_id", task.ID).Msg("dropping reconcile task with bad payload")
		return nil
	}
	if p.sweeper == nil {
		return fmt.Errorf("reconcile: no sweeper configured")
	}

	report, err := p.sweeper.Run(ctx, payload.DryRun)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	p.logger.Info().
		Str("task_id", task.ID).
		Int("scanned", report.Scanned).
		Int("referenced", report.Referenced).
		Int("recent", report.Recent).
		Strs("deleted", report.Deleted).
		Strs("failed", report.Failed).
		Bool("dry_run", report.DryRun).
		Msg("reconcile task done")
	return nil
}
