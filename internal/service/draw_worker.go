package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cekilis/secret-santa-api/internal/models"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
	"github.com/cekilis/secret-santa-api/pkg/jobs"
)

// DrawWorker consumes execute_draw jobs: it runs the execution pipeline and
// then fans out result emails. Returning an error requeues the job, so only
// transient failures propagate; terminal outcomes are logged and swallowed.
type DrawWorker struct {
	execution     *ExecutionService
	notifications *NotificationService
	logger        *zap.Logger
}

// NewDrawWorker constructs the queue handler for draw execution jobs.
func NewDrawWorker(execution *ExecutionService, notifications *NotificationService, logger *zap.Logger) *DrawWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DrawWorker{execution: execution, notifications: notifications, logger: logger}
}

// Handle processes one job. The job ID is the draw ID.
func (w *DrawWorker) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeExecuteDraw {
		w.logger.Warn("unknown job type", zap.String("type", job.Type), zap.String("job_id", job.ID))
		return nil
	}

	outcome, err := w.execution.Execute(ctx, job.ID)
	if err != nil {
		switch {
		case errors.Is(err, appErrors.ErrDrawAlreadyCompleted):
			// Lost a race with another execution; the winner sent the emails.
			w.logger.Warn("draw already executed", zap.String("draw_id", job.ID))
			return nil
		case errors.Is(err, appErrors.ErrDrawNotFound),
			errors.Is(err, appErrors.ErrInsufficientParticipants):
			// Retrying cannot change either condition.
			w.logger.Error("draw execution rejected", zap.String("draw_id", job.ID), zap.Error(err))
			return nil
		default:
			return err
		}
	}

	participants := make(map[string]models.Participant, len(outcome.Participants))
	for _, p := range outcome.Participants {
		participants[p.ID] = p
	}
	w.notifications.NotifyAll(ctx, outcome.Draw, outcome.Results, participants)

	return nil
}
