package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cekilis/secret-santa-api/internal/dto"
	"github.com/cekilis/secret-santa-api/internal/models"
	"github.com/cekilis/secret-santa-api/pkg/config"
	"github.com/cekilis/secret-santa-api/pkg/jobs"
)

// Skip reasons reported in sweep summaries.
const (
	SkipInsufficientParticipants = "insufficient_participants"
	SkipAlreadyClaimed           = "already_claimed"
	SkipDispatchFailed           = "dispatch_failed"
)

// JobTypeExecuteDraw identifies draw execution jobs on the queue.
const JobTypeExecuteDraw = "execute_draw"

type sweepDrawStore interface {
	FindDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.DueDraw, error)
	Claim(ctx context.Context, drawID string, now, staleBefore time.Time) (bool, error)
}

type drawDispatcher interface {
	Enqueue(job jobs.Job) error
}

// SweepService scans for due draws and dispatches them for execution.
//
// Claiming happens through a conditional status update, so a draw is handed
// off at most once per sweep even when sweeps overlap. Dispatch is
// fire-and-forget: a draw's downstream failure never affects the rest of the
// pass. Draws stuck IN_PROGRESS longer than StaleAfter (crashed executions)
// are re-claimed and retried.
type SweepService struct {
	repo    sweepDrawStore
	queue   drawDispatcher
	logger  *zap.Logger
	metrics *MetricsService
	cfg     config.SweepConfig
}

// NewSweepService constructs the sweep service.
func NewSweepService(repo sweepDrawStore, queue drawDispatcher, logger *zap.Logger, metrics *MetricsService, cfg config.SweepConfig) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 2 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &SweepService{repo: repo, queue: queue, logger: logger, metrics: metrics, cfg: cfg}
}

// Sweep performs one scan pass at the given instant and returns a structured
// summary of processed and skipped draws.
func (s *SweepService) Sweep(ctx context.Context, now time.Time) (dto.SweepSummary, error) {
	now = now.UTC()
	staleBefore := now.Add(-s.cfg.StaleAfter)
	summary := dto.SweepSummary{SweptAt: now, Processed: []string{}, Skipped: []dto.SkippedDraw{}}

	s.metrics.RecordSweep()

	due, err := s.repo.FindDue(ctx, now, staleBefore, s.cfg.BatchSize)
	if err != nil {
		return summary, err
	}

	for _, candidate := range due {
		if candidate.ParticipantCount < models.MinParticipants {
			// Left untouched so a later sweep can retry once more
			// participants join.
			s.skip(&summary, candidate.ID, SkipInsufficientParticipants)
			continue
		}

		claimed, err := s.repo.Claim(ctx, candidate.ID, now, staleBefore)
		if err != nil {
			s.logger.Error("failed to claim due draw", zap.String("draw_id", candidate.ID), zap.Error(err))
			s.skip(&summary, candidate.ID, SkipDispatchFailed)
			continue
		}
		if !claimed {
			s.skip(&summary, candidate.ID, SkipAlreadyClaimed)
			continue
		}

		if err := s.queue.Enqueue(jobs.Job{ID: candidate.ID, Type: JobTypeExecuteDraw}); err != nil {
			// The claim stands; the stale-retry window will re-offer the
			// draw to a later sweep.
			s.logger.Error("failed to dispatch claimed draw", zap.String("draw_id", candidate.ID), zap.Error(err))
			s.skip(&summary, candidate.ID, SkipDispatchFailed)
			continue
		}

		summary.Processed = append(summary.Processed, candidate.ID)
	}

	s.logger.Info("sweep finished",
		zap.Time("now", now),
		zap.Int("processed", len(summary.Processed)),
		zap.Int("skipped", len(summary.Skipped)))

	return summary, nil
}

func (s *SweepService) skip(summary *dto.SweepSummary, drawID, reason string) {
	summary.Skipped = append(summary.Skipped, dto.SkippedDraw{DrawID: drawID, Reason: reason})
	s.metrics.RecordSweepSkip(reason)
	s.logger.Warn("due draw skipped", zap.String("draw_id", drawID), zap.String("reason", reason))
}

// SweepRunner drives periodic sweeps. A failing pass is logged and never
// stops the ticker; the next scheduled sweep always runs.
type SweepRunner struct {
	service  *SweepService
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSweepRunner constructs a runner. The clock is injectable for tests; nil
// defaults to time.Now.
func NewSweepRunner(service *SweepService, interval time.Duration, now func() time.Time, logger *zap.Logger) *SweepRunner {
	if interval <= 0 {
		interval = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepRunner{service: service, interval: interval, now: now, logger: logger}
}

// Run blocks until the context is cancelled, sweeping on every tick.
func (r *SweepRunner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Sugar().Infow("sweep runner started", "interval", r.interval.String())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("sweep runner stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *SweepRunner) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Sugar().Errorw("sweep panicked", "panic", rec)
		}
	}()

	if _, err := r.service.Sweep(ctx, r.now()); err != nil {
		r.logger.Error("sweep failed", zap.Error(err))
	}
}
