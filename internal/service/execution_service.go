package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/cekilis/secret-santa-api/internal/matching"
	"github.com/cekilis/secret-santa-api/internal/models"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
)

type executionDrawStore interface {
	FindByID(ctx context.Context, id string) (*models.Draw, error)
	ListParticipants(ctx context.Context, drawID string) ([]models.Participant, error)
	CompleteWithResults(ctx context.Context, drawID string, results []models.DrawResult) error
}

// ExecutionOutcome summarises one completed draw execution for callers that
// dispatch notifications afterwards.
type ExecutionOutcome struct {
	Draw         *models.Draw
	Participants []models.Participant
	Results      []models.DrawResult
}

// ExecutionService runs the matching pipeline for a single draw.
//
// Execution is all-or-nothing: results and the COMPLETED transition commit
// together, and any failure leaves the stored draw state untouched. Email
// dispatch is deliberately not part of this service; notification success
// never affects execution success.
type ExecutionService struct {
	repo    executionDrawStore
	engine  *matching.Engine
	logger  *zap.Logger
	metrics *MetricsService
}

// NewExecutionService constructs the execution service.
func NewExecutionService(repo executionDrawStore, engine *matching.Engine, logger *zap.Logger, metrics *MetricsService) *ExecutionService {
	if engine == nil {
		engine = matching.NewEngine(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecutionService{repo: repo, engine: engine, logger: logger, metrics: metrics}
}

// Execute loads the draw, verifies admission, computes the assignment and
// persists results plus the COMPLETED transition in one unit of work.
func (s *ExecutionService) Execute(ctx context.Context, drawID string) (*ExecutionOutcome, error) {
	draw, err := s.repo.FindByID(ctx, drawID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordExecution("not_found")
			return nil, appErrors.Clone(appErrors.ErrDrawNotFound, "draw "+drawID+" not found")
		}
		s.metrics.RecordExecution("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draw")
	}

	if !draw.Status.Executable() {
		s.metrics.RecordExecution("already_completed")
		return nil, appErrors.Clone(appErrors.ErrDrawAlreadyCompleted, "draw "+drawID+" is "+string(draw.Status))
	}

	participants, err := s.repo.ListParticipants(ctx, drawID)
	if err != nil {
		s.metrics.RecordExecution("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
	}

	if len(participants) < models.MinParticipants {
		if draw.Status == models.DrawStatusInProgress {
			// A claimed draw should never arrive here: the sweep admits only
			// draws with enough participants. Leave it IN_PROGRESS so the
			// stale-retry policy re-offers it, and flag the anomaly.
			s.logger.Error("claimed draw has too few participants",
				zap.String("draw_id", drawID),
				zap.Int("participants", len(participants)))
		}
		s.metrics.RecordExecution("insufficient_participants")
		return nil, appErrors.Clone(appErrors.ErrInsufficientParticipants, "")
	}

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}

	pairs, err := s.engine.Assignment(ids)
	if err != nil {
		s.metrics.RecordExecution("error")
		return nil, err
	}

	results := make([]models.DrawResult, len(pairs))
	for i, pair := range pairs {
		results[i] = models.DrawResult{
			DrawID:                drawID,
			GiverParticipantID:    pair.Giver,
			ReceiverParticipantID: pair.Receiver,
		}
	}

	if err := s.repo.CompleteWithResults(ctx, drawID, results); err != nil {
		if errors.Is(err, appErrors.ErrDrawAlreadyCompleted) {
			s.metrics.RecordExecution("already_completed")
			return nil, err
		}
		s.metrics.RecordExecution("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist draw results")
	}

	draw.Status = models.DrawStatusCompleted
	s.metrics.RecordExecution("completed")
	s.logger.Info("draw executed",
		zap.String("draw_id", drawID),
		zap.Int("matches", len(results)))

	return &ExecutionOutcome{Draw: draw, Participants: participants, Results: results}, nil
}
