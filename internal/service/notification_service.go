package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/cekilis/secret-santa-api/internal/models"
	"github.com/cekilis/secret-santa-api/pkg/mailer"
)

// NotificationService delivers per-giver result emails after a draw
// completes. Each send is isolated: one failing recipient never blocks the
// others, and delivery failures are reported per recipient rather than as a
// single error.
type NotificationService struct {
	sender  mailer.Sender
	logger  *zap.Logger
	metrics *MetricsService
}

// NewNotificationService constructs a notification service. A nil sender
// falls back to the no-op transport.
func NewNotificationService(sender mailer.Sender, logger *zap.Logger, metrics *MetricsService) *NotificationService {
	if sender == nil {
		sender = mailer.NopSender{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{sender: sender, logger: logger, metrics: metrics}
}

// NotifyAll emails every giver their assigned receiver's details. The result
// maps giver participant ID to delivery success. Pairs whose giver or
// receiver is missing from the participant set are logged and excluded from
// the report entirely.
func (s *NotificationService) NotifyAll(ctx context.Context, draw *models.Draw, results []models.DrawResult, participants map[string]models.Participant) map[string]bool {
	report := make(map[string]bool, len(results))

	for _, result := range results {
		giver, ok := participants[result.GiverParticipantID]
		if !ok {
			s.logger.Warn("result references unknown giver",
				zap.String("draw_id", draw.ID),
				zap.String("giver_id", result.GiverParticipantID))
			continue
		}
		receiver, ok := participants[result.ReceiverParticipantID]
		if !ok {
			s.logger.Warn("result references unknown receiver",
				zap.String("draw_id", draw.ID),
				zap.String("receiver_id", result.ReceiverParticipantID))
			continue
		}

		report[giver.ID] = s.sendOne(ctx, draw, giver, receiver)
	}

	sent := 0
	for _, ok := range report {
		if ok {
			sent++
		}
	}
	s.logger.Info("draw notifications dispatched",
		zap.String("draw_id", draw.ID),
		zap.Int("sent", sent),
		zap.Int("total", len(report)))

	return report
}

func (s *NotificationService) sendOne(ctx context.Context, draw *models.Draw, giver, receiver models.Participant) bool {
	subject, body, err := mailer.RenderResult(string(draw.Language), mailer.ResultContext{
		ParticipantName: giver.FullName(),
		TargetName:      receiver.FullName(),
		TargetEmail:     receiver.Email,
		TargetPhone:     stringValue(receiver.Phone),
		TargetAddress:   stringValue(receiver.Address),
	})
	if err != nil {
		s.logger.Error("failed to render result email",
			zap.String("draw_id", draw.ID),
			zap.String("participant_id", giver.ID),
			zap.Error(err))
		s.metrics.RecordEmail(false)
		return false
	}

	if err := s.sender.Send(ctx, giver.Email, subject, body); err != nil {
		s.logger.Error("failed to send result email",
			zap.String("draw_id", draw.ID),
			zap.String("participant_id", giver.ID),
			zap.Error(err))
		s.metrics.RecordEmail(false)
		return false
	}

	s.metrics.RecordEmail(true)
	return true
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
