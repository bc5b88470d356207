package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cekilis/secret-santa-api/internal/drawdate"
	"github.com/cekilis/secret-santa-api/internal/dto"
	"github.com/cekilis/secret-santa-api/internal/models"
	"github.com/cekilis/secret-santa-api/pkg/cache"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
	"github.com/cekilis/secret-santa-api/pkg/jobs"
)

const publicInfoTTL = time.Minute

type drawStore interface {
	Create(ctx context.Context, draw *models.Draw, participants []models.Participant) error
	FindByID(ctx context.Context, id string) (*models.Draw, error)
	FindByInviteCode(ctx context.Context, code string) (*models.Draw, error)
	ListByUser(ctx context.Context, userID string, filter models.DrawFilter) ([]models.DrawSummary, int, error)
	ListParticipants(ctx context.Context, drawID string) ([]models.Participant, error)
	CountParticipants(ctx context.Context, drawID string) (int, error)
	AddParticipant(ctx context.Context, p *models.Participant) error
	UpdateSchedule(ctx context.Context, drawID string, scheduledAt *time.Time) error
	Cancel(ctx context.Context, drawID string) (bool, error)
}

type publicInfoCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// DrawService owns the draw lifecycle up to execution: creation, public
// join, scheduling, listing and cancellation. Execution itself is handed to
// the job queue so that API latency never includes matching or email work.
type DrawService struct {
	repo     drawStore
	queue    drawDispatcher
	cache    publicInfoCache
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewDrawService constructs the draw service. The cache is optional; a nil
// cache disables the public info cache without changing behaviour.
func NewDrawService(repo drawStore, queue drawDispatcher, cacheStore publicInfoCache, logger *zap.Logger, now func() time.Time) *DrawService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &DrawService{
		repo:     repo,
		queue:    queue,
		cache:    cacheStore,
		validate: validator.New(),
		logger:   logger,
		now:      now,
	}
}

// CreateManual creates a draw with its final participant list and queues it
// for immediate execution.
func (s *DrawService) CreateManual(ctx context.Context, userID string, req dto.CreateManualDrawRequest) (*dto.CreateDrawResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	language := normalizeLanguage(req.Language)
	if err := checkParticipants(req.Participants, req.AddressRequired, req.PhoneNumberRequired); err != nil {
		return nil, err
	}

	draw := &models.Draw{
		ID:             uuid.New().String(),
		UserID:         userID,
		Type:           models.DrawTypeManual,
		Status:         models.DrawStatusActive,
		Language:       language,
		RequireAddress: req.AddressRequired,
		RequirePhone:   req.PhoneNumberRequired,
	}
	participants := buildParticipants(draw.ID, req.Participants)

	if err := s.repo.Create(ctx, draw, participants); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create draw")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: draw.ID, Type: JobTypeExecuteDraw}); err != nil {
		// The draw stays ACTIVE without a schedule; it can be triggered
		// manually once the queue recovers.
		s.logger.Error("failed to enqueue manual draw", zap.String("draw_id", draw.ID), zap.Error(err))
	}

	s.logger.Info("manual draw created",
		zap.String("draw_id", draw.ID),
		zap.String("user_id", userID),
		zap.Int("participants", len(participants)))

	return &dto.CreateDrawResponse{Success: true, Message: "draw created", DrawID: draw.ID}, nil
}

// CreateDynamic creates an invite-link draw seeded with the organizer. The
// draw date, when present, is normalized to UTC using the draw language's
// civil timezone.
func (s *DrawService) CreateDynamic(ctx context.Context, userID string, req dto.CreateDynamicDrawRequest) (*dto.CreateDrawResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	language := normalizeLanguage(req.Language)
	if err := checkParticipants(req.Participants, req.AddressRequired, req.PhoneNumberRequired); err != nil {
		return nil, err
	}

	var scheduledAt *time.Time
	if strings.TrimSpace(req.DrawDate) != "" {
		normalized, err := drawdate.Normalize(req.DrawDate, language, s.now())
		if err != nil {
			return nil, err
		}
		scheduledAt = &normalized
	}

	inviteCode := uuid.New().String()
	draw := &models.Draw{
		ID:             uuid.New().String(),
		UserID:         userID,
		Type:           models.DrawTypeDynamic,
		Status:         models.DrawStatusActive,
		Language:       language,
		ScheduledAt:    scheduledAt,
		RequireAddress: req.AddressRequired,
		RequirePhone:   req.PhoneNumberRequired,
		InviteCode:     &inviteCode,
	}
	participants := buildParticipants(draw.ID, req.Participants)

	if err := s.repo.Create(ctx, draw, participants); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create draw")
	}

	s.logger.Info("dynamic draw created",
		zap.String("draw_id", draw.ID),
		zap.String("user_id", userID),
		zap.Bool("scheduled", scheduledAt != nil))

	return &dto.CreateDrawResponse{Success: true, Message: "draw created", DrawID: draw.ID, InviteCode: inviteCode}, nil
}

// PublicInfo returns the unauthenticated invite-link view of a draw. Lookups
// are cached briefly since invite pages are polled by joiners.
func (s *DrawService) PublicInfo(ctx context.Context, inviteCode string) (*dto.PublicDrawInfo, error) {
	cacheKey := publicInfoKey(inviteCode)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var info dto.PublicDrawInfo
			if err := json.Unmarshal([]byte(cached), &info); err == nil {
				return &info, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("public info cache read failed", zap.Error(err))
		}
	}

	draw, err := s.findByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountParticipants(ctx, draw.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count participants")
	}

	info := &dto.PublicDrawInfo{
		ID:               draw.ID,
		RequireAddress:   draw.RequireAddress,
		RequirePhone:     draw.RequirePhone,
		DrawDate:         draw.ScheduledAt,
		Status:           string(draw.Status),
		ParticipantCount: count,
		Language:         string(draw.Language),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(info); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(payload), publicInfoTTL); err != nil {
				s.logger.Warn("public info cache write failed", zap.Error(err))
			}
		}
	}

	return info, nil
}

// Join adds a participant to a dynamic draw through its invite code.
func (s *DrawService) Join(ctx context.Context, inviteCode string, req dto.JoinDrawRequest) (*dto.ParticipantDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	draw, err := s.findByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if draw.Status != models.DrawStatusActive {
		return nil, appErrors.Clone(appErrors.ErrDrawNotJoinable, "")
	}
	if err := checkParticipants([]dto.ParticipantPayload{req.ParticipantPayload}, draw.RequireAddress, draw.RequirePhone); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListParticipants(ctx, draw.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
	}
	for _, p := range existing {
		if strings.EqualFold(p.Email, req.Email) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already participates in this draw")
		}
	}

	participant := buildParticipants(draw.ID, []dto.ParticipantPayload{req.ParticipantPayload})[0]
	if err := s.repo.AddParticipant(ctx, &participant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add participant")
	}

	s.invalidatePublicInfo(ctx, draw)
	s.logger.Info("participant joined draw",
		zap.String("draw_id", draw.ID),
		zap.String("participant_id", participant.ID))

	detail := dto.NewParticipantDetail(participant)
	return &detail, nil
}

// List returns the organizer's draws with participant counts.
func (s *DrawService) List(ctx context.Context, userID string, filter models.DrawFilter) ([]dto.DrawListItem, int, error) {
	summaries, total, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list draws")
	}

	items := make([]dto.DrawListItem, 0, len(summaries))
	for _, summary := range summaries {
		item := dto.DrawListItem{
			ID:               summary.ID,
			DrawType:         string(summary.Type),
			Status:           string(summary.Status),
			ParticipantCount: summary.ParticipantCount,
			CreatedAt:        summary.CreatedAt,
			DrawDate:         summary.ScheduledAt,
			Language:         string(summary.Language),
		}
		if summary.InviteCode != nil {
			item.InviteCode = *summary.InviteCode
		}
		items = append(items, item)
	}
	return items, total, nil
}

// Detail returns the full owner view of one draw.
func (s *DrawService) Detail(ctx context.Context, userID, drawID string) (*dto.DrawDetail, error) {
	draw, err := s.findOwned(ctx, userID, drawID)
	if err != nil {
		return nil, err
	}
	participants, err := s.repo.ListParticipants(ctx, drawID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
	}
	detail := dto.NewDrawDetail(draw, participants)
	return &detail, nil
}

// UpdateSchedule changes or clears a dynamic draw's execution time. An empty
// draw date clears the schedule, leaving manual trigger as the only path to
// execution.
func (s *DrawService) UpdateSchedule(ctx context.Context, userID, drawID string, req dto.UpdateScheduleRequest) (*dto.DrawDetail, error) {
	draw, err := s.findOwned(ctx, userID, drawID)
	if err != nil {
		return nil, err
	}
	if draw.Type != models.DrawTypeDynamic {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only dynamic draws can be scheduled")
	}
	if draw.Status != models.DrawStatusActive {
		return nil, appErrors.Clone(appErrors.ErrDrawAlreadyCompleted, "draw is "+string(draw.Status))
	}

	var scheduledAt *time.Time
	if strings.TrimSpace(req.DrawDate) != "" {
		normalized, err := drawdate.Normalize(req.DrawDate, draw.Language, s.now())
		if err != nil {
			return nil, err
		}
		scheduledAt = &normalized
	}

	if err := s.repo.UpdateSchedule(ctx, drawID, scheduledAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	draw.ScheduledAt = scheduledAt
	s.invalidatePublicInfo(ctx, draw)

	participants, err := s.repo.ListParticipants(ctx, drawID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
	}
	detail := dto.NewDrawDetail(draw, participants)
	return &detail, nil
}

// Cancel moves a non-terminal draw to CANCELLED.
func (s *DrawService) Cancel(ctx context.Context, userID, drawID string) error {
	draw, err := s.findOwned(ctx, userID, drawID)
	if err != nil {
		return err
	}

	cancelled, err := s.repo.Cancel(ctx, drawID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel draw")
	}
	if !cancelled {
		return appErrors.Clone(appErrors.ErrDrawAlreadyCompleted, "draw is already "+string(draw.Status))
	}

	draw.Status = models.DrawStatusCancelled
	s.invalidatePublicInfo(ctx, draw)
	s.logger.Info("draw cancelled", zap.String("draw_id", drawID), zap.String("user_id", userID))
	return nil
}

// Trigger queues an owned draw for immediate execution regardless of its
// schedule. Admission is re-checked by the execution pipeline, so a race
// with the sweep resolves to a single completion.
func (s *DrawService) Trigger(ctx context.Context, userID, drawID string) error {
	draw, err := s.findOwned(ctx, userID, drawID)
	if err != nil {
		return err
	}
	if !draw.Status.Executable() {
		return appErrors.Clone(appErrors.ErrDrawAlreadyCompleted, "draw is "+string(draw.Status))
	}

	count, err := s.repo.CountParticipants(ctx, drawID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count participants")
	}
	if count < models.MinParticipants {
		return appErrors.Clone(appErrors.ErrInsufficientParticipants, "")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: drawID, Type: JobTypeExecuteDraw}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue draw execution")
	}
	s.logger.Info("draw execution triggered", zap.String("draw_id", drawID), zap.String("user_id", userID))
	return nil
}

func (s *DrawService) findOwned(ctx context.Context, userID, drawID string) (*models.Draw, error) {
	draw, err := s.repo.FindByID(ctx, drawID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrDrawNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draw")
	}
	// Other users' draws surface as not found so IDs cannot be probed.
	if draw.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrDrawNotFound, "")
	}
	return draw, nil
}

func (s *DrawService) findByInviteCode(ctx context.Context, inviteCode string) (*models.Draw, error) {
	draw, err := s.repo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrDrawNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draw")
	}
	return draw, nil
}

func (s *DrawService) invalidatePublicInfo(ctx context.Context, draw *models.Draw) {
	if s.cache == nil || draw.InviteCode == nil {
		return
	}
	if err := s.cache.Del(ctx, publicInfoKey(*draw.InviteCode)); err != nil {
		s.logger.Warn("public info cache invalidation failed", zap.Error(err))
	}
}

func publicInfoKey(inviteCode string) string {
	return "draw:public:" + inviteCode
}

func normalizeLanguage(raw string) models.Language {
	if strings.EqualFold(raw, string(models.LanguageEN)) {
		return models.LanguageEN
	}
	return models.LanguageTR
}

func checkParticipants(payloads []dto.ParticipantPayload, requireAddress, requirePhone bool) error {
	for _, p := range payloads {
		if requireAddress && strings.TrimSpace(p.Address) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "address is required for participant "+p.Email)
		}
		if requirePhone && strings.TrimSpace(p.Phone) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "phone number is required for participant "+p.Email)
		}
	}
	return nil
}

func buildParticipants(drawID string, payloads []dto.ParticipantPayload) []models.Participant {
	participants := make([]models.Participant, 0, len(payloads))
	for _, p := range payloads {
		participant := models.Participant{
			ID:        uuid.New().String(),
			DrawID:    drawID,
			FirstName: strings.TrimSpace(p.FirstName),
			LastName:  strings.TrimSpace(p.LastName),
			Email:     strings.TrimSpace(p.Email),
		}
		if addr := strings.TrimSpace(p.Address); addr != "" {
			participant.Address = &addr
		}
		if phone := strings.TrimSpace(p.Phone); phone != "" {
			participant.Phone = &phone
		}
		participants = append(participants, participant)
	}
	return participants
}
