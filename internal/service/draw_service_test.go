package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cekilis/secret-santa-api/internal/dto"
	"github.com/cekilis/secret-santa-api/internal/models"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
)

type mockDrawStore struct {
	created          *models.Draw
	createdParts     []models.Participant
	byID             map[string]*models.Draw
	byInviteCode     map[string]*models.Draw
	participants     map[string][]models.Participant
	participantCount map[string]int
	cancelResult     bool
	updatedSchedule  *time.Time
	scheduleUpdated  bool
}

func (m *mockDrawStore) Create(ctx context.Context, draw *models.Draw, participants []models.Participant) error {
	m.created = draw
	m.createdParts = participants
	return nil
}

func (m *mockDrawStore) FindByID(ctx context.Context, id string) (*models.Draw, error) {
	if draw, ok := m.byID[id]; ok {
		return draw, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDrawStore) FindByInviteCode(ctx context.Context, code string) (*models.Draw, error) {
	if draw, ok := m.byInviteCode[code]; ok {
		return draw, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDrawStore) ListByUser(ctx context.Context, userID string, filter models.DrawFilter) ([]models.DrawSummary, int, error) {
	var out []models.DrawSummary
	for _, draw := range m.byID {
		if draw.UserID == userID {
			out = append(out, models.DrawSummary{Draw: *draw, ParticipantCount: m.participantCount[draw.ID]})
		}
	}
	return out, len(out), nil
}

func (m *mockDrawStore) ListParticipants(ctx context.Context, drawID string) ([]models.Participant, error) {
	return m.participants[drawID], nil
}

func (m *mockDrawStore) CountParticipants(ctx context.Context, drawID string) (int, error) {
	return m.participantCount[drawID], nil
}

func (m *mockDrawStore) AddParticipant(ctx context.Context, p *models.Participant) error {
	m.participants[p.DrawID] = append(m.participants[p.DrawID], *p)
	return nil
}

func (m *mockDrawStore) UpdateSchedule(ctx context.Context, drawID string, scheduledAt *time.Time) error {
	m.scheduleUpdated = true
	m.updatedSchedule = scheduledAt
	return nil
}

func (m *mockDrawStore) Cancel(ctx context.Context, drawID string) (bool, error) {
	return m.cancelResult, nil
}

func newDrawService(store *mockDrawStore, dispatcher *mockDispatcher) *DrawService {
	now := func() time.Time { return time.Date(2024, time.November, 1, 9, 0, 0, 0, time.UTC) }
	return NewDrawService(store, dispatcher, nil, nil, now)
}

func manualRequest(n int) dto.CreateManualDrawRequest {
	req := dto.CreateManualDrawRequest{Language: "EN"}
	for _, p := range participantFixtures(n) {
		req.Participants = append(req.Participants, dto.ParticipantPayload{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Email:     p.Email,
		})
	}
	return req
}

func TestCreateManualDrawEnqueuesExecution(t *testing.T) {
	store := &mockDrawStore{}
	dispatcher := &mockDispatcher{}

	resp, err := newDrawService(store, dispatcher).CreateManual(context.Background(), "user-1", manualRequest(4))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.InviteCode)

	require.NotNil(t, store.created)
	assert.Equal(t, models.DrawTypeManual, store.created.Type)
	assert.Equal(t, models.DrawStatusActive, store.created.Status)
	assert.Len(t, store.createdParts, 4)

	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, store.created.ID, dispatcher.jobs[0].ID)
	assert.Equal(t, JobTypeExecuteDraw, dispatcher.jobs[0].Type)
}

func TestCreateManualDrawRejectsTooFewParticipants(t *testing.T) {
	_, err := newDrawService(&mockDrawStore{}, &mockDispatcher{}).CreateManual(context.Background(), "user-1", manualRequest(2))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCreateManualDrawEnforcesRequiredAddress(t *testing.T) {
	req := manualRequest(3)
	req.AddressRequired = true
	req.Participants[0].Address = "Elm Street 1"
	req.Participants[1].Address = "Oak Street 2"

	_, err := newDrawService(&mockDrawStore{}, &mockDispatcher{}).CreateManual(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCreateDynamicDrawNormalizesNaiveDate(t *testing.T) {
	store := &mockDrawStore{}
	req := dto.CreateDynamicDrawRequest{
		Language: "TR",
		DrawDate: "2024-12-24T13:00:00",
		Participants: []dto.ParticipantPayload{
			{FirstName: "Ayşe", LastName: "Yılmaz", Email: "ayse@example.com"},
		},
	}

	resp, err := newDrawService(store, &mockDispatcher{}).CreateDynamic(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.InviteCode)

	require.NotNil(t, store.created.ScheduledAt)
	// Naive Turkish wall clock 13:00 is 10:00 UTC.
	assert.Equal(t, time.Date(2024, time.December, 24, 10, 0, 0, 0, time.UTC), store.created.ScheduledAt.UTC())
	assert.Equal(t, models.DrawTypeDynamic, store.created.Type)
	require.NotNil(t, store.created.InviteCode)
	assert.Equal(t, resp.InviteCode, *store.created.InviteCode)
}

func TestCreateDynamicDrawRejectsPastDate(t *testing.T) {
	req := dto.CreateDynamicDrawRequest{
		Language: "EN",
		DrawDate: "2020-01-01T10:00:00",
		Participants: []dto.ParticipantPayload{
			{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
		},
	}

	_, err := newDrawService(&mockDrawStore{}, &mockDispatcher{}).CreateDynamic(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestJoinAddsParticipant(t *testing.T) {
	invite := "code-1"
	store := &mockDrawStore{
		byInviteCode: map[string]*models.Draw{
			invite: {ID: "draw-1", Status: models.DrawStatusActive, InviteCode: &invite},
		},
		participants: map[string][]models.Participant{},
	}
	req := dto.JoinDrawRequest{ParticipantPayload: dto.ParticipantPayload{
		FirstName: "New", LastName: "Joiner", Email: "new@example.com",
	}}

	detail, err := newDrawService(store, &mockDispatcher{}).Join(context.Background(), invite, req)
	require.NoError(t, err)
	assert.Equal(t, "New", detail.FirstName)
	assert.Len(t, store.participants["draw-1"], 1)
}

func TestJoinRejectsNonActiveDraw(t *testing.T) {
	invite := "code-1"
	store := &mockDrawStore{
		byInviteCode: map[string]*models.Draw{
			invite: {ID: "draw-1", Status: models.DrawStatusInProgress, InviteCode: &invite},
		},
	}
	req := dto.JoinDrawRequest{ParticipantPayload: dto.ParticipantPayload{
		FirstName: "Late", LastName: "Joiner", Email: "late@example.com",
	}}

	_, err := newDrawService(store, &mockDispatcher{}).Join(context.Background(), invite, req)
	assert.ErrorIs(t, err, appErrors.ErrDrawNotJoinable)
}

func TestJoinRejectsDuplicateEmail(t *testing.T) {
	invite := "code-1"
	store := &mockDrawStore{
		byInviteCode: map[string]*models.Draw{
			invite: {ID: "draw-1", Status: models.DrawStatusActive, InviteCode: &invite},
		},
		participants: map[string][]models.Participant{
			"draw-1": {{ID: "p-0", DrawID: "draw-1", Email: "dup@example.com"}},
		},
	}
	req := dto.JoinDrawRequest{ParticipantPayload: dto.ParticipantPayload{
		FirstName: "Dup", LastName: "Licate", Email: "DUP@example.com",
	}}

	_, err := newDrawService(store, &mockDispatcher{}).Join(context.Background(), invite, req)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestJoinEnforcesDrawRequirements(t *testing.T) {
	invite := "code-1"
	store := &mockDrawStore{
		byInviteCode: map[string]*models.Draw{
			invite: {ID: "draw-1", Status: models.DrawStatusActive, RequirePhone: true, InviteCode: &invite},
		},
		participants: map[string][]models.Participant{},
	}
	req := dto.JoinDrawRequest{ParticipantPayload: dto.ParticipantPayload{
		FirstName: "No", LastName: "Phone", Email: "nophone@example.com",
	}}

	_, err := newDrawService(store, &mockDispatcher{}).Join(context.Background(), invite, req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDetailHidesForeignDraws(t *testing.T) {
	store := &mockDrawStore{
		byID: map[string]*models.Draw{
			"draw-1": {ID: "draw-1", UserID: "owner"},
		},
	}

	_, err := newDrawService(store, &mockDispatcher{}).Detail(context.Background(), "intruder", "draw-1")
	assert.ErrorIs(t, err, appErrors.ErrDrawNotFound)
}

func TestTriggerRequiresEnoughParticipants(t *testing.T) {
	store := &mockDrawStore{
		byID: map[string]*models.Draw{
			"draw-1": {ID: "draw-1", UserID: "user-1", Status: models.DrawStatusActive},
		},
		participantCount: map[string]int{"draw-1": 2},
	}

	err := newDrawService(store, &mockDispatcher{}).Trigger(context.Background(), "user-1", "draw-1")
	assert.ErrorIs(t, err, appErrors.ErrInsufficientParticipants)
}

func TestTriggerEnqueuesDraw(t *testing.T) {
	store := &mockDrawStore{
		byID: map[string]*models.Draw{
			"draw-1": {ID: "draw-1", UserID: "user-1", Status: models.DrawStatusActive},
		},
		participantCount: map[string]int{"draw-1": 3},
	}
	dispatcher := &mockDispatcher{}

	require.NoError(t, newDrawService(store, dispatcher).Trigger(context.Background(), "user-1", "draw-1"))
	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, "draw-1", dispatcher.jobs[0].ID)
}

func TestCancelTerminalDraw(t *testing.T) {
	store := &mockDrawStore{
		byID: map[string]*models.Draw{
			"draw-1": {ID: "draw-1", UserID: "user-1", Status: models.DrawStatusCompleted},
		},
		cancelResult: false,
	}

	err := newDrawService(store, &mockDispatcher{}).Cancel(context.Background(), "user-1", "draw-1")
	assert.ErrorIs(t, err, appErrors.ErrDrawAlreadyCompleted)
}

func TestUpdateScheduleClears(t *testing.T) {
	store := &mockDrawStore{
		byID: map[string]*models.Draw{
			"draw-1": {ID: "draw-1", UserID: "user-1", Type: models.DrawTypeDynamic, Status: models.DrawStatusActive},
		},
		participants: map[string][]models.Participant{},
	}

	detail, err := newDrawService(store, &mockDispatcher{}).UpdateSchedule(context.Background(), "user-1", "draw-1", dto.UpdateScheduleRequest{})
	require.NoError(t, err)
	assert.True(t, store.scheduleUpdated)
	assert.Nil(t, store.updatedSchedule)
	assert.Nil(t, detail.DrawDate)
}
