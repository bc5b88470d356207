package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cekilis/secret-santa-api/internal/matching"
	"github.com/cekilis/secret-santa-api/internal/models"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
)

type mockExecutionStore struct {
	draw          *models.Draw
	findErr       error
	participants  []models.Participant
	listErr       error
	completeErr   error
	completed     []models.DrawResult
	completeCalls int
}

func (m *mockExecutionStore) FindByID(ctx context.Context, id string) (*models.Draw, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.draw, nil
}

func (m *mockExecutionStore) ListParticipants(ctx context.Context, drawID string) ([]models.Participant, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.participants, nil
}

func (m *mockExecutionStore) CompleteWithResults(ctx context.Context, drawID string, results []models.DrawResult) error {
	m.completeCalls++
	if m.completeErr != nil {
		return m.completeErr
	}
	m.completed = results
	m.draw.Status = models.DrawStatusCompleted
	return nil
}

func participantFixtures(n int) []models.Participant {
	out := make([]models.Participant, n)
	for i := range out {
		out[i] = models.Participant{
			ID:        fmt.Sprintf("p-%d", i),
			FirstName: fmt.Sprintf("First%d", i),
			LastName:  fmt.Sprintf("Last%d", i),
			Email:     fmt.Sprintf("p%d@example.com", i),
		}
	}
	return out
}

func newExecutionService(store *mockExecutionStore) *ExecutionService {
	engine := matching.NewEngine(rand.New(rand.NewSource(7)))
	return NewExecutionService(store, engine, nil, nil)
}

func TestExecuteCompletesDraw(t *testing.T) {
	store := &mockExecutionStore{
		draw:         &models.Draw{ID: "draw-1", Status: models.DrawStatusInProgress, Language: models.LanguageTR},
		participants: participantFixtures(5),
	}

	outcome, err := newExecutionService(store).Execute(context.Background(), "draw-1")
	require.NoError(t, err)
	require.Len(t, outcome.Results, 5)
	assert.Equal(t, models.DrawStatusCompleted, outcome.Draw.Status)

	// Every participant gives exactly once, receives exactly once, and
	// never draws themselves.
	givers := map[string]bool{}
	receivers := map[string]bool{}
	for _, result := range outcome.Results {
		assert.Equal(t, "draw-1", result.DrawID)
		assert.NotEqual(t, result.GiverParticipantID, result.ReceiverParticipantID)
		assert.False(t, givers[result.GiverParticipantID])
		assert.False(t, receivers[result.ReceiverParticipantID])
		givers[result.GiverParticipantID] = true
		receivers[result.ReceiverParticipantID] = true
	}
}

func TestExecuteDrawNotFound(t *testing.T) {
	store := &mockExecutionStore{findErr: sql.ErrNoRows}

	_, err := newExecutionService(store).Execute(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrDrawNotFound)
}

func TestExecuteTerminalDrawRejected(t *testing.T) {
	store := &mockExecutionStore{
		draw: &models.Draw{ID: "draw-1", Status: models.DrawStatusCompleted},
	}

	_, err := newExecutionService(store).Execute(context.Background(), "draw-1")
	assert.ErrorIs(t, err, appErrors.ErrDrawAlreadyCompleted)
	assert.Zero(t, store.completeCalls)
}

func TestExecuteTooFewParticipantsLeavesStateUntouched(t *testing.T) {
	store := &mockExecutionStore{
		draw:         &models.Draw{ID: "draw-1", Status: models.DrawStatusActive},
		participants: participantFixtures(2),
	}

	_, err := newExecutionService(store).Execute(context.Background(), "draw-1")
	assert.ErrorIs(t, err, appErrors.ErrInsufficientParticipants)
	assert.Zero(t, store.completeCalls)
	assert.Equal(t, models.DrawStatusActive, store.draw.Status)
}

func TestExecuteLostCompletionRace(t *testing.T) {
	store := &mockExecutionStore{
		draw:         &models.Draw{ID: "draw-1", Status: models.DrawStatusInProgress},
		participants: participantFixtures(3),
		completeErr:  appErrors.Clone(appErrors.ErrDrawAlreadyCompleted, ""),
	}

	_, err := newExecutionService(store).Execute(context.Background(), "draw-1")
	assert.ErrorIs(t, err, appErrors.ErrDrawAlreadyCompleted)
}

func TestExecuteRepositoryFailureWrapped(t *testing.T) {
	store := &mockExecutionStore{
		draw:    &models.Draw{ID: "draw-1", Status: models.DrawStatusActive},
		listErr: errors.New("connection reset"),
	}

	_, err := newExecutionService(store).Execute(context.Background(), "draw-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
