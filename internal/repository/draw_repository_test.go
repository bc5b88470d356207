package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cekilis/secret-santa-api/internal/models"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func drawRows(id string, status models.DrawStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "user_id", "type", "status", "language", "scheduled_at", "require_address", "require_phone", "invite_code", "created_at", "updated_at"}).
		AddRow(id, "u1", string(models.DrawTypeDynamic), string(status), string(models.LanguageTR), now, false, false, "code-1", now, now)
}

func TestDrawFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, type, status, language, scheduled_at, require_address, require_phone, invite_code, created_at, updated_at FROM draws WHERE id = $1")).
		WithArgs("d1").
		WillReturnRows(drawRows("d1", models.DrawStatusActive))

	draw, err := repo.FindByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", draw.ID)
	assert.Equal(t, models.DrawStatusActive, draw.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrawFindByInviteCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM draws WHERE invite_code = ").
		WithArgs("code-1").
		WillReturnRows(drawRows("d1", models.DrawStatusActive))

	draw, err := repo.FindByInviteCode(context.Background(), "code-1")
	require.NoError(t, err)
	require.NotNil(t, draw.InviteCode)
	assert.Equal(t, "code-1", *draw.InviteCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDrawWithParticipants(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO draws").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO participants").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO participants").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO participants").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	draw := &models.Draw{UserID: "u1", Type: models.DrawTypeManual, Status: models.DrawStatusActive, Language: models.LanguageTR}
	participants := []models.Participant{
		{FirstName: "Ayşe", LastName: "Yılmaz", Email: "ayse@example.com"},
		{FirstName: "Mehmet", LastName: "Demir", Email: "mehmet@example.com"},
		{FirstName: "Elif", LastName: "Kaya", Email: "elif@example.com"},
	}

	err := repo.Create(context.Background(), draw, participants)
	require.NoError(t, err)
	assert.NotEmpty(t, draw.ID)
	for _, p := range participants {
		assert.Equal(t, draw.ID, p.DrawID)
		assert.NotEmpty(t, p.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimDraw(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	mock.ExpectExec("UPDATE draws SET status = ").
		WithArgs("d1", string(models.DrawStatusInProgress), sqlmock.AnyArg(), string(models.DrawStatusActive), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	claimed, err := repo.Claim(context.Background(), "d1", now, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimDrawAlreadyClaimed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	mock.ExpectExec("UPDATE draws SET status = ").
		WillReturnResult(sqlmock.NewResult(0, 0))

	now := time.Now().UTC()
	claimed, err := repo.Claim(context.Background(), "d1", now, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDue(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "status", "scheduled_at", "participant_count"}).
		AddRow("d1", string(models.DrawStatusActive), now.Add(-time.Hour), 4).
		AddRow("d2", string(models.DrawStatusActive), now.Add(-time.Minute), 2)
	mock.ExpectQuery("SELECT d.id, d.status, d.scheduled_at, COUNT").
		WillReturnRows(rows)

	due, err := repo.FindDue(context.Background(), now, now.Add(-2*time.Hour), 50)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "d1", due[0].ID)
	assert.Equal(t, 4, due[0].ParticipantCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteWithResults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO draw_results").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO draw_results").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO draw_results").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE draws SET status = ").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	results := []models.DrawResult{
		{GiverParticipantID: "p1", ReceiverParticipantID: "p2"},
		{GiverParticipantID: "p2", ReceiverParticipantID: "p3"},
		{GiverParticipantID: "p3", ReceiverParticipantID: "p1"},
	}

	err := repo.CompleteWithResults(context.Background(), "d1", results)
	require.NoError(t, err)
	for _, res := range results {
		assert.Equal(t, "d1", res.DrawID)
		assert.NotEmpty(t, res.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteWithResultsLostRace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	// The status guard matches no rows: a concurrent execution already
	// completed the draw, so the inserted results must roll back.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO draw_results").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE draws SET status = ").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CompleteWithResults(context.Background(), "d1", []models.DrawResult{
		{GiverParticipantID: "p1", ReceiverParticipantID: "p2"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDrawAlreadyCompleted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelDrawTerminal(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDrawRepository(db)

	mock.ExpectExec("UPDATE draws SET status = ").WillReturnResult(sqlmock.NewResult(0, 0))

	cancelled, err := repo.Cancel(context.Background(), "d1")
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}
