package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cekilis/secret-santa-api/internal/models"
)

type recordingSender struct {
	sent    []sentMail
	failFor map[string]bool
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (r *recordingSender) Send(_ context.Context, to, subject, body string) error {
	if r.failFor[to] {
		return errors.New("smtp timeout")
	}
	r.sent = append(r.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func notificationFixtures() (*models.Draw, []models.DrawResult, map[string]models.Participant) {
	draw := &models.Draw{ID: "draw-1", Status: models.DrawStatusCompleted, Language: models.LanguageEN}
	participants := map[string]models.Participant{}
	for _, p := range participantFixtures(3) {
		participants[p.ID] = p
	}
	results := []models.DrawResult{
		{DrawID: draw.ID, GiverParticipantID: "p-0", ReceiverParticipantID: "p-1"},
		{DrawID: draw.ID, GiverParticipantID: "p-1", ReceiverParticipantID: "p-2"},
		{DrawID: draw.ID, GiverParticipantID: "p-2", ReceiverParticipantID: "p-0"},
	}
	return draw, results, participants
}

func TestNotifyAllEmailsEveryGiver(t *testing.T) {
	draw, results, participants := notificationFixtures()
	sender := &recordingSender{}

	report := NewNotificationService(sender, nil, nil).NotifyAll(context.Background(), draw, results, participants)

	require.Len(t, report, 3)
	for giverID, ok := range report {
		assert.True(t, ok, "giver %s should be notified", giverID)
	}
	require.Len(t, sender.sent, 3)
	assert.Equal(t, "🎄 Secret Santa Draw Result", sender.sent[0].subject)
	// The giver receives their receiver's name, never the other way round.
	assert.Equal(t, "p0@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].body, "First1 Last1")
}

func TestNotifyAllIsolatesFailures(t *testing.T) {
	draw, results, participants := notificationFixtures()
	sender := &recordingSender{failFor: map[string]bool{"p1@example.com": true}}

	report := NewNotificationService(sender, nil, nil).NotifyAll(context.Background(), draw, results, participants)

	require.Len(t, report, 3)
	assert.True(t, report["p-0"])
	assert.False(t, report["p-1"])
	assert.True(t, report["p-2"])
	assert.Len(t, sender.sent, 2)
}

func TestNotifyAllSkipsUnknownParticipants(t *testing.T) {
	draw, results, participants := notificationFixtures()
	delete(participants, "p-2")
	sender := &recordingSender{}

	report := NewNotificationService(sender, nil, nil).NotifyAll(context.Background(), draw, results, participants)

	// p-1's pair references the missing receiver and p-2's giver is gone;
	// neither shows up in the report at all.
	require.Len(t, report, 1)
	assert.True(t, report["p-0"])
}

func TestNotifyAllRendersMissingContactPlaceholder(t *testing.T) {
	draw, results, participants := notificationFixtures()
	draw.Language = models.LanguageTR
	sender := &recordingSender{}

	NewNotificationService(sender, nil, nil).NotifyAll(context.Background(), draw, results, participants)

	require.NotEmpty(t, sender.sent)
	for _, mail := range sender.sent {
		assert.True(t, strings.Contains(mail.body, "Belirtilmemiş"), "missing phone and address render the TR placeholder")
	}
}
