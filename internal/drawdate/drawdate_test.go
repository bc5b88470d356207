package drawdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cekilis/secret-santa-api/internal/models"
)

var testNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func TestNormalizeNaiveTurkish(t *testing.T) {
	// 13:00 Istanbul wall clock is 10:00 UTC (Istanbul is fixed at UTC+3).
	got, err := Normalize("2024-01-15T13:00:00", models.LanguageTR, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestNormalizeNaiveEnglish(t *testing.T) {
	got, err := Normalize("2024-01-15T13:00:00", models.LanguageEN, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), got)
}

func TestNormalizeHonorsExplicitOffset(t *testing.T) {
	// An offset on the value wins over the language policy.
	got, err := Normalize("2024-01-15T15:00:00+02:00", models.LanguageTR, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), got)
}

func TestNormalizeMinuteLayoutWithoutSeconds(t *testing.T) {
	got, err := Normalize("2024-03-01T18:00", models.LanguageEN, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC), got)
}

func TestNormalizeRejections(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		language models.Language
	}{
		{"past date", "2024-01-01T10:00:00", models.LanguageEN},
		{"exactly now", "2024-01-10T09:00:00", models.LanguageEN},
		{"different year", "2025-01-15T10:00:00Z", models.LanguageEN},
		{"not on the hour", "2024-01-15T13:30:00", models.LanguageTR},
		{"seconds set", "2024-01-15T13:00:30", models.LanguageEN},
		{"hour boundary broken by offset", "2024-01-15T13:15:00+03:00", models.LanguageEN},
		{"empty", "", models.LanguageTR},
		{"garbage", "next tuesday", models.LanguageEN},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw, tc.language, testNow)
			require.Error(t, err)
		})
	}
}

func TestNormalizeTurkishOffsetValueStillHourChecked(t *testing.T) {
	// 13:00+03:00 is 10:00 UTC, a valid hour boundary.
	got, err := Normalize("2024-01-15T13:00:00+03:00", models.LanguageTR, testNow)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())
}
