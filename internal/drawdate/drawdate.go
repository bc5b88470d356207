// Package drawdate normalizes user-submitted draw dates to UTC.
//
// The server stores every schedule in UTC. Dates submitted without a UTC
// offset are interpreted as civil time in a zone derived from the draw
// language: TR draws read them as Europe/Istanbul wall-clock time, EN draws
// as UTC. Dates that carry an offset are honored and converted.
package drawdate

import (
	"fmt"
	"strings"
	"time"

	"github.com/cekilis/secret-santa-api/internal/models"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
)

// Accepted layouts. The offset-carrying forms must be tried first: a naive
// layout would otherwise swallow the offset digits of an RFC3339 value.
var (
	offsetLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00"}
	naiveLayouts  = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}
)

const istanbulZone = "Europe/Istanbul"

// Normalize parses raw, applies the language timezone policy, converts to
// UTC and validates the result against now. The returned time is always UTC.
//
// Validation fails when the UTC instant is not strictly in the future, falls
// outside the current UTC year, or is not on an exact hour boundary.
func Normalize(raw string, language models.Language, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "drawDate is required")
	}

	parsed, err := parse(raw, language)
	if err != nil {
		return time.Time{}, err
	}

	utc := parsed.UTC()
	nowUTC := now.UTC()

	if !utc.After(nowUTC) {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "drawDate must be in the future")
	}
	if utc.Year() != nowUTC.Year() {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("drawDate must be in the current year (%d)", nowUTC.Year()))
	}
	if utc.Minute() != 0 || utc.Second() != 0 || utc.Nanosecond() != 0 {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "drawDate must be at an exact hour (e.g. 13:00, not 13:33)")
	}

	return utc, nil
}

func parse(raw string, language models.Language) (time.Time, error) {
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	loc := time.UTC
	if language == models.LanguageTR {
		zone, err := time.LoadLocation(istanbulZone)
		if err != nil {
			return time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timezone database unavailable")
		}
		loc = zone
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "drawDate must be an ISO-8601 datetime")
}
