package models

import "time"

// DrawType distinguishes how participants enter a draw.
type DrawType string

const (
	// DrawTypeManual draws carry their full participant list at creation and
	// are executed immediately.
	DrawTypeManual DrawType = "MANUAL"
	// DrawTypeDynamic draws start with the organizer and collect participants
	// through an invite link until the scheduled execution time.
	DrawTypeDynamic DrawType = "DYNAMIC"
)

// DrawStatus is the lifecycle state of a draw. Transitions only move forward:
// ACTIVE -> IN_PROGRESS -> COMPLETED, with CANCELLED reachable from the two
// non-terminal states by operator action.
type DrawStatus string

const (
	DrawStatusActive     DrawStatus = "ACTIVE"
	DrawStatusInProgress DrawStatus = "IN_PROGRESS"
	DrawStatusCompleted  DrawStatus = "COMPLETED"
	DrawStatusCancelled  DrawStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions.
func (s DrawStatus) Terminal() bool {
	return s == DrawStatusCompleted || s == DrawStatusCancelled
}

// Executable reports whether a draw in this status may still be executed.
func (s DrawStatus) Executable() bool {
	return s == DrawStatusActive || s == DrawStatusInProgress
}

// Language selects email templates and the civil timezone used to interpret
// naive draw dates.
type Language string

const (
	LanguageTR Language = "TR"
	LanguageEN Language = "EN"
)

// MinParticipants is the smallest participant set a draw can be executed
// over. A derangement exists for any N >= 2 but a two-person exchange is
// degenerate, so three is enforced everywhere.
const MinParticipants = 3

// Draw is one gift-exchange event with its configuration.
type Draw struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	Type           DrawType   `db:"type" json:"type"`
	Status         DrawStatus `db:"status" json:"status"`
	Language       Language   `db:"language" json:"language"`
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	RequireAddress bool       `db:"require_address" json:"require_address"`
	RequirePhone   bool       `db:"require_phone" json:"require_phone"`
	InviteCode     *string    `db:"invite_code" json:"invite_code,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Participant belongs to exactly one draw.
type Participant struct {
	ID        string    `db:"id" json:"id"`
	DrawID    string    `db:"draw_id" json:"draw_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FullName returns the display name used in notification emails.
func (p Participant) FullName() string {
	return p.FirstName + " " + p.LastName
}

// DrawResult records one giver/receiver match. Results are written exactly
// once at execution time and are immutable thereafter.
type DrawResult struct {
	ID                    string    `db:"id" json:"id"`
	DrawID                string    `db:"draw_id" json:"draw_id"`
	GiverParticipantID    string    `db:"giver_participant_id" json:"giver_participant_id"`
	ReceiverParticipantID string    `db:"receiver_participant_id" json:"receiver_participant_id"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// DrawSummary is a draw row joined with its participant count for listings.
type DrawSummary struct {
	Draw
	ParticipantCount int `db:"participant_count" json:"participant_count"`
}

// DrawFilter captures criteria for listing an organizer's draws.
type DrawFilter struct {
	Status   *DrawStatus
	Type     *DrawType
	Page     int
	PageSize int
}

// DueDraw is a sweep selection candidate: a due draw together with its
// participant count, so admission can be checked without a second query.
type DueDraw struct {
	ID               string     `db:"id"`
	Status           DrawStatus `db:"status"`
	ScheduledAt      time.Time  `db:"scheduled_at"`
	ParticipantCount int        `db:"participant_count"`
}
