package dto

import (
	"time"

	"github.com/cekilis/secret-santa-api/internal/models"
)

// ParticipantPayload is the inline participant shape shared by manual draw
// creation and the public join endpoint.
type ParticipantPayload struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Address   string `json:"address" validate:"omitempty,max=500"`
	Phone     string `json:"phone" validate:"omitempty,max=50"`
}

// CreateManualDrawRequest creates a draw with its full participant list.
type CreateManualDrawRequest struct {
	AddressRequired     bool                 `json:"addressRequired"`
	PhoneNumberRequired bool                 `json:"phoneNumberRequired"`
	Language            string               `json:"language" validate:"omitempty,oneof=TR EN tr en"`
	Participants        []ParticipantPayload `json:"participants" validate:"required,min=3,dive"`
}

// CreateDynamicDrawRequest creates an invite-link draw seeded with the
// organizer as its first participant. DrawDate is the raw client value; the
// service normalizes it to UTC based on the draw language.
type CreateDynamicDrawRequest struct {
	AddressRequired     bool                 `json:"addressRequired"`
	PhoneNumberRequired bool                 `json:"phoneNumberRequired"`
	Language            string               `json:"language" validate:"omitempty,oneof=TR EN tr en"`
	DrawDate            string               `json:"drawDate"`
	Participants        []ParticipantPayload `json:"participants" validate:"required,len=1,dive"`
}

// CreateDrawResponse acknowledges draw creation.
type CreateDrawResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DrawID     string `json:"drawId"`
	InviteCode string `json:"inviteCode,omitempty"`
}

// JoinDrawRequest adds a participant to a dynamic draw via invite code.
type JoinDrawRequest struct {
	ParticipantPayload
}

// UpdateScheduleRequest changes or clears a draw's scheduled execution time.
// An empty DrawDate clears the schedule (manual trigger only).
type UpdateScheduleRequest struct {
	DrawDate string `json:"drawDate"`
}

// PublicDrawInfo is the unauthenticated view exposed by the invite link.
type PublicDrawInfo struct {
	ID               string     `json:"id"`
	RequireAddress   bool       `json:"requireAddress"`
	RequirePhone     bool       `json:"requirePhone"`
	DrawDate         *time.Time `json:"drawDate,omitempty"`
	Status           string     `json:"status"`
	ParticipantCount int        `json:"participantCount"`
	Language         string     `json:"language"`
}

// ParticipantDetail is the organizer-facing participant view.
type ParticipantDetail struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DrawListItem summarises one draw in the organizer listing.
type DrawListItem struct {
	ID               string     `json:"id"`
	DrawType         string     `json:"drawType"`
	Status           string     `json:"status"`
	InviteCode       string     `json:"inviteCode,omitempty"`
	ParticipantCount int        `json:"participantCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	DrawDate         *time.Time `json:"drawDate,omitempty"`
	Language         string     `json:"language"`
}

// DrawDetail is the full organizer view of a draw.
type DrawDetail struct {
	ID             string              `json:"id"`
	DrawType       string              `json:"drawType"`
	Status         string              `json:"status"`
	InviteCode     string              `json:"inviteCode,omitempty"`
	RequireAddress bool                `json:"requireAddress"`
	RequirePhone   bool                `json:"requirePhone"`
	DrawDate       *time.Time          `json:"drawDate,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	Language       string              `json:"language"`
	Participants   []ParticipantDetail `json:"participants"`
}

// ExportResponse acknowledges a roster export with its signed download
// token.
type ExportResponse struct {
	DownloadToken string    `json:"downloadToken"`
	Format        string    `json:"format"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// SkippedDraw records why the sweep passed over a due draw.
type SkippedDraw struct {
	DrawID string `json:"drawId"`
	Reason string `json:"reason"`
}

// SweepSummary is the structured outcome of one scheduler sweep pass.
type SweepSummary struct {
	SweptAt   time.Time     `json:"sweptAt"`
	Processed []string      `json:"processed"`
	Skipped   []SkippedDraw `json:"skipped"`
}

// NewDrawDetail maps a draw and its participants onto the organizer view.
func NewDrawDetail(draw *models.Draw, participants []models.Participant) DrawDetail {
	detail := DrawDetail{
		ID:             draw.ID,
		DrawType:       string(draw.Type),
		Status:         string(draw.Status),
		RequireAddress: draw.RequireAddress,
		RequirePhone:   draw.RequirePhone,
		DrawDate:       draw.ScheduledAt,
		CreatedAt:      draw.CreatedAt,
		Language:       string(draw.Language),
		Participants:   make([]ParticipantDetail, 0, len(participants)),
	}
	if draw.InviteCode != nil {
		detail.InviteCode = *draw.InviteCode
	}
	for _, p := range participants {
		detail.Participants = append(detail.Participants, NewParticipantDetail(p))
	}
	return detail
}

// NewParticipantDetail maps a participant row onto its API view.
func NewParticipantDetail(p models.Participant) ParticipantDetail {
	detail := ParticipantDetail{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
	if p.Address != nil {
		detail.Address = *p.Address
	}
	if p.Phone != nil {
		detail.Phone = *p.Phone
	}
	return detail
}
