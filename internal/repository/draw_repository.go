package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cekilis/secret-santa-api/internal/models"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
)

const drawColumns = "id, user_id, type, status, language, scheduled_at, require_address, require_phone, invite_code, created_at, updated_at"

const participantColumns = "id, draw_id, first_name, last_name, email, address, phone, created_at"

// DrawRepository handles persistence for draws, participants and results.
//
// The draws table is the synchronization point for the execution pipeline:
// status transitions are conditional updates whose WHERE clause re-checks the
// current status, so exactly one claimant wins each transition.
type DrawRepository struct {
	db *sqlx.DB
}

// NewDrawRepository instantiates a draw repository.
func NewDrawRepository(db *sqlx.DB) *DrawRepository {
	return &DrawRepository{db: db}
}

// Create inserts a draw together with its initial participants atomically.
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw, participants []models.Participant) error {
	if draw.ID == "" {
		draw.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if draw.CreatedAt.IsZero() {
		draw.CreatedAt = now
	}
	draw.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create draw tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const drawInsert = `INSERT INTO draws (id, user_id, type, status, language, scheduled_at, require_address, require_phone, invite_code, created_at, updated_at)
		VALUES (:id, :user_id, :type, :status, :language, :scheduled_at, :require_address, :require_phone, :invite_code, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, drawInsert, draw); err != nil {
		return fmt.Errorf("insert draw: %w", err)
	}

	const participantInsert = `INSERT INTO participants (id, draw_id, first_name, last_name, email, address, phone, created_at)
		VALUES (:id, :draw_id, :first_name, :last_name, :email, :address, :phone, :created_at)`
	for i := range participants {
		p := &participants[i]
		p.DrawID = draw.ID
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, participantInsert, p); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create draw tx: %w", err)
	}
	return nil
}

// FindByID loads a draw by identifier.
func (r *DrawRepository) FindByID(ctx context.Context, id string) (*models.Draw, error) {
	query := fmt.Sprintf("SELECT %s FROM draws WHERE id = $1", drawColumns)
	var draw models.Draw
	if err := r.db.GetContext(ctx, &draw, query, id); err != nil {
		return nil, err
	}
	return &draw, nil
}

// FindByInviteCode loads a dynamic draw via its invite token.
func (r *DrawRepository) FindByInviteCode(ctx context.Context, code string) (*models.Draw, error) {
	query := fmt.Sprintf("SELECT %s FROM draws WHERE invite_code = $1 LIMIT 1", drawColumns)
	var draw models.Draw
	if err := r.db.GetContext(ctx, &draw, query, code); err != nil {
		return nil, err
	}
	return &draw, nil
}

// ListByUser returns the organizer's draws with participant counts.
func (r *DrawRepository) ListByUser(ctx context.Context, userID string, filter models.DrawFilter) ([]models.DrawSummary, int, error) {
	conditions := []string{"d.user_id = $1"}
	args := []interface{}{userID}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("d.type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT d.id, d.user_id, d.type, d.status, d.language, d.scheduled_at, d.require_address, d.require_phone, d.invite_code, d.created_at, d.updated_at,
		COUNT(p.id) AS participant_count
		FROM draws d LEFT JOIN participants p ON p.draw_id = d.id
		WHERE %s
		GROUP BY d.id ORDER BY d.created_at DESC LIMIT %d OFFSET %d`, where, size, offset)

	var draws []models.DrawSummary
	if err := r.db.SelectContext(ctx, &draws, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list draws: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM draws d WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count draws: %w", err)
	}

	return draws, total, nil
}

// ListParticipants returns every participant of a draw in insertion order.
func (r *DrawRepository) ListParticipants(ctx context.Context, drawID string) ([]models.Participant, error) {
	query := fmt.Sprintf("SELECT %s FROM participants WHERE draw_id = $1 ORDER BY created_at, id", participantColumns)
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, drawID); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

// CountParticipants returns the participant count for a draw.
func (r *DrawRepository) CountParticipants(ctx context.Context, drawID string) (int, error) {
	const query = `SELECT COUNT(*) FROM participants WHERE draw_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, drawID); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

// AddParticipant inserts a participant into an existing draw.
func (r *DrawRepository) AddParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO participants (id, draw_id, first_name, last_name, email, address, phone, created_at)
		VALUES (:id, :draw_id, :first_name, :last_name, :email, :address, :phone, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

// UpdateSchedule sets or clears a draw's scheduled execution time.
func (r *DrawRepository) UpdateSchedule(ctx context.Context, drawID string, scheduledAt *time.Time) error {
	const query = `UPDATE draws SET scheduled_at = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, drawID, scheduledAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Cancel marks a non-terminal draw as cancelled. Returns false when the draw
// had already reached a terminal status.
func (r *DrawRepository) Cancel(ctx context.Context, drawID string) (bool, error) {
	const query = `UPDATE draws SET status = $2, updated_at = $3 WHERE id = $1 AND status IN ($4, $5)`
	res, err := r.db.ExecContext(ctx, query, drawID, models.DrawStatusCancelled, time.Now().UTC(), models.DrawStatusActive, models.DrawStatusInProgress)
	if err != nil {
		return false, fmt.Errorf("cancel draw: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel draw rows: %w", err)
	}
	return affected == 1, nil
}

// FindDue returns sweep candidates: draws whose scheduled time has passed and
// that are either still ACTIVE or stuck IN_PROGRESS since before staleBefore.
// Participant counts are joined in so admission checks need no second query.
func (r *DrawRepository) FindDue(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.DueDraw, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT d.id, d.status, d.scheduled_at, COUNT(p.id) AS participant_count
		FROM draws d LEFT JOIN participants p ON p.draw_id = d.id
		WHERE d.scheduled_at IS NOT NULL AND d.scheduled_at <= $1
		AND (d.status = $2 OR (d.status = $3 AND d.updated_at <= $4))
		GROUP BY d.id ORDER BY d.scheduled_at LIMIT %d`, limit)

	var due []models.DueDraw
	if err := r.db.SelectContext(ctx, &due, query, now, models.DrawStatusActive, models.DrawStatusInProgress, staleBefore); err != nil {
		return nil, fmt.Errorf("find due draws: %w", err)
	}
	return due, nil
}

// Claim transitions a due draw to IN_PROGRESS. The status re-check in the
// WHERE clause makes the claim atomic: a draw already claimed by a previous
// sweep pass (and not yet stale) affects zero rows and returns false.
func (r *DrawRepository) Claim(ctx context.Context, drawID string, now, staleBefore time.Time) (bool, error) {
	const query = `UPDATE draws SET status = $2, updated_at = $3
		WHERE id = $1 AND (status = $4 OR (status = $2 AND updated_at <= $5))`
	res, err := r.db.ExecContext(ctx, query, drawID, models.DrawStatusInProgress, now, models.DrawStatusActive, staleBefore)
	if err != nil {
		return false, fmt.Errorf("claim draw: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim draw rows: %w", err)
	}
	return affected == 1, nil
}

// CompleteWithResults persists the computed matches and the COMPLETED
// transition as one unit of work. The status update re-checks that the draw
// is still executable; losing that check rolls the inserted results back and
// surfaces DrawAlreadyCompleted, which is the idempotency guard against a
// concurrent execution of the same draw.
func (r *DrawRepository) CompleteWithResults(ctx context.Context, drawID string, results []models.DrawResult) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete draw tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const resultInsert = `INSERT INTO draw_results (id, draw_id, giver_participant_id, receiver_participant_id, created_at)
		VALUES (:id, :draw_id, :giver_participant_id, :receiver_participant_id, :created_at)`
	for i := range results {
		res := &results[i]
		res.DrawID = drawID
		if res.ID == "" {
			res.ID = uuid.NewString()
		}
		if res.CreatedAt.IsZero() {
			res.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, resultInsert, res); err != nil {
			return fmt.Errorf("insert draw result: %w", err)
		}
	}

	const statusUpdate = `UPDATE draws SET status = $2, updated_at = $3 WHERE id = $1 AND status IN ($4, $5)`
	execRes, execErr := tx.ExecContext(ctx, statusUpdate, drawID, models.DrawStatusCompleted, now, models.DrawStatusActive, models.DrawStatusInProgress)
	if execErr != nil {
		err = fmt.Errorf("complete draw: %w", execErr)
		return err
	}
	affected, raErr := execRes.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("complete draw rows: %w", raErr)
		return err
	}
	if affected == 0 {
		err = appErrors.Clone(appErrors.ErrDrawAlreadyCompleted, "draw was completed by a concurrent execution")
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit complete draw tx: %w", err)
	}
	return nil
}
