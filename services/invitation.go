package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/notifications"
	"github.com/queuev/queuev-api/utils"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationHandled  = errors.New("invitation already handled")
)

// EventPublisher receives a registration event for the live feed.
type EventPublisher interface {
	Publish(e notifications.Event)
}

type InvitationService struct {
	db        *sql.DB
	publisher EventPublisher
}

func NewInvitationService(db *sql.DB, publisher EventPublisher) *InvitationService {
	return &InvitationService{db: db, publisher: publisher}
}

// InviteStaff persists one invitation per invited email across the queue's
// categories. This is the documented partial-failure path: every error is
// logged and swallowed so queue submission never blocks on invitations.
func (s *InvitationService) InviteStaff(ctx context.Context, q models.Queue, inviterID string) {
	var inviterEmail, inviterName string
	err := s.db.QueryRowContext(ctx,
		`SELECT email, display_name FROM users WHERE id = $1`, inviterID,
	).Scan(&inviterEmail, &inviterName)
	if err != nil {
		utils.SafeWarn("Skipping staff invitations, inviter %s lookup failed: %v", inviterID, err)
		return
	}

	for _, category := range q.Categories {
		for _, email := range category.InvitedStaff {
			if err := s.createInvitation(ctx, q, category, inviterID, inviterEmail, email); err != nil {
				utils.SafeWarn("Failed to invite %s to category %s: %v", email, category.Name, err)
				continue
			}
			// Email is best-effort on top of best-effort: the invitation
			// row is already visible on the invitations screen.
			if err := utils.SendInvitationEmail(email, inviterName, q.QueueName, category.Name); err != nil {
				utils.SafeWarn("Invitation email to %s failed: %v", email, err)
			}
		}
	}
}

func (s *InvitationService) createInvitation(ctx context.Context, q models.Queue, category models.Category, inviterID, inviterEmail, invitedEmail string) error {
	// The invited user may not have an account yet; the invitation still
	// exists and binds by email.
	var invitedUserID sql.NullString
	var invitedName string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name FROM users WHERE email = $1`, invitedEmail,
	).Scan(&invitedUserID, &invitedName)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to look up invited user: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invitations (id, category_id, category_name, category_limit, category_time_limit,
		                         invited_email, invited_user_id, invited_user_display_name,
		                         inviter_user_id, inviter_email, queue_id, queue_name, queue_address, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, uuid.New().String(), category.CategoryID, category.Name, category.Limit, category.TimeLimit,
		invitedEmail, invitedUserID, invitedName,
		inviterID, inviterEmail, q.QueueID, q.QueueName, q.Address, models.InvitationPending)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", err)
	}

	utils.LogInvitationAction("created", category.CategoryID, invitedEmail)
	return nil
}

// GetPending lists a user's pending invitations, newest first.
func (s *InvitationService) GetPending(ctx context.Context, userID string) ([]models.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, category_name, category_limit, category_time_limit,
		       invited_email, COALESCE(invited_user_id::text, ''), invited_user_display_name,
		       COALESCE(inviter_user_id::text, ''), inviter_email,
		       queue_id, queue_name, queue_address, status, created_at, updated_at
		FROM invitations
		WHERE invited_user_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, userID, models.InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(&inv.ID, &inv.CategoryID, &inv.CategoryName, &inv.CategoryLimit,
			&inv.CategoryTimeLimit, &inv.InvitedEmail, &inv.InvitedUserID, &inv.InvitedUserDisplayName,
			&inv.InviterUserID, &inv.InviterEmail, &inv.QueueID, &inv.QueueName, &inv.QueueAddress,
			&inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// Accept transitions the invitation to accepted and checks the invitee into
// the queue: a registration row with the next position index, the queue's
// schedule, and the category stored in the legacy type column.
func (s *InvitationService) Accept(ctx context.Context, invitationID, userID string) error {
	inv, err := s.claim(ctx, invitationID, userID, models.InvitationAccepted)
	if err != nil {
		return err
	}

	var schedule time.Time
	var dateTime string
	err = s.db.QueryRowContext(ctx,
		`SELECT date_time FROM queues WHERE queue_id = $1`, inv.QueueID,
	).Scan(&dateTime)
	if err == nil {
		if parsed, perr := time.Parse(time.RFC3339, dateTime); perr == nil {
			schedule = parsed
		}
	}
	if schedule.IsZero() {
		schedule = time.Now()
	}

	var nextIndex int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(index1), 0) + 1 FROM registrations`,
	).Scan(&nextIndex); err != nil {
		return fmt.Errorf("failed to compute queue position: %w", err)
	}

	registrationID := uuid.New().String()
	timeIn := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO registrations (id, address, index1, name, schedule, status, time_in, type, uid, queue_id, category_id)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8, $9, $10)
	`, registrationID, inv.QueueAddress, nextIndex, inv.InvitedUserDisplayName,
		schedule, timeIn, inv.CategoryName, userID, inv.QueueID, inv.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(notifications.Event{
			ID:     registrationID,
			Name:   inv.InvitedUserDisplayName,
			Type:   inv.CategoryName,
			TimeIn: &timeIn,
		})
	}

	utils.LogInvitationAction("accepted", invitationID, inv.InvitedEmail)
	return nil
}

// Reject transitions the invitation to rejected. The row is kept; nothing
// in this system deletes invitations.
func (s *InvitationService) Reject(ctx context.Context, invitationID, userID string) error {
	inv, err := s.claim(ctx, invitationID, userID, models.InvitationRejected)
	if err != nil {
		return err
	}
	utils.LogInvitationAction("rejected", invitationID, inv.InvitedEmail)
	return nil
}

// claim loads a pending invitation addressed to the user and applies the
// status transition atomically.
func (s *InvitationService) claim(ctx context.Context, invitationID, userID, newStatus string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.QueryRowContext(ctx, `
		UPDATE invitations
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND invited_user_id = $3 AND status = $4
		RETURNING id, category_id, category_name, invited_email, invited_user_display_name,
		          queue_id, queue_name, queue_address
	`, newStatus, invitationID, userID, models.InvitationPending).Scan(
		&inv.ID, &inv.CategoryID, &inv.CategoryName, &inv.InvitedEmail,
		&inv.InvitedUserDisplayName, &inv.QueueID, &inv.QueueName, &inv.QueueAddress,
	)
	if err == sql.ErrNoRows {
		// Either it never existed, belongs to someone else, or was already
		// accepted/rejected. Disambiguate for the handler.
		var status string
		lookupErr := s.db.QueryRowContext(ctx,
			`SELECT status FROM invitations WHERE id = $1 AND invited_user_id = $2`,
			invitationID, userID).Scan(&status)
		if lookupErr == nil && status != models.InvitationPending {
			return nil, ErrInvitationHandled
		}
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	return &inv, nil
}

// SweepStalePending rejects pending invitations older than maxAge. Runs on
// a ticker from main; invitations are never deleted, only transitioned.
func (s *InvitationService) SweepStalePending(ctx context.Context, maxAge time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invitations
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < NOW() - $3::interval
	`, models.InvitationRejected, models.InvitationPending,
		fmt.Sprintf("%d seconds", int64(maxAge.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep invitations: %w", err)
	}
	return result.RowsAffected()
}
