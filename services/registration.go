package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/notifications"
	"github.com/queuev/queuev-api/utils"
)

var (
	ErrQueueNotFound    = errors.New("queue not found")
	ErrQueueExpired     = errors.New("queue is no longer accepting registrations")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryFull     = errors.New("category limit reached")
)

type RegistrationService struct {
	db        *sql.DB
	publisher EventPublisher
}

func NewRegistrationService(db *sql.DB, publisher EventPublisher) *RegistrationService {
	return &RegistrationService{db: db, publisher: publisher}
}

// CheckIn registers a walk-in who scanned the queue's QR code. The code is
// valid until the queue's expiration; the category's capacity limit is
// enforced at check-in time.
func (s *RegistrationService) CheckIn(ctx context.Context, req models.CheckInRequest, userID string) (*models.Registration, error) {
	var address, expiration, dateTime string
	err := s.db.QueryRowContext(ctx,
		`SELECT address, expiration, date_time FROM queues WHERE queue_id = $1`, req.QueueID,
	).Scan(&address, &expiration, &dateTime)
	if err == sql.ErrNoRows {
		return nil, ErrQueueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up queue: %w", err)
	}

	if exp, err := time.Parse(time.RFC3339, expiration); err == nil && time.Now().After(exp) {
		return nil, ErrQueueExpired
	}

	schedule := time.Now()
	if parsed, err := time.Parse(time.RFC3339, dateTime); err == nil {
		schedule = parsed
	}

	timeIn := time.Now()
	reg := &models.Registration{
		ID:       uuid.New().String(),
		Address:  address,
		Name:     req.Name,
		Schedule: &schedule,
		Status:   "pending",
		TimeIn:   &timeIn,
		Type:     req.Category,
		UID:      userID,
		QueueID:  req.QueueID,
	}

	// The category row is locked for the duration of the transaction, so
	// two check-ins racing at the capacity boundary serialize and the
	// second one sees the first one's row in the count.
	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		var limitStr string
		err := tx.QueryRowContext(ctx,
			`SELECT category_id, "limit" FROM categories WHERE queue_id = $1 AND name = $2 FOR UPDATE`,
			req.QueueID, req.Category,
		).Scan(&reg.CategoryID, &limitStr)
		if err == sql.ErrNoRows {
			return ErrCategoryNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to look up category: %w", err)
		}

		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			var count int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM registrations WHERE queue_id = $1 AND type = $2`,
				req.QueueID, req.Category,
			).Scan(&count); err != nil {
				return fmt.Errorf("failed to count registrations: %w", err)
			}
			if count >= limit {
				return ErrCategoryFull
			}
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(index1), 0) + 1 FROM registrations`,
		).Scan(&reg.Index1); err != nil {
			return fmt.Errorf("failed to compute queue position: %w", err)
		}

		var uid interface{}
		if userID != "" {
			uid = userID
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO registrations (id, address, index1, name, schedule, status, time_in, type, uid, queue_id, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, reg.ID, reg.Address, reg.Index1, reg.Name, reg.Schedule, reg.Status,
			reg.TimeIn, reg.Type, uid, reg.QueueID, reg.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to insert registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(notifications.Event{
			ID:     reg.ID,
			Name:   reg.Name,
			Type:   reg.Type,
			TimeIn: reg.TimeIn,
		})
	}

	utils.LogQueueAction("check-in", req.QueueID, userID)
	return reg, nil
}

// List returns the flat registration list in queue order. Access filtering
// happens in the handler; this is deliberately the whole table, the way the
// listing screen consumes it.
func (s *RegistrationService) List(ctx context.Context) ([]models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, index1, name, schedule, status, time_in, type,
		       COALESCE(uid::text, ''), queue_id, category_id
		FROM registrations
		ORDER BY index1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	registrations := []models.Registration{}
	for rows.Next() {
		var r models.Registration
		if err := rows.Scan(&r.ID, &r.Address, &r.Index1, &r.Name, &r.Schedule,
			&r.Status, &r.TimeIn, &r.Type, &r.UID, &r.QueueID, &r.CategoryID); err != nil {
			return nil, err
		}
		registrations = append(registrations, r)
	}
	return registrations, rows.Err()
}

// Delete removes a registration row from the listing.
func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecentRegistrations backfills the notification aggregator with the most
// recent rows in their raw, legacy-named shape.
func (s *RegistrationService) RecentRegistrations(ctx context.Context, limit int) ([]notifications.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, time_in
		FROM registrations
		ORDER BY time_in DESC NULLS LAST
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent registrations: %w", err)
	}
	defer rows.Close()

	var events []notifications.Event
	for rows.Next() {
		var e notifications.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.TimeIn); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
