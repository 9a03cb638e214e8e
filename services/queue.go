package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/utils"
)

type QueueService struct {
	db *sql.DB
}

func NewQueueService(db *sql.DB) *QueueService {
	return &QueueService{db: db}
}

// CreateQueue persists a finalized draft: the queue row plus one category
// row per draft category, in a single transaction. It assigns the queue id
// and the derived category ids and returns the stored shape.
func (s *QueueService) CreateQueue(ctx context.Context, q models.Queue) (models.Queue, error) {
	if q.QueueID == "" {
		q.QueueID = utils.NewQueueID()
	}
	q.CreatedAt = time.Now().Format(time.RFC3339)

	formColumns, err := json.Marshal(q.FormColumns)
	if err != nil {
		return models.Queue{}, fmt.Errorf("failed to encode form columns: %w", err)
	}

	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO queues (queue_id, queue_name, address, date_time, expiration,
			                    break_time_from, break_time_to, notes, form_columns, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		if _, err := tx.ExecContext(ctx, query,
			q.QueueID, q.QueueName, q.Address, q.DateTime, q.Expiration,
			q.BreakTimeFrom, q.BreakTimeTo, q.Notes, formColumns, q.CreatedBy); err != nil {
			return fmt.Errorf("failed to insert queue: %w", err)
		}

		for i := range q.Categories {
			category := &q.Categories[i]
			category.CategoryID = utils.CategoryID(q.QueueID, category.Name)
			category.QueueID = q.QueueID

			invitedStaff, err := json.Marshal(nonNil(category.InvitedStaff))
			if err != nil {
				return fmt.Errorf("failed to encode invited staff: %w", err)
			}

			categoryQuery := `
				INSERT INTO categories (category_id, queue_id, name, "limit", time_limit, invited_staff, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`
			if _, err := tx.ExecContext(ctx, categoryQuery,
				category.CategoryID, q.QueueID, category.Name, category.Limit,
				category.TimeLimit, invitedStaff, category.Notes); err != nil {
				return fmt.Errorf("failed to insert category %q: %w", category.Name, err)
			}
		}

		return nil
	})
	if err != nil {
		return models.Queue{}, err
	}

	return q, nil
}

// GetByID returns a queue with its categories, or nil when absent.
func (s *QueueService) GetByID(ctx context.Context, queueID string) (*models.Queue, error) {
	var q models.Queue
	var formColumns []byte
	var createdAt time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT queue_id, queue_name, address, date_time, expiration,
		       break_time_from, break_time_to, notes, form_columns, created_by, created_at
		FROM queues
		WHERE queue_id = $1
	`, queueID).Scan(
		&q.QueueID, &q.QueueName, &q.Address, &q.DateTime, &q.Expiration,
		&q.BreakTimeFrom, &q.BreakTimeTo, &q.Notes, &formColumns, &q.CreatedBy, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}

	if err := json.Unmarshal(formColumns, &q.FormColumns); err != nil {
		return nil, fmt.Errorf("failed to decode form columns: %w", err)
	}
	q.CreatedAt = createdAt.Format(time.RFC3339)

	categories, err := s.categoriesForQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}
	q.Categories = categories

	return &q, nil
}

// GetUserQueues returns the queues a user created, newest first, each with
// its categories.
func (s *QueueService) GetUserQueues(ctx context.Context, userID string) ([]models.Queue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT queue_id, queue_name, address, date_time, expiration,
		       break_time_from, break_time_to, notes, form_columns, created_by, created_at
		FROM queues
		WHERE created_by = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user queues: %w", err)
	}
	defer rows.Close()

	var queues []models.Queue
	for rows.Next() {
		var q models.Queue
		var formColumns []byte
		var createdAt time.Time
		if err := rows.Scan(
			&q.QueueID, &q.QueueName, &q.Address, &q.DateTime, &q.Expiration,
			&q.BreakTimeFrom, &q.BreakTimeTo, &q.Notes, &formColumns, &q.CreatedBy, &createdAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(formColumns, &q.FormColumns); err != nil {
			return nil, fmt.Errorf("failed to decode form columns: %w", err)
		}
		q.CreatedAt = createdAt.Format(time.RFC3339)
		queues = append(queues, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range queues {
		categories, err := s.categoriesForQueue(ctx, queues[i].QueueID)
		if err != nil {
			return nil, err
		}
		queues[i].Categories = categories
	}

	return queues, nil
}

// DeleteQueue removes a queue the user owns; categories cascade.
func (s *QueueService) DeleteQueue(ctx context.Context, queueID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM queues WHERE queue_id = $1 AND created_by = $2`, queueID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete queue: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *QueueService) categoriesForQueue(ctx context.Context, queueID string) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, queue_id, name, "limit", time_limit, invited_staff, notes, users_list
		FROM categories
		WHERE queue_id = $1
		ORDER BY created_at
	`, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		var invitedStaff, usersList []byte
		if err := rows.Scan(&c.CategoryID, &c.QueueID, &c.Name, &c.Limit,
			&c.TimeLimit, &invitedStaff, &c.Notes, &usersList); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(invitedStaff, &c.InvitedStaff); err != nil {
			return nil, fmt.Errorf("failed to decode invited staff: %w", err)
		}
		if err := json.Unmarshal(usersList, &c.UsersList); err != nil {
			return nil, fmt.Errorf("failed to decode users list: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
