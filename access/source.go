package access

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLSource answers the two access queries from Postgres.
type SQLSource struct {
	DB *sql.DB
}

func (s *SQLSource) CreatedCategoryNames(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.name
		FROM categories c
		INNER JOIN queues q ON c.queue_id = q.queue_id
		WHERE q.created_by = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query created categories: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

func (s *SQLSource) InvitedCategoryNames(ctx context.Context, email string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT name
		FROM categories
		WHERE invited_staff @> jsonb_build_array($1::text)
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query invited categories: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
