package config

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func InitDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			username VARCHAR(255) DEFAULT '',
			photo_url TEXT DEFAULT '',
			birthday VARCHAR(64) DEFAULT '',
			address TEXT DEFAULT '',
			phone VARCHAR(64) DEFAULT '',
			totp_secret VARCHAR(255),
			totp_enabled BOOLEAN DEFAULT FALSE,
			last_login TIMESTAMP DEFAULT NOW(),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		// Queue ids come from the QR payload generator, not the database.
		`CREATE TABLE IF NOT EXISTS queues (
			queue_id VARCHAR(64) PRIMARY KEY,
			queue_name VARCHAR(255) NOT NULL,
			address TEXT NOT NULL,
			date_time VARCHAR(64) NOT NULL,
			expiration VARCHAR(64) NOT NULL,
			break_time_from VARCHAR(32) DEFAULT '',
			break_time_to VARCHAR(32) DEFAULT '',
			notes TEXT DEFAULT '',
			form_columns JSONB NOT NULL DEFAULT '["FULL NAME"]',
			created_by UUID REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			category_id VARCHAR(320) PRIMARY KEY,
			queue_id VARCHAR(64) REFERENCES queues(queue_id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			"limit" VARCHAR(16) DEFAULT '10',
			time_limit VARCHAR(32) DEFAULT '5',
			invited_staff JSONB NOT NULL DEFAULT '[]',
			notes TEXT DEFAULT '',
			users_list JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS invitations (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			category_id VARCHAR(320) NOT NULL,
			category_name VARCHAR(255) NOT NULL,
			category_limit VARCHAR(16) DEFAULT '',
			category_time_limit VARCHAR(32) DEFAULT '',
			invited_email VARCHAR(255) NOT NULL,
			invited_user_id UUID,
			invited_user_display_name VARCHAR(255) DEFAULT '',
			inviter_user_id UUID REFERENCES users(id),
			inviter_email VARCHAR(255) DEFAULT '',
			queue_id VARCHAR(64) NOT NULL,
			queue_name VARCHAR(255) DEFAULT '',
			queue_address TEXT DEFAULT '',
			status VARCHAR(50) DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		// Registrations keep the legacy column names (index1, time_in, type)
		// because older clients still read this table through the compat API.
		`CREATE TABLE IF NOT EXISTS registrations (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			address TEXT DEFAULT '',
			index1 INTEGER NOT NULL DEFAULT 0,
			name VARCHAR(255) NOT NULL,
			schedule TIMESTAMP,
			status VARCHAR(50) DEFAULT 'pending',
			time_in TIMESTAMP DEFAULT NOW(),
			type VARCHAR(255) NOT NULL,
			uid UUID,
			queue_id VARCHAR(64) NOT NULL,
			category_id VARCHAR(320) DEFAULT '',
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS password_resets (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			token VARCHAR(128) UNIQUE NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			refresh_token VARCHAR(500) UNIQUE NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_queues_created_by ON queues(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_queue_id ON categories(queue_id)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_invited_staff ON categories USING GIN(invited_staff)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_invited_user_id ON invitations(invited_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_invited_email ON invitations(invited_email)`,
		`CREATE INDEX IF NOT EXISTS idx_registrations_queue_id ON registrations(queue_id)`,
		`CREATE INDEX IF NOT EXISTS idx_registrations_type ON registrations(type)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
