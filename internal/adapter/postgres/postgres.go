// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"travelbuddy/internal/domain"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

var _ domain.UserRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.BookingRepository = (*DB)(nil)
var _ domain.ContactRepository = (*DB)(nil)
var _ domain.TravelOptionRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT NOT NULL, email TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL DEFAULT '', created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);",
		"CREATE TABLE IF NOT EXISTS profiles (user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE, phone TEXT NOT NULL DEFAULT '', address TEXT NOT NULL DEFAULT '');",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, persistent BOOLEAN NOT NULL DEFAULT FALSE, expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
		"CREATE TABLE IF NOT EXISTS travel_options (id BIGSERIAL PRIMARY KEY, type TEXT NOT NULL CHECK(type IN ('Flight','Train','Bus')), source TEXT NOT NULL, destination TEXT NOT NULL, departs_at TIMESTAMPTZ NOT NULL, price_cents BIGINT NOT NULL, available_seats INTEGER NOT NULL CHECK(available_seats >= 0));",
		"CREATE TABLE IF NOT EXISTS bookings (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, transport_type TEXT NOT NULL, from_station TEXT NOT NULL, to_station TEXT NOT NULL, journey_date DATE NOT NULL, seats INTEGER NOT NULL, status TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);",
		"CREATE TABLE IF NOT EXISTS contact_messages (id BIGSERIAL PRIMARY KEY, full_name TEXT NOT NULL, email TEXT NOT NULL, message TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var optionCount int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(1) FROM travel_options;").Scan(&optionCount); err != nil {
		return fmt.Errorf("migrate: count travel_options: %w", err)
	}
	if optionCount == 0 {
		seed := `INSERT INTO travel_options(type, source, destination, departs_at, price_cents, available_seats) VALUES
			('Flight', 'Delhi', 'Mumbai', now() + interval '1 day', 549900, 120),
			('Train', 'Delhi', 'Agra', now() + interval '1 day', 75000, 300),
			('Bus', 'Pune', 'Goa', now() + interval '2 days', 120000, 40),
			('Train', 'Chennai', 'Bengaluru', now() + interval '3 days', 65000, 250),
			('Flight', 'Kolkata', 'Delhi', now() + interval '4 days', 612500, 150);`
		if _, err := d.sql.ExecContext(ctx, seed); err != nil {
			return fmt.Errorf("migrate: seed travel_options: %w", err)
		}
	}
	return nil
}
