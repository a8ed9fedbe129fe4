package postgres

import (
	"context"
	"database/sql"
	"time"

	"travelbuddy/internal/domain"
)

const bookingColumns = "id, user_id, transport_type, from_station, to_station, journey_date, seats, status, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.TransportType, &b.FromStation, &b.ToStation, &b.JourneyDate, &b.Seats, &b.Status, &b.CreatedAt)
	b.JourneyDate = b.JourneyDate.UTC()
	return b, err
}

// CreateBooking inserts a booking and returns its ID.
func (d *DB) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO bookings(user_id, transport_type, from_station, to_station, journey_date, seats, status, created_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id;",
		b.UserID, b.TransportType, b.FromStation, b.ToStation, b.JourneyDate.Format(domain.DateLayout), b.Seats, b.Status, b.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// GetBooking retrieves a booking by ID.
func (d *DB) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(d.sql.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=$1;", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBookingsByOwner returns a user's bookings, latest journey date first.
func (d *DB) ListBookingsByOwner(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id=$1 ORDER BY journey_date DESC, id ASC;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBookingStatus sets the status of a booking.
func (d *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	_, err := d.sql.ExecContext(ctx, "UPDATE bookings SET status=$1 WHERE id=$2;", status, id)
	return err
}
