package postgres

import (
	"context"
	"time"

	"travelbuddy/internal/domain"
)

// CreateContactMessage stores a contact message.
func (d *DB) CreateContactMessage(ctx context.Context, m domain.ContactMessage) (int64, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO contact_messages(full_name, email, message, created_at) VALUES($1, $2, $3, $4) RETURNING id;",
		m.FullName, m.Email, m.Message, m.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// ListTravelOptions returns the travel options matching f. Empty filter
// fields match everything; comparisons ignore case.
func (d *DB) ListTravelOptions(ctx context.Context, f domain.TravelFilter) ([]domain.TravelOption, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, type, source, destination, departs_at, price_cents, available_seats FROM travel_options
		WHERE ($1 = '' OR lower(type) = lower($1))
		  AND ($2 = '' OR lower(source) = lower($2))
		  AND ($3 = '' OR lower(destination) = lower($3))
		ORDER BY departs_at ASC;`,
		f.Type, f.Source, f.Destination)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.TravelOption, 0)
	for rows.Next() {
		var o domain.TravelOption
		if err := rows.Scan(&o.ID, &o.Type, &o.Source, &o.Destination, &o.DepartsAt, &o.PriceCents, &o.AvailableSeats); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
