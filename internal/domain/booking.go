package domain

import (
	"context"
	"time"
)

// Booking statuses written by the application. Status is free text: a
// booking form may submit any value.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "Cancelled"
)

// Booking is a seat reservation request for a transport leg, owned by one
// user. It is not linked to any TravelOption.
type Booking struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	TransportType string    `json:"transportType"`
	FromStation   string    `json:"fromStation"`
	ToStation     string    `json:"toStation"`
	JourneyDate   time.Time `json:"journeyDate"`
	Seats         int       `json:"seats"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Cancelled reports whether the booking has been cancelled.
func (b Booking) Cancelled() bool {
	return b.Status == StatusCancelled
}

// BookingRepository is the port for booking persistence.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) (int64, error)
	// GetBooking returns (nil, nil) when the id is unknown.
	GetBooking(ctx context.Context, id int64) (*Booking, error)
	// ListBookingsByOwner orders by journey date, latest first. Order among
	// equal dates is unspecified.
	ListBookingsByOwner(ctx context.Context, userID int64) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
}

// Booking event types.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking is written.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  int64     `json:"bookingId"`
	UserID     int64     `json:"userId"`
	Transport  string    `json:"transport"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Journey    string    `json:"journeyDate"`
	Seats      int       `json:"seats"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewBookingEvent builds an event of the given type from b.
func NewBookingEvent(eventType string, b Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		Transport:  b.TransportType,
		From:       b.FromStation,
		To:         b.ToStation,
		Journey:    b.JourneyDate.Format(DateLayout),
		Seats:      b.Seats,
		Status:     b.Status,
		OccurredAt: at.UTC(),
	}
}

// BookingEventPublisher delivers booking events to downstream consumers.
type BookingEventPublisher interface {
	PublishBookingEvent(ctx context.Context, e BookingEvent) error
}

// DateLayout is the calendar date format used for journey dates.
const DateLayout = "2006-01-02"
