package app

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"travelbuddy/internal/domain"
)

const (
	msgInvalidJourneyDate = "Invalid journey date"
	msgInvalidSeats       = "Invalid number of seats"
	msgBookingNotFound    = "Booking not found"
)

// journeyDateLayout accepts one or two digit months and days.
const journeyDateLayout = "2006-1-2"

// BookingForm carries the raw booking form fields.
type BookingForm struct {
	TransportType string
	FromStation   string
	ToStation     string
	JourneyDate   string
	Seats         string
	Status        string
}

// BookingService encapsulates booking use cases.
type BookingService struct {
	repo   domain.BookingRepository
	events domain.BookingEventPublisher
	log    *slog.Logger
	now    func() time.Time
}

// BookingOption configures a BookingService.
type BookingOption func(*BookingService)

// WithBookingEvents publishes booking events to p after each write.
func WithBookingEvents(p domain.BookingEventPublisher) BookingOption {
	return func(s *BookingService) { s.events = p }
}

// WithBookingLogger sets the logger used for best-effort failures.
func WithBookingLogger(l *slog.Logger) BookingOption {
	return func(s *BookingService) { s.log = l }
}

// NewBookingService creates a BookingService backed by the given repository.
func NewBookingService(repo domain.BookingRepository, opts ...BookingOption) *BookingService {
	s := &BookingService{repo: repo, log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseJourneyDate parses a calendar date such as 2025-03-09.
func ParseJourneyDate(v string) (time.Time, error) {
	d, err := time.Parse(journeyDateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, domain.Validation(msgInvalidJourneyDate)
	}
	return d, nil
}

// parseSeats accepts values that fit the 32-bit seats column.
func parseSeats(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 1, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, domain.Validation(msgInvalidSeats)
	}
	return int(n), nil
}

// Book validates the form and stores a booking owned by userID. Seat counts
// are not checked against any travel option.
func (s *BookingService) Book(ctx context.Context, userID int64, f BookingForm) (*domain.Booking, error) {
	journey, err := ParseJourneyDate(f.JourneyDate)
	if err != nil {
		return nil, err
	}
	seats, err := parseSeats(f.Seats)
	if err != nil {
		return nil, err
	}
	status := f.Status
	if status == "" {
		status = domain.StatusConfirmed
	}

	b := domain.Booking{
		UserID:        userID,
		TransportType: f.TransportType,
		FromStation:   f.FromStation,
		ToStation:     f.ToStation,
		JourneyDate:   journey,
		Seats:         seats,
		Status:        status,
		CreatedAt:     s.now().UTC(),
	}
	id, err := s.repo.CreateBooking(ctx, b)
	if err != nil {
		return nil, err
	}
	b.ID = id

	s.publish(ctx, domain.EventBookingCreated, b)
	return &b, nil
}

// ListForOwner returns the bookings of userID, latest journey first.
func (s *BookingService) ListForOwner(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.repo.ListBookingsByOwner(ctx, userID)
}

// Cancel marks a booking owned by userID as cancelled. Unknown ids and
// bookings of other users are both reported as not found. Cancelling twice
// leaves the status unchanged.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID int64) (*domain.Booking, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil || b.UserID != userID {
		return nil, domain.NotFound(msgBookingNotFound)
	}
	if b.Cancelled() {
		return b, nil
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, domain.StatusCancelled); err != nil {
		return nil, err
	}
	b.Status = domain.StatusCancelled

	s.publish(ctx, domain.EventBookingCancelled, *b)
	return b, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, b domain.Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBookingEvent(ctx, domain.NewBookingEvent(eventType, b, s.now())); err != nil {
		s.log.Warn("publish booking event", "type", eventType, "booking_id", b.ID, "error", err)
	}
}
