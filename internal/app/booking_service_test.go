package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelbuddy/internal/app"
	"travelbuddy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBookingRepo struct {
	createFn func(ctx context.Context, b domain.Booking) (int64, error)
	getFn    func(ctx context.Context, id int64) (*domain.Booking, error)
	listFn   func(ctx context.Context, userID int64) ([]domain.Booking, error)
	updateFn func(ctx context.Context, id int64, status string) error
}

func (m *mockBookingRepo) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, b)
	}
	return 1, nil
}

func (m *mockBookingRepo) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepo) ListBookingsByOwner(ctx context.Context, userID int64) ([]domain.Booking, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBookingRepo) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, status)
	}
	return nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishBookingEvent(ctx context.Context, e domain.BookingEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func TestBook_InvalidJourneyDate(t *testing.T) {
	writes := 0
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, b domain.Booking) (int64, error) {
			writes++
			return 1, nil
		},
	}
	svc := app.NewBookingService(repo)

	tests := []struct {
		name string
		date string
	}{
		{"not a date", "not-a-date"},
		{"empty", ""},
		{"impossible day", "2025-02-30"},
		{"wrong order", "09-03-2025"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), 1, app.BookingForm{TransportType: "Bus", JourneyDate: tc.date})
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Equal(t, "Invalid journey date", domain.MessageOf(err))
		})
	}
	assert.Zero(t, writes, "no booking may be written")
}

func TestBook_Defaults(t *testing.T) {
	var stored domain.Booking
	repo := &mockBookingRepo{
		createFn: func(ctx context.Context, b domain.Booking) (int64, error) {
			stored = b
			return 42, nil
		},
	}
	svc := app.NewBookingService(repo)

	b, err := svc.Book(context.Background(), 7, app.BookingForm{
		TransportType: "Train",
		FromStation:   "Delhi",
		ToStation:     "Agra",
		JourneyDate:   "2025-3-9",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), b.ID)
	assert.Equal(t, int64(7), stored.UserID)
	assert.Equal(t, 1, stored.Seats)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), stored.JourneyDate)
}

func TestBook_SeatsAndStatusFromForm(t *testing.T) {
	svc := app.NewBookingService(&mockBookingRepo{})

	b, err := svc.Book(context.Background(), 1, app.BookingForm{
		TransportType: "Flight",
		JourneyDate:   "2025-12-01",
		Seats:         "250",
		Status:        "pending",
	})
	require.NoError(t, err)
	assert.Equal(t, 250, b.Seats, "seat counts are not bounded")
	assert.Equal(t, "pending", b.Status)

	_, err = svc.Book(context.Background(), 1, app.BookingForm{JourneyDate: "2025-12-01", Seats: "two"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestBook_SeatsMustFitColumn(t *testing.T) {
	writes := 0
	svc := app.NewBookingService(&mockBookingRepo{
		createFn: func(ctx context.Context, b domain.Booking) (int64, error) {
			writes++
			return 1, nil
		},
	})

	b, err := svc.Book(context.Background(), 1, app.BookingForm{JourneyDate: "2025-12-01", Seats: "2147483647"})
	require.NoError(t, err)
	assert.Equal(t, 2147483647, b.Seats)

	for _, seats := range []string{"3000000000", "-3000000000"} {
		_, err = svc.Book(context.Background(), 1, app.BookingForm{JourneyDate: "2025-12-01", Seats: seats})
		require.Error(t, err, seats)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		assert.Equal(t, "Invalid number of seats", domain.MessageOf(err))
	}
	assert.Equal(t, 1, writes, "out-of-range seats must not be written")
}

func TestBook_PublishesEvent(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishBookingEvent", mock.Anything, mock.MatchedBy(func(e domain.BookingEvent) bool {
		return e.Type == domain.EventBookingCreated && e.BookingID == 1 && e.Journey == "2025-06-01"
	})).Return(nil).Once()

	svc := app.NewBookingService(&mockBookingRepo{}, app.WithBookingEvents(pub))
	_, err := svc.Book(context.Background(), 1, app.BookingForm{TransportType: "Bus", JourneyDate: "2025-06-01"})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestBook_PublishFailureDoesNotFailBooking(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishBookingEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := app.NewBookingService(&mockBookingRepo{}, app.WithBookingEvents(pub))
	b, err := svc.Book(context.Background(), 1, app.BookingForm{TransportType: "Bus", JourneyDate: "2025-06-01"})
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestCancel(t *testing.T) {
	owned := func() *domain.Booking {
		return &domain.Booking{ID: 5, UserID: 1, Status: domain.StatusConfirmed}
	}

	t.Run("owner cancels", func(t *testing.T) {
		var updated string
		repo := &mockBookingRepo{
			getFn: func(ctx context.Context, id int64) (*domain.Booking, error) { return owned(), nil },
			updateFn: func(ctx context.Context, id int64, status string) error {
				updated = status
				return nil
			},
		}
		pub := &mockPublisher{}
		pub.On("PublishBookingEvent", mock.Anything, mock.MatchedBy(func(e domain.BookingEvent) bool {
			return e.Type == domain.EventBookingCancelled && e.Status == domain.StatusCancelled
		})).Return(nil).Once()

		b, err := app.NewBookingService(repo, app.WithBookingEvents(pub)).Cancel(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, b.Status)
		assert.Equal(t, domain.StatusCancelled, updated)
		pub.AssertExpectations(t)
	})

	t.Run("already cancelled is idempotent", func(t *testing.T) {
		repo := &mockBookingRepo{
			getFn: func(ctx context.Context, id int64) (*domain.Booking, error) {
				b := owned()
				b.Status = domain.StatusCancelled
				return b, nil
			},
			updateFn: func(ctx context.Context, id int64, status string) error {
				t.Error("did not expect an update")
				return nil
			},
		}
		b, err := app.NewBookingService(repo).Cancel(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, b.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := app.NewBookingService(&mockBookingRepo{}).Cancel(context.Background(), 1, 404)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("other owner", func(t *testing.T) {
		repo := &mockBookingRepo{
			getFn: func(ctx context.Context, id int64) (*domain.Booking, error) { return owned(), nil },
		}
		_, err := app.NewBookingService(repo).Cancel(context.Background(), 2, 5)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &mockBookingRepo{
			getFn: func(ctx context.Context, id int64) (*domain.Booking, error) { return nil, errors.New("db down") },
		}
		_, err := app.NewBookingService(repo).Cancel(context.Background(), 1, 5)
		require.Error(t, err)
		assert.Empty(t, domain.KindOf(err))
	})
}

func TestParseJourneyDate(t *testing.T) {
	d, err := app.ParseJourneyDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.Format(domain.DateLayout))

	_, err = app.ParseJourneyDate("2023-02-29")
	assert.Error(t, err)
}
