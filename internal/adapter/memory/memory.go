// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"travelbuddy/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	users    []*domain.User
	profiles map[int64]domain.Profile
	sessions map[string]*domain.Session
	bookings []domain.Booking
	contacts []domain.ContactMessage
	options  []domain.TravelOption

	userIDCounter    int64
	bookingIDCounter int64
	contactIDCounter int64
	optionIDCounter  int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		profiles: make(map[int64]domain.Profile),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.BookingRepository = (*DB)(nil)
var _ domain.ContactRepository = (*DB)(nil)
var _ domain.TravelOptionRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByUsername retrieves the first user with the given username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create creates a new user. Emails are unique.
func (db *DB) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return nil, domain.ErrEmailTaken
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// DeleteUser removes a user. The application never deletes users; this
// exists so stale sessions can be exercised.
func (db *DB) DeleteUser(id int64) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, u := range db.users {
		if u.ID == id {
			db.users = append(db.users[:i], db.users[i+1:]...)
			return
		}
	}
}

// --- ProfileRepository ---

// GetProfile returns the profile of userID, if any.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// PutProfile stores or replaces a profile.
func (db *DB) PutProfile(p domain.Profile) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.profiles[p.UserID] = p
}

// --- BookingRepository ---

// CreateBooking stores a booking and returns its ID.
func (db *DB) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.bookingIDCounter++
	b.ID = db.bookingIDCounter
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	db.bookings = append(db.bookings, b)
	return b.ID, nil
}

// GetBooking retrieves a booking by ID.
func (db *DB) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, b := range db.bookings {
		if b.ID == id {
			c := b
			return &c, nil
		}
	}
	return nil, nil
}

// ListBookingsByOwner lists a user's bookings, latest journey date first.
func (db *DB) ListBookingsByOwner(ctx context.Context, userID int64) ([]domain.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.Booking, 0)
	for _, b := range db.bookings {
		if b.UserID == userID {
			result = append(result, b)
		}
	}

	// sort desc
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].JourneyDate.After(result[j].JourneyDate)
	})
	return result, nil
}

// UpdateBookingStatus sets the status of a booking. Unknown IDs are ignored.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.bookings {
		if db.bookings[i].ID == id {
			db.bookings[i].Status = status
			return nil
		}
	}
	return nil
}

// BookingCount returns the number of stored bookings.
func (db *DB) BookingCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.bookings)
}

// --- ContactRepository ---

// CreateContactMessage stores a contact message.
func (db *DB) CreateContactMessage(ctx context.Context, m domain.ContactMessage) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.contactIDCounter++
	m.ID = db.contactIDCounter
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	db.contacts = append(db.contacts, m)
	return m.ID, nil
}

// ContactMessages returns a copy of the stored contact messages.
func (db *DB) ContactMessages() []domain.ContactMessage {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.ContactMessage, len(db.contacts))
	copy(out, db.contacts)
	return out
}

// --- TravelOptionRepository ---

// AddTravelOption stores a travel option and returns its ID.
func (db *DB) AddTravelOption(o domain.TravelOption) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.optionIDCounter++
	o.ID = db.optionIDCounter
	db.options = append(db.options, o)
	return o.ID
}

// ListTravelOptions lists the travel options matching f.
func (db *DB) ListTravelOptions(ctx context.Context, f domain.TravelFilter) ([]domain.TravelOption, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.TravelOption, 0, len(db.options))
	for _, o := range db.options {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.db.sessions[s.Token] = &s
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}

// SessionCount returns the number of stored sessions.
func (r *SessionRepo) SessionCount() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.sessions)
}
