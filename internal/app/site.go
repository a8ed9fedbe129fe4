package app

import (
	"context"
	"errors"
	"strconv"

	"travelbuddy/internal/domain"
)

const (
	msgContactSent      = "Your message has been sent successfully!"
	msgBookingCancelled = "Booking cancelled."
)

// RegisterForm carries the raw registration form fields.
type RegisterForm struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginForm carries the raw login form fields.
type LoginForm struct {
	Email    string
	Password string
	Remember bool
}

// Site implements the user-facing flows. Every flow receives the caller's
// session token explicitly and returns a Result; the returned error is
// reserved for infrastructure failures.
type Site struct {
	auth     *AuthService
	bookings *BookingService
	contact  *ContactService
	travel   *TravelService
	profiles domain.ProfileRepository
}

// NewSite wires the flows to the application services. profiles may be nil.
func NewSite(auth *AuthService, bookings *BookingService, contact *ContactService, travel *TravelService, profiles domain.ProfileRepository) *Site {
	return &Site{auth: auth, bookings: bookings, contact: contact, travel: travel, profiles: profiles}
}

// identify resolves the session. When the session is missing, expired or
// points at a deleted user, it returns a redirect to login that also clears
// the session.
func (s *Site) identify(ctx context.Context, token string) (*domain.User, *Result, error) {
	user, err := s.auth.ValidateSession(ctx, token)
	switch {
	case err == nil:
		return user, nil, nil
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired), errors.Is(err, ErrUserNotFound):
		r := Redirect(RouteLogin)
		r.ClearSession = token != ""
		return nil, &r, nil
	default:
		return nil, nil, err
	}
}

// Home renders the signed-in landing page with the travel options matching f.
func (s *Site) Home(ctx context.Context, token string, f domain.TravelFilter) (Result, error) {
	user, gate, err := s.identify(ctx, token)
	if gate != nil || err != nil {
		return deref(gate), err
	}

	options, err := s.travel.Search(ctx, f)
	if err != nil {
		return Result{}, err
	}

	var profile *domain.Profile
	if s.profiles != nil {
		if profile, err = s.profiles.GetProfile(ctx, user.ID); err != nil {
			return Result{}, err
		}
	}

	return Render(PageHome, map[string]any{
		"User":        user,
		"Profile":     profile,
		"Options":     options,
		"Filter":      f,
		"TravelTypes": domain.TravelTypes,
	}), nil
}

// RegisterPage renders the empty registration form.
func (s *Site) RegisterPage() Result {
	return Render(PageRegister, nil)
}

// Register creates an identity and redirects home.
func (s *Site) Register(ctx context.Context, f RegisterForm) (Result, error) {
	_, err := s.auth.Register(ctx, f.Username, f.Email, f.Password, f.ConfirmPassword)
	if err != nil {
		if domain.KindOf(err) != "" {
			return Fail(PageRegister, err, map[string]any{
				"Username": f.Username,
				"Email":    f.Email,
			}), nil
		}
		return Result{}, err
	}
	return Redirect(RouteHome), nil
}

// LoginPage renders the empty login form.
func (s *Site) LoginPage() Result {
	return Render(PageLogin, nil)
}

// Login authenticates and grants a session.
func (s *Site) Login(ctx context.Context, f LoginForm) (Result, error) {
	grant, err := s.auth.Login(ctx, f.Email, f.Password, f.Remember)
	if err != nil {
		if domain.KindOf(err) != "" {
			return Fail(PageLogin, err, map[string]any{"Email": f.Email}), nil
		}
		return Result{}, err
	}
	r := Redirect(RouteHome)
	r.Grant = grant
	return r, nil
}

// SSOLogin grants a session to a user already verified by an identity
// provider.
func (s *Site) SSOLogin(ctx context.Context, email string) (Result, error) {
	grant, err := s.auth.LoginWithEmail(ctx, email)
	if err != nil {
		if domain.KindOf(err) != "" {
			return Fail(PageLogin, err, nil), nil
		}
		return Result{}, err
	}
	r := Redirect(RouteHome)
	r.Grant = grant
	return r, nil
}

// ForwardLogin grants a session to a user identified by an authenticating
// reverse proxy. The transport carries the returned token like any other.
func (s *Site) ForwardLogin(ctx context.Context, email string) (*SessionGrant, error) {
	return s.auth.LoginWithEmail(ctx, email)
}

// Logout clears the session whether or not one exists.
func (s *Site) Logout(ctx context.Context, token string) (Result, error) {
	if err := s.auth.Logout(ctx, token); err != nil {
		return Result{}, err
	}
	r := Redirect(RouteLogin)
	r.ClearSession = true
	return r, nil
}

// BookPage renders the empty booking form.
func (s *Site) BookPage(ctx context.Context, token string) (Result, error) {
	user, gate, err := s.identify(ctx, token)
	if gate != nil || err != nil {
		return deref(gate), err
	}
	return Render(PageBook, map[string]any{"User": user, "TravelTypes": domain.TravelTypes}), nil
}

// Book creates a booking and renders the confirmation in place.
func (s *Site) Book(ctx context.Context, token string, f BookingForm) (Result, error) {
	user, gate, err := s.identify(ctx, token)
	if gate != nil || err != nil {
		return deref(gate), err
	}

	data := map[string]any{"User": user, "TravelTypes": domain.TravelTypes}
	b, err := s.bookings.Book(ctx, user.ID, f)
	if err != nil {
		if domain.KindOf(err) != "" {
			data["Form"] = f
			return Fail(PageBook, err, data), nil
		}
		return Result{}, err
	}

	data["Booking"] = b
	data["Success"] = b.TransportType + " ticket booked successfully!"
	return Render(PageBook, data), nil
}

// MyBookings lists the caller's bookings, latest journey first.
func (s *Site) MyBookings(ctx context.Context, token string) (Result, error) {
	user, gate, err := s.identify(ctx, token)
	if gate != nil || err != nil {
		return deref(gate), err
	}
	bookings, err := s.bookings.ListForOwner(ctx, user.ID)
	if err != nil {
		return Result{}, err
	}
	return Render(PageMyBookings, map[string]any{"User": user, "Bookings": bookings}), nil
}

// CancelBooking cancels one of the caller's bookings. Ownership is checked
// against the session identity.
func (s *Site) CancelBooking(ctx context.Context, token, bookingID string) (Result, error) {
	user, gate, err := s.identify(ctx, token)
	if gate != nil || err != nil {
		return deref(gate), err
	}

	id, err := strconv.ParseInt(bookingID, 10, 64)
	if err != nil {
		return Fail(PageNotFound, domain.NotFound(msgBookingNotFound), nil), nil
	}
	if _, err := s.bookings.Cancel(ctx, user.ID, id); err != nil {
		if domain.KindOf(err) != "" {
			return Fail(PageNotFound, err, nil), nil
		}
		return Result{}, err
	}

	r := Redirect(RouteMyBookings)
	r.Flash = msgBookingCancelled
	return r, nil
}

// ContactPage renders the empty contact form.
func (s *Site) ContactPage() Result {
	return Render(PageContact, nil)
}

// Contact stores the submission and redirects back with a notice.
func (s *Site) Contact(ctx context.Context, f ContactForm) (Result, error) {
	if _, err := s.contact.Submit(ctx, f); err != nil {
		return Result{}, err
	}
	r := Redirect(RouteContact)
	r.Flash = msgContactSent
	return r, nil
}

func deref(r *Result) Result {
	if r == nil {
		return Result{}
	}
	return *r
}
