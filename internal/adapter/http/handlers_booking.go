package adapthttp

import (
	"net/http"

	"travelbuddy/internal/app"
	"travelbuddy/internal/domain"
)

// handleHome serves the landing page. The travel search may arrive as a
// query string (GET) or a form post.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	filter := domain.TravelFilter{
		Type:        formValue(r, "type"),
		Source:      formValue(r, "source"),
		Destination: formValue(r, "destination"),
	}
	res, err := s.site.Home(r.Context(), sessionToken(r), filter)
	s.respond(w, r, res, err)
}

func (s *Server) handleBookPage(w http.ResponseWriter, r *http.Request) {
	res, err := s.site.BookPage(r.Context(), sessionToken(r))
	s.respond(w, r, res, err)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	res, err := s.site.Book(r.Context(), sessionToken(r), app.BookingForm{
		TransportType: formValue(r, "transport_type"),
		FromStation:   formValue(r, "from_station"),
		ToStation:     formValue(r, "to_station"),
		JourneyDate:   formValue(r, "journey_date"),
		Seats:         formValue(r, "seats"),
		Status:        formValue(r, "status"),
	})
	s.respond(w, r, res, err)
}

func (s *Server) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	res, err := s.site.MyBookings(r.Context(), sessionToken(r))
	s.respond(w, r, res, err)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	res, err := s.site.CancelBooking(r.Context(), sessionToken(r), r.PathValue("id"))
	s.respond(w, r, res, err)
}
