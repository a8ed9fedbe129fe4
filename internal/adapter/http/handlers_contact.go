package adapthttp

import (
	"net/http"

	"travelbuddy/internal/app"
)

func (s *Server) handleContactPage(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.site.ContactPage(), nil)
}

// handleContact stores the message verbatim; fields are not trimmed.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	res, err := s.site.Contact(r.Context(), app.ContactForm{
		FullName: r.FormValue("fullname"),
		Email:    r.FormValue("email"),
		Message:  r.FormValue("message"),
	})
	s.respond(w, r, res, err)
}
