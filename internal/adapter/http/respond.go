package adapthttp

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"time"

	"travelbuddy/internal/app"
	"travelbuddy/internal/domain"

	"github.com/gorilla/csrf"
)

const (
	sessionCookie = "session"
	flashCookie   = "flash"
)

var errPageNotFound = domain.NotFound("Page not found")

// respond interprets a flow result: it applies the session directives and
// then renders a page or redirects. err is an infrastructure failure.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, res app.Result, err error) {
	if err != nil {
		s.logger().ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.renderPage(w, r, http.StatusInternalServerError, pageError, view{})
		return
	}

	if res.ClearSession {
		s.clearCookie(w, sessionCookie)
	}
	if res.Grant != nil {
		s.setSessionCookie(w, res.Grant)
	}

	switch res.Kind {
	case app.Redirected:
		if res.Flash != "" {
			s.setFlash(w, res.Flash)
		}
		http.Redirect(w, r, res.Route, http.StatusSeeOther)
	case app.Rendered, app.Failed:
		v := view{Page: res.Page, Data: res.Data, Flash: res.Flash, SSO: s.oidcConfig.Enabled}
		if v.Flash == "" {
			v.Flash = s.takeFlash(w, r)
		}
		if u, ok := res.Data["User"].(*domain.User); ok {
			v.User = u
		}
		status := http.StatusOK
		if res.Failure != nil {
			v.Error = res.Failure.Message
			if res.Failure.Kind == domain.KindNotFound {
				status = http.StatusNotFound
			}
		}
		s.renderPage(w, r, status, res.Page, v)
	default:
		s.logger().ErrorContext(r.Context(), "empty flow result", "path", r.URL.Path)
		s.renderPage(w, r, http.StatusInternalServerError, pageError, view{})
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	v.CSRFField = csrf.TemplateField(r)
	if v.Data == nil {
		v.Data = map[string]any{}
	}

	var buf bytes.Buffer
	if err := s.views.render(&buf, page, v); err != nil {
		s.logger().ErrorContext(r.Context(), "render", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// setSessionCookie writes the session cookie. Persistent grants outlive the
// browser; others are session cookies with no expiry.
func (s *Server) setSessionCookie(w http.ResponseWriter, g *app.SessionGrant) {
	c := &http.Cookie{
		Name:     sessionCookie,
		Value:    g.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if g.Persistent {
		c.Expires = g.ExpiresAt.UTC()
		c.MaxAge = int(time.Until(g.ExpiresAt).Seconds())
	}
	http.SetCookie(w, c)
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *Server) setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash returns the pending flash message, if any, and clears it.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	s.clearCookie(w, flashCookie)
	msg, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return ""
	}
	return string(msg)
}

// sessionToken returns the session cookie value, or "".
func sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
