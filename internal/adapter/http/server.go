package adapthttp

import (
	"context"
	"log/slog"
	"net/http"

	"travelbuddy/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/csrf"
	"golang.org/x/oauth2"
)

// OIDCConfig holds the single sign-on provider settings.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
	// RequireVerifiedEmail rejects tokens that do not assert
	// email_verified=true. Otherwise a missing claim is accepted.
	RequireVerifiedEmail bool
}

// NewOIDCConfig discovers the provider at issuer and prepares the
// authorization-code flow.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return &OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

// Server is the driving HTTP adapter that routes requests to the site flows.
type Server struct {
	site          *app.Site
	views         *views
	log           *slog.Logger
	secureCookies bool
	csrfKey       []byte
	trustedHeader string
	oidcConfig    *OIDCConfig
	health        func(ctx context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithSecureCookies marks cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) { s.secureCookies = secure }
}

// WithCSRFKey enables CSRF protection on unsafe requests. key must be
// 32 bytes; an empty key leaves protection off.
func WithCSRFKey(key []byte) Option {
	return func(s *Server) { s.csrfKey = key }
}

// WithTrustedEmailHeader signs in the user whose email an authenticating
// reverse proxy puts in header. Only enable it behind such a proxy.
func WithTrustedEmailHeader(header string) Option {
	return func(s *Server) { s.trustedHeader = header }
}

// WithOIDC enables single sign-on.
func WithOIDC(c *OIDCConfig) Option {
	return func(s *Server) { s.oidcConfig = c }
}

// WithHealthCheck adds a dependency probe to /healthz.
func WithHealthCheck(fn func(ctx context.Context) error) Option {
	return func(s *Server) { s.health = fn }
}

// New creates a Server wired to the site flows.
func New(site *app.Site, opts ...Option) (*Server, error) {
	v, err := parseViews()
	if err != nil {
		return nil, err
	}
	s := &Server{
		site:       site,
		views:      v,
		log:        slog.Default(),
		oidcConfig: &OIDCConfig{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(StaticFS())))

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /{$}", s.handleHome)

	mux.HandleFunc("GET /login/{$}", s.handleLoginPage)
	mux.HandleFunc("POST /login/{$}", s.handleLogin)
	mux.HandleFunc("GET /register/{$}", s.handleRegisterPage)
	mux.HandleFunc("POST /register/{$}", s.handleRegister)
	mux.HandleFunc("POST /logout/{$}", s.handleLogout)

	mux.HandleFunc("GET /login/sso/{$}", s.handleSSOLogin)
	mux.HandleFunc("GET /login/sso/callback/{$}", s.handleSSOCallback)

	mux.HandleFunc("GET /book/{$}", s.handleBookPage)
	mux.HandleFunc("POST /book/{$}", s.handleBook)
	mux.HandleFunc("GET /my-bookings/{$}", s.handleMyBookings)
	mux.HandleFunc("POST /cancel-booking/{id}/{$}", s.handleCancelBooking)

	mux.HandleFunc("GET /contact/{$}", s.handleContactPage)
	mux.HandleFunc("POST /contact/{$}", s.handleContact)

	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	if s.trustedHeader != "" {
		h = s.forwardAuth(h)
	}
	if len(s.csrfKey) > 0 {
		h = s.withCSRF(h)
	}
	return s.loggingMiddleware(withNoCache(h))
}

func (s *Server) withCSRF(next http.Handler) http.Handler {
	protect := csrf.Protect(s.csrfKey,
		csrf.Secure(s.secureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger().Warn("csrf rejected", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			http.Error(w, "forbidden", http.StatusForbidden)
		})),
	)(next)

	if s.secureCookies {
		return protect
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protect.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger().Error("health check", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, app.Fail(app.PageNotFound, errPageNotFound, nil), nil)
}

func (s *Server) logger() *slog.Logger {
	if s.log == nil {
		return slog.Default()
	}
	return s.log
}
