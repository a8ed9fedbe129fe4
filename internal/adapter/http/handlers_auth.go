// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"travelbuddy/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
)

const stateCookie = "oauth_state"

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.site.LoginPage(), nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	res, err := s.site.Login(r.Context(), app.LoginForm{
		Email:    formValue(r, "email"),
		Password: r.FormValue("password"),
		Remember: checkbox(r, "remember_me"),
	})
	s.respond(w, r, res, err)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.site.RegisterPage(), nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	res, err := s.site.Register(r.Context(), app.RegisterForm{
		Username:        formValue(r, "username"),
		Email:           formValue(r, "email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	})
	s.respond(w, r, res, err)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	res, err := s.site.Logout(r.Context(), sessionToken(r))
	s.respond(w, r, res, err)
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		s.handleNotFound(w, r)
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidcConfig.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		s.handleNotFound(w, r)
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	s.clearCookie(w, stateCookie)

	token, err := s.oidcConfig.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.logger().WarnContext(r.Context(), "sso exchange", "error", err)
		http.Error(w, "failed to exchange token", http.StatusBadGateway)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id_token", http.StatusBadGateway)
		return
	}

	idToken, err := s.oidcConfig.Provider.Verifier(&oidc.Config{ClientID: s.oidcConfig.OAuth2Config.ClientID}).Verify(r.Context(), rawIDToken)
	if err != nil {
		s.logger().WarnContext(r.Context(), "sso verify", "error", err)
		http.Error(w, "failed to verify token", http.StatusUnauthorized)
		return
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
	}
	if err = idToken.Claims(&claims); err != nil {
		http.Error(w, "failed to parse claims", http.StatusBadGateway)
		return
	}
	email := claimedEmail(claims.Email, claims.EmailVerified, s.oidcConfig.RequireVerifiedEmail)
	res, err := s.site.SSOLogin(r.Context(), email)
	s.respond(w, r, res, err)
}

// claimedEmail returns the email an ID token may sign in as, or "" when it
// may not. An explicit email_verified=false is always rejected; a missing
// claim is rejected only when requireVerified is set.
func claimedEmail(email string, verified *bool, requireVerified bool) string {
	if verified == nil {
		if requireVerified {
			return ""
		}
		return email
	}
	if !*verified {
		return ""
	}
	return email
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
