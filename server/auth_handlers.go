package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/users"
)

// LoginPageHandler displays the login page (GET /login).
// An already authenticated user is sent to their landing page.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.store.Snapshot()
		if state.Authenticated {
			http.Redirect(w, r, users.LandingPath(state.User), http.StatusSeeOther)
			return
		}

		data := s.pageData(r, "Sign in")
		data.Error = state.Error
		if state.Error != "" {
			s.store.ClearError()
		}
		s.renderPage(w, http.StatusOK, tmpl, data)
	}
}

// LoginSubmissionHandler processes the login form (POST /auth/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		creds := sessions.Credentials{
			Username: strings.TrimSpace(r.FormValue("username")),
			Password: r.FormValue("password"),
		}

		data := s.pageData(r, "Sign in")
		data.Form = map[string]string{"username": creds.Username}
		if creds.Username == "" || creds.Password == "" {
			data.Error = "Username and password are required"
			s.renderPage(w, http.StatusBadRequest, tmpl, data)
			return
		}

		res := s.store.Login(r.Context(), creds)
		if !res.Success {
			data.Error = res.Error
			data.User = nil
			data.Nav = navFor(nil)
			s.store.ClearError()
			s.renderPage(w, http.StatusUnauthorized, tmpl, data)
			return
		}
		redirect(w, r, users.LandingPath(res.User))
	}
}

// RegisterPageHandler displays the registration page (GET /register)
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.store.Snapshot()
		if state.Authenticated {
			http.Redirect(w, r, users.LandingPath(state.User), http.StatusSeeOther)
			return
		}
		s.renderPage(w, http.StatusOK, tmpl, s.pageData(r, "Create account"))
	}
}

// RegisterSubmissionHandler creates the account and signs in (POST /auth/register)
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		reg := sessions.Registration{
			Username:  strings.TrimSpace(r.FormValue("username")),
			Email:     strings.TrimSpace(r.FormValue("email")),
			Password:  r.FormValue("password"),
			Password2: r.FormValue("password2"),
			FirstName: strings.TrimSpace(r.FormValue("first_name")),
			LastName:  strings.TrimSpace(r.FormValue("last_name")),
		}

		res := s.store.Register(r.Context(), reg)
		if !res.Success {
			data := s.pageData(r, "Create account")
			data.User = nil
			data.Nav = navFor(nil)
			data.Error = res.Error
			s.store.ClearError()
			data.Form = map[string]string{
				"username":   reg.Username,
				"email":      reg.Email,
				"first_name": reg.FirstName,
				"last_name":  reg.LastName,
			}
			s.renderPage(w, http.StatusBadRequest, tmpl, data)
			return
		}
		redirect(w, r, users.LandingPath(res.User))
	}
}

// LogoutHandler ends the session (POST /auth/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.store.Logout(r.Context())
		redirect(w, r, RouteLogin)
	}
}

// redirect answers htmx requests with HX-Redirect and everything else with a 303
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
