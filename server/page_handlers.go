package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront/guard"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/rs/zerolog/log"
)

// PageData is the template model shared by every page
type PageData struct {
	AppName string
	Title   string
	User    *users.User
	Nav     []NavLink
	Error   string
	Form    map[string]string // submitted values echoed back on error
	Area    string
	Section string
	Content template.HTML
}

type NavLink struct {
	Label string
	Path  string
}

// navFor lists the areas the user's capabilities open up
func navFor(u *users.User) []NavLink {
	nav := []NavLink{{Label: "Products", Path: RouteProducts}}
	if users.Authenticated.Allows(u) {
		nav = append(nav, NavLink{"My orders", RouteOrders}, NavLink{"Returns", RouteReturns}, NavLink{"Profile", RouteProfile})
	}
	if users.IsManagerOrCashierOrAdmin.Allows(u) {
		nav = append(nav, NavLink{"Point of sale", RouteCashier + "orders"})
	}
	if users.IsManagerOrAdmin.Allows(u) {
		nav = append(nav, NavLink{"Management", RouteManager + "dashboard"})
	}
	if users.IsAdmin.Allows(u) {
		nav = append(nav, NavLink{"Administration", RouteAdmin + "dashboard"})
	}
	return nav
}

func (s *Server) pageData(r *http.Request, title string) PageData {
	u, ok := guard.UserFromContext(r.Context())
	if !ok {
		u = s.store.Snapshot().User
	}
	return PageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		User:    u,
		Nav:     navFor(u),
	}
}

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, http.StatusOK, tmpl, s.pageData(r, "Home"))
	}
}

// ProductsHandler is the public catalog, also the safe route offered on access denied pages
func (s *Server) ProductsHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("products.html")
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, http.StatusOK, tmpl, s.pageData(r, "Products"))
	}
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("profile.html")
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, http.StatusOK, tmpl, s.pageData(r, "Profile"))
	}
}

// AccountPageHandler renders a customer page whose data the browser loads through /api
func (s *Server) AccountPageHandler(title string) http.HandlerFunc {
	tmpl := mustParseTemplate("section.html")
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(r, title)
		data.Section = strings.TrimPrefix(r.URL.Path, "/")
		s.renderPage(w, http.StatusOK, tmpl, data)
	}
}

// SectionHandler renders one section of a staff area, e.g. /admin/users
func (s *Server) SectionHandler(area string) http.HandlerFunc {
	tmpl := mustParseTemplate("section.html")
	return func(w http.ResponseWriter, r *http.Request) {
		section := strings.Trim(r.PathValue("section"), "/")
		if section == "" {
			section = "dashboard"
		}
		data := s.pageData(r, area+" - "+section)
		data.Area = area
		data.Section = section
		s.renderPage(w, http.StatusOK, tmpl, data)
	}
}

// SessionHandler reports the current session snapshot as JSON
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(s.store.Snapshot()); err != nil {
			log.Err(err).Msg("Failed to encode session")
		}
	}
}
