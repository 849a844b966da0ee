package server

import (
	"net/http"

	"github.com/jrsteele09/go-storefront/guard"
	"github.com/jrsteele09/go-storefront/users"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteProducts, ChainMiddleware(s.ProductsHandler(), s.HTMLMiddleWare()...))

	// LOGIN / REGISTER
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.SameOriginMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.HTMLMiddleWare(s.SameOriginMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.SameOriginMiddleware)...))

	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))

	// Customer pages
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.HTMLMiddleWare(s.RequireCapability(users.Authenticated))...))
	s.RegisterRouteHandler("GET "+RouteOrders, ChainMiddleware(s.AccountPageHandler("My orders"), s.HTMLMiddleWare(s.RequireCapability(users.Authenticated))...))
	s.RegisterRouteHandler("GET "+RouteReturns, ChainMiddleware(s.AccountPageHandler("My returns"), s.HTMLMiddleWare(s.RequireCapability(users.Authenticated))...))

	// Staff areas
	s.RegisterRouteHandler("GET "+RouteAdmin+"{section...}", ChainMiddleware(s.SectionHandler("Administration"), s.HTMLMiddleWare(s.RequireCapability(users.IsAdmin))...))
	s.RegisterRouteHandler("GET "+RouteManager+"{section...}", ChainMiddleware(s.SectionHandler("Management"), s.HTMLMiddleWare(s.RequireCapability(users.IsManagerOrAdmin))...))
	s.RegisterRouteHandler("GET "+RouteCashier+"{section...}", ChainMiddleware(s.SectionHandler("Point of sale"), s.HTMLMiddleWare(s.RequireCapability(users.IsManagerOrCashierOrAdmin))...))

	if s.relay != nil {
		s.RegisterRouteFunc(RouteAPI, ChainMiddleware(s.relay.ServeHTTP, s.APIMiddleware()...))
	}
}

// RequireCapability gates a page on the session store's current snapshot
func (s *Server) RequireCapability(required users.Capability) func(http.HandlerFunc) http.HandlerFunc {
	return guard.Protect(s.store, required, guard.Options{
		LoginPath: RouteLogin,
		SafePath:  RouteProducts,
	})
}
