package server

// Route path constants
const (
	RouteHome     = "/"
	RouteProducts = "/products"
	RouteSession  = "/session"

	// Auth
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthLogout   = "/auth/logout"

	// Any authenticated user
	RouteProfile = "/profile"
	RouteOrders  = "/orders"
	RouteReturns = "/returns"

	// Staff areas, the remainder of the path names the section
	RouteAdmin   = "/admin/"
	RouteManager = "/manager/"
	RouteCashier = "/cashier/"

	RouteAPI = "/api/"
)
