package enums

type Route string

const (
	RouteRoot          Route = "/"
	RouteLogin         Route = "/login"
	RoutePasswordLogin Route = "/passwordlogin"
	RouteOTPLogin      Route = "/otplogin"
	RouteRegister      Route = "/register"
	RouteDashboard     Route = "/dashboard"
	RouteProfile       Route = "/profile"
	RouteLogout        Route = "/logout"
	RouteNotFound      Route = "*"
)
