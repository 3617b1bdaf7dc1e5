// Package router maps locations to screens and runs the guard for protected ones.
package router

import (
	"context"
	"slices"
	"errors"
	"sync"

	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/utils/logger"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSuperseded is returned when a newer navigation started before the guard resolved.
	ErrSuperseded = errors.New("navigation superseded")
)

// Location is the place being shown. From is set on the login screen when the
// user was sent there from a protected location.
type Location struct {
	Path enums.Route
	From enums.Route
}

// EnterFunc renders or runs the screen bound to a route.
type EnterFunc func(ctx context.Context, loc Location) error

type Route struct {
	Path      enums.Route
	Title     string
	Protected bool
	Enter     EnterFunc
}

// Navigator moves between locations. Flows depend on it instead of the Router.
type Navigator interface {
	Navigate(ctx context.Context, to enums.Route) error
	// Redirect replaces the current location with to, remembering from.
	Redirect(ctx context.Context, to, from enums.Route) error
}

// Guard decides access to protected locations.
type Guard interface {
	// Check verifies the session for loc and redirects when it is not valid.
	Check(ctx context.Context, loc Location) enums.AuthState
	// Leave tells the guard the protected location is no longer shown.
	Leave()
}

func DefaultRoutes() []Route {
	return []Route{
		{Path: enums.RouteRoot, Title: "Sign in"},
		{Path: enums.RouteLogin, Title: "Sign in"},
		{Path: enums.RoutePasswordLogin, Title: "Password login"},
		{Path: enums.RouteOTPLogin, Title: "One-time code login"},
		{Path: enums.RouteRegister, Title: "Create account"},
		{Path: enums.RouteDashboard, Title: "Dashboard", Protected: true},
		{Path: enums.RouteProfile, Title: "Profile", Protected: true},
		{Path: enums.RouteLogout, Title: "Logging out"},
		{Path: enums.RouteNotFound, Title: "Page not found"},
	}
}

type Router struct {
	mu        sync.Mutex
	routes    map[enums.Route]Route
	guard     Guard
	current   Location
	listeners []func(Location)
}

// New builds a router over routes, or DefaultRoutes when none are given.
func New(routes ...Route) *Router {
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}
	r := &Router{routes: map[enums.Route]Route{}}
	for _, route := range routes {
		r.routes[route.Path] = route
	}
	if _, ok := r.routes[enums.RouteNotFound]; !ok {
		r.routes[enums.RouteNotFound] = Route{Path: enums.RouteNotFound, Title: "Page not found"}
	}
	return r
}

func (r *Router) SetGuard(g Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guard = g
}

// Handle binds enter to path. Unknown paths are added as public routes.
func (r *Router) Handle(path enums.Route, enter EnterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[path]
	if !ok {
		route = Route{Path: path}
	}
	route.Enter = enter
	r.routes[path] = route
}

func (r *Router) OnChange(fn func(Location)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Resolve returns the route for path, falling back to the not-found route.
func (r *Router) Resolve(path enums.Route) Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if route, ok := r.routes[path]; ok && path != enums.RouteNotFound {
		return route
	}
	return r.routes[enums.RouteNotFound]
}

func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate shows to. Protected routes are entered only once the guard
// authenticates the session; otherwise ErrNotAuthenticated is returned and the
// guard has already redirected.
func (r *Router) Navigate(ctx context.Context, to enums.Route) error {
	return r.show(ctx, Location{Path: to})
}

func (r *Router) Redirect(ctx context.Context, to, from enums.Route) error {
	return r.show(ctx, Location{Path: to, From: from})
}

// SessionEnded sends the user to login after the client dropped the session.
// Its signature matches api.SessionEndFunc.
func (r *Router) SessionEnded(ctx context.Context, reason string) {
	current := r.Current()
	from := enums.Route("")
	if r.Resolve(current.Path).Protected {
		from = current.Path
	}
	logger.LogInfo("session ended, returning to login", zap.String("reason", reason), zap.String("from", string(from)))
	if err := r.Redirect(ctx, enums.RouteLogin, from); err != nil {
		logger.LogWarn("login screen failed", zap.Error(err))
	}
}

func (r *Router) show(ctx context.Context, loc Location) error {
	route := r.Resolve(loc.Path)

	r.mu.Lock()
	r.current = loc
	guard := r.guard
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(loc)
	}
	logger.LogDebug("navigate", zap.String("path", string(loc.Path)), zap.String("route", string(route.Path)))

	if guard != nil {
		if !route.Protected {
			guard.Leave()
		} else {
			switch guard.Check(ctx, loc) {
			case enums.AuthStateAuthenticated:
			case enums.AuthStatePending:
				return ErrSuperseded
			default:
				return ErrNotAuthenticated
			}
		}
	}

	if route.Enter == nil {
		return nil
	}
	return route.Enter(ctx, loc)
}
