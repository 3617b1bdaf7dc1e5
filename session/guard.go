package session

import (
	"context"
	"sync"

	"github.com/octabyte/taskdesk/enums"
	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"github.com/octabyte/taskdesk/otel/metrics"
	"github.com/octabyte/taskdesk/router"
	"github.com/octabyte/taskdesk/tokenstore"
	"go.uber.org/zap"
)

type SessionVerifier interface {
	Verify(ctx context.Context) bool
}

// Guard holds the tri-state authentication of the protected location being
// shown. Only the most recent check may resolve it.
type Guard struct {
	verifier SessionVerifier
	nav      router.Navigator
	store    tokenstore.Store

	mu       sync.Mutex
	gen      uint64
	state    enums.AuthState
	location *router.Location
	onState  func(enums.AuthState)
}

func NewGuard(verifier SessionVerifier, nav router.Navigator, store tokenstore.Store) *Guard {
	return &Guard{verifier: verifier, nav: nav, store: store, state: enums.AuthStatePending}
}

// OnStateChange registers fn to run whenever the state changes, pending included.
func (g *Guard) OnStateChange(fn func(enums.AuthState)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onState = fn
}

func (g *Guard) State() enums.AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Check moves to pending, verifies the session and resolves. When a newer
// check or a Leave happened meanwhile the result is dropped and pending is
// returned. An unauthenticated result redirects to login carrying loc.
func (g *Guard) Check(ctx context.Context, loc router.Location) enums.AuthState {
	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.location = &loc
	notify := g.setStateLocked(enums.AuthStatePending)
	g.mu.Unlock()
	notify()

	state := enums.AuthStateUnauthenticated
	if g.verifier.Verify(ctx) {
		state = enums.AuthStateAuthenticated
	}

	g.mu.Lock()
	if gen != g.gen {
		g.mu.Unlock()
		otellogger.DebugCtx(ctx, "discarding superseded session check", zap.String("path", string(loc.Path)))
		return enums.AuthStatePending
	}
	notify = g.setStateLocked(state)
	g.mu.Unlock()
	notify()

	metrics.RecordGuardDecision(ctx, string(state))
	if state == enums.AuthStateUnauthenticated {
		if err := g.nav.Redirect(ctx, enums.RouteLogin, loc.Path); err != nil {
			otellogger.WarnCtx(ctx, "login redirect failed", zap.Error(err))
		}
	}
	return state
}

// Leave forgets the protected location and invalidates checks in flight.
func (g *Guard) Leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.location = nil
}

// Watch re-checks the shown protected location whenever the access token
// changes or the store is cleared, until ctx is done. Changes arriving while a
// check is in flight are left to that check.
func (g *Guard) Watch(ctx context.Context) error {
	changes, err := g.store.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for change := range changes {
			if change.Key != enums.StoreKeyAccess && change.Key != enums.StoreKeyAll {
				continue
			}
			g.mu.Lock()
			loc, state := g.location, g.state
			g.mu.Unlock()
			if loc == nil || state == enums.AuthStatePending {
				continue
			}
			otellogger.DebugCtx(ctx, "session changed, re-checking", zap.String("key", string(change.Key)))
			g.Check(ctx, *loc)
		}
	}()
	return nil
}

func (g *Guard) setStateLocked(state enums.AuthState) func() {
	if g.state == state {
		return func() {}
	}
	g.state = state
	fn := g.onState
	if fn == nil {
		return func() {}
	}
	return func() { fn(state) }
}
