package flows_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/facebookgo/clock"
	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/fakeapi"
	"github.com/octabyte/taskdesk/flows"
	"github.com/octabyte/taskdesk/notify"
	"github.com/octabyte/taskdesk/tokenstore"
)

const (
	testOTP      = "123456"
	testEmail    = "ada@example.com"
	testName     = "Ada Lovelace"
	testPassword = "Secret#123"
)

type recordingNav struct {
	mu     sync.Mutex
	routes []enums.Route
}

func (n *recordingNav) Navigate(_ context.Context, to enums.Route) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, to)
	return nil
}

func (n *recordingNav) Redirect(ctx context.Context, to, _ enums.Route) error {
	return n.Navigate(ctx, to)
}

func (n *recordingNav) visited() []enums.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]enums.Route(nil), n.routes...)
}

// env is a fake backend plus a client and flow dependencies on a mock clock.
type env struct {
	fake     *fakeapi.Server
	server   *httptest.Server
	store    *tokenstore.MemoryStore
	client   *api.Client
	clock    *clock.Mock
	nav      *recordingNav
	notifier *notify.Notifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		fake:  fakeapi.New(fakeapi.Config{OTP: func() string { return testOTP }}),
		store: tokenstore.NewMemoryStore(),
		clock: clock.NewMock(),
		nav:   &recordingNav{},
	}
	e.fake.AddUser(testEmail, testName, testPassword)
	e.server = httptest.NewServer(e.fake.Handler())
	t.Cleanup(e.server.Close)
	e.client = api.New(api.Config{BaseURL: e.server.URL + fakeapi.Prefix}, e.store)
	e.notifier = notify.New(e.clock, notify.DefaultTTL)
	return e
}

func (e *env) deps() flows.Deps {
	return flows.Deps{Clock: e.clock, Nav: e.nav, Notifier: e.notifier, Config: flows.DefaultConfig()}
}

func (e *env) latestMessage() string {
	n, _ := e.notifier.Latest()
	return n.Message
}
