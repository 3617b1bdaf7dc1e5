package flows

import (
	"context"
	"strings"

	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"github.com/octabyte/taskdesk/tokenstore"
	"github.com/octabyte/taskdesk/validation"
	"go.uber.org/zap"
)

type PasswordLoginClient interface {
	LoginWithPassword(ctx context.Context, email, password string) (*models.AuthResponse, error)
}

type PasswordLoginState struct {
	Loading bool
	Error   string
	Done    bool
}

type PasswordLogin struct {
	base
	client PasswordLoginClient
	store  tokenstore.Store
	state  PasswordLoginState
}

func NewPasswordLogin(client PasswordLoginClient, store tokenstore.Store, deps Deps) *PasswordLogin {
	return &PasswordLogin{base: base{deps: deps.withDefaults()}, client: client, store: store}
}

func (p *PasswordLogin) State() PasswordLoginState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Loading = p.loading
	return s
}

// Submit signs in with email and password, stores the session and moves to
// the dashboard once the success banner has been shown.
func (p *PasswordLogin) Submit(ctx context.Context, email, password string, rememberMe bool) error {
	req := models.PasswordLoginRequest{Email: strings.TrimSpace(email), Password: password}

	p.mu.Lock()
	if err := validation.Struct(req); err != nil {
		p.state.Error = api.UserMessage(err, MsgInvalidCredentials)
		p.mu.Unlock()
		return err
	}
	if err := p.beginLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.state.Error = ""
	p.mu.Unlock()

	resp, err := p.client.LoginWithPassword(ctx, req.Email, req.Password)
	if err == nil {
		err = tokenstore.SaveLogin(ctx, p.store, *resp, rememberMe)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if p.closed {
		return ErrClosed
	}
	if err != nil {
		p.state.Error = api.UserMessage(err, MsgInvalidCredentials)
		otellogger.InfoCtx(ctx, "password login rejected", zap.Error(err))
		return err
	}

	p.state.Done = true
	p.afterLocked(p.deps.Config.SuccessDelay, func() { p.navigate(enums.RouteDashboard) })
	p.deps.Notifier.Success(MsgLoginSuccessful)
	return nil
}

func (p *PasswordLogin) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}
