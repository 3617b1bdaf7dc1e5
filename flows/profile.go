package flows

import (
	"context"
	"strings"

	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/models"
	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"github.com/octabyte/taskdesk/tokenstore"
	"go.uber.org/zap"
)

const (
	MsgProfileLoadFailed    = "Failed to load profile"
	MsgProfileUpdated       = "Profile updated successfully"
	MsgProfileUpdateFailed  = "Failed to update profile"
	MsgPasswordChanged      = "Password changed successfully"
	MsgPasswordChangeFailed = "Failed to change password"
	MsgPasswordsDoNotMatch  = "Passwords do not match"
	fieldConfirmPassword    = "confirm_password"
)

type ProfileClient interface {
	GetProfile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, change models.PasswordChange) (*models.MessageResponse, error)
}

type ProfileState struct {
	User *models.User
	// PasswordErrors maps form fields to the first error reported for them.
	PasswordErrors map[string]string
}

// Profile loads and edits the signed-in user's profile. The cached user in the
// token store follows every change.
type Profile struct {
	base
	client ProfileClient
	store  tokenstore.Store
	state  ProfileState
	onUser func(models.User)
}

func NewProfile(client ProfileClient, store tokenstore.Store, deps Deps) *Profile {
	return &Profile{base: base{deps: deps.withDefaults()}, client: client, store: store}
}

// OnUser registers fn to receive the profile after it loads or changes.
func (p *Profile) OnUser(fn func(models.User)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUser = fn
}

func (p *Profile) State() ProfileState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	errs := make(map[string]string, len(s.PasswordErrors))
	for k, v := range s.PasswordErrors {
		errs[k] = v
	}
	s.PasswordErrors = errs
	return s
}

func (p *Profile) Load(ctx context.Context) (*models.User, error) {
	user, err := p.client.GetProfile(ctx)
	if err != nil {
		otellogger.WarnCtx(ctx, "profile load failed", zap.Error(err))
		p.deps.Notifier.Error(MsgProfileLoadFailed)
		return nil, err
	}
	p.remember(ctx, *user)
	return user, nil
}

func (p *Profile) UpdateName(ctx context.Context, fullName string) (*models.User, error) {
	user, err := p.client.UpdateProfile(ctx, models.ProfileUpdate{FullName: strings.TrimSpace(fullName)})
	if err != nil {
		otellogger.WarnCtx(ctx, "profile update failed", zap.Error(err))
		p.deps.Notifier.Error(MsgProfileUpdateFailed)
		return nil, err
	}
	p.remember(ctx, *user)
	p.deps.Notifier.Success(MsgProfileUpdated)
	return user, nil
}

// ChangePassword checks the confirmation locally before calling the backend.
// Field errors from either side land in PasswordErrors.
func (p *Profile) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	p.mu.Lock()
	p.state.PasswordErrors = nil
	if change.NewPassword != change.ConfirmPassword {
		p.state.PasswordErrors = map[string]string{fieldConfirmPassword: MsgPasswordsDoNotMatch}
		p.mu.Unlock()
		return ErrPasswordMismatch
	}
	if err := p.beginLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()

	_, err := p.client.ChangePassword(ctx, change)

	p.mu.Lock()
	p.loading = false
	if err != nil {
		if apiErr, ok := api.AsError(err); ok {
			p.state.PasswordErrors = apiErr.FieldErrors()
		}
	}
	p.mu.Unlock()

	if err != nil {
		otellogger.WarnCtx(ctx, "password change failed", zap.Error(err))
		p.deps.Notifier.Error(MsgPasswordChangeFailed)
		return err
	}
	p.deps.Notifier.Success(MsgPasswordChanged)
	return nil
}

func (p *Profile) remember(ctx context.Context, user models.User) {
	if err := p.store.SetUser(ctx, user); err != nil {
		otellogger.WarnCtx(ctx, "failed to cache user", zap.Error(err))
	}

	p.mu.Lock()
	p.state.User = &user
	fn := p.onUser
	p.mu.Unlock()
	if fn != nil {
		fn(user)
	}
}
