package flows

import (
	"context"
	"strings"

	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/countdown"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"github.com/octabyte/taskdesk/otel/metrics"
	"github.com/octabyte/taskdesk/utils"
	"github.com/octabyte/taskdesk/validation"
	"go.uber.org/zap"
)

type RegistrationClient interface {
	InitiateRegistration(ctx context.Context, req models.RegistrationRequest) (*models.MessageResponse, error)
	VerifyRegistrationOTP(ctx context.Context, email, otp string) (*models.MessageResponse, error)
	ResendRegistrationOTP(ctx context.Context, email string) (*models.MessageResponse, error)
}

type RegistrationState struct {
	Step    enums.RegistrationStep
	Email   string
	Loading bool
	Error   string
	// OTPExpired blocks OTP submission until a resend succeeds.
	OTPExpired     bool
	ExpiresIn      int
	ResendDisabled bool
	ResendIn       int
}

// Registration walks a new account from profile submission through OTP
// verification. The expiry countdown and the resend cooldown run independently.
type Registration struct {
	base
	client   RegistrationClient
	expiry   *countdown.Countdown
	cooldown *countdown.Countdown

	state    RegistrationState
	phase    uint64
	onChange func(RegistrationState)
}

func NewRegistration(client RegistrationClient, deps Deps) *Registration {
	deps = deps.withDefaults()
	return &Registration{
		base:     base{deps: deps},
		client:   client,
		expiry:   countdown.New(deps.Clock),
		cooldown: countdown.New(deps.Clock),
		state:    RegistrationState{Step: enums.RegistrationStepCollectingProfile},
	}
}

// OnChange registers fn to receive a snapshot after every state change.
func (r *Registration) OnChange(fn func(RegistrationState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

func (r *Registration) State() RegistrationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registration) snapshotLocked() RegistrationState {
	s := r.state
	s.Loading = r.loading
	return s
}

func (r *Registration) emitLocked() func() {
	fn := r.onChange
	if fn == nil {
		return noop
	}
	s := r.snapshotLocked()
	return func() { fn(s) }
}

// SubmitProfile validates the profile locally and asks the backend to send an
// OTP. Success moves to the OTP step and starts both timers.
func (r *Registration) SubmitProfile(ctx context.Context, req models.RegistrationRequest) error {
	r.mu.Lock()
	if r.state.Step != enums.RegistrationStepCollectingProfile {
		r.mu.Unlock()
		return ErrWrongStep
	}
	if err := validation.Struct(req); err != nil {
		r.state.Error = api.UserMessage(err, MsgRegistrationFailed)
		emit := r.emitLocked()
		r.mu.Unlock()
		emit()
		return err
	}
	if err := r.beginLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.state.Error = ""
	r.state.OTPExpired = false
	emit := r.emitLocked()
	r.mu.Unlock()
	emit()

	_, err := r.client.InitiateRegistration(ctx, req)
	metrics.RecordOTPRequest(ctx, "registration", false)

	r.mu.Lock()
	r.loading = false
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		r.state.Error = api.UserMessage(err, MsgRegistrationFailed)
		otellogger.InfoCtx(ctx, "registration rejected", zap.Error(err))
	} else {
		r.state.Email = req.Email
		r.state.Step = enums.RegistrationStepAwaitingOTP
		r.startTimersLocked()
	}
	emit = r.emitLocked()
	r.mu.Unlock()
	emit()
	return err
}

// SubmitOTP verifies otp. An expired OTP is rejected without a request.
func (r *Registration) SubmitOTP(ctx context.Context, otp string) error {
	r.mu.Lock()
	if r.state.Step != enums.RegistrationStepAwaitingOTP {
		r.mu.Unlock()
		return ErrWrongStep
	}
	if r.state.OTPExpired {
		r.state.Error = MsgRequestNewOTP
		emit := r.emitLocked()
		r.mu.Unlock()
		emit()
		return ErrOTPExpired
	}
	if err := validation.OTP(otp); err != nil {
		r.state.Error = api.UserMessage(err, MsgRegistrationInvalidOTP)
		emit := r.emitLocked()
		r.mu.Unlock()
		emit()
		return err
	}
	if err := r.beginLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.state.Error = ""
	email := r.state.Email
	emit := r.emitLocked()
	r.mu.Unlock()
	emit()

	_, err := r.client.VerifyRegistrationOTP(ctx, email, otp)

	r.mu.Lock()
	r.loading = false
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	done := noop
	if err != nil {
		msg := api.ServerMessage(err)
		switch {
		case sessionExpired(msg):
			r.sessionExpiredLocked()
		case strings.Contains(msg, "expired"):
			r.state.OTPExpired = true
			r.state.Error = msg
		default:
			r.state.Error = api.UserMessage(err, MsgRegistrationInvalidOTP)
		}
	} else {
		r.stopTimersLocked()
		r.state.Step = enums.RegistrationStepCompleted
		r.afterLocked(r.deps.Config.SuccessDelay, func() { r.navigate(enums.RouteLogin) })
		done = func() { r.deps.Notifier.Success(MsgRegistrationComplete) }
		otellogger.InfoCtx(ctx, "registration completed", zap.String("email", email))
	}
	emit = r.emitLocked()
	r.mu.Unlock()
	emit()
	done()
	return err
}

// Resend asks for a fresh OTP once the cooldown has elapsed. Success restarts
// both timers and clears the expired flag without changing the step.
func (r *Registration) Resend(ctx context.Context) error {
	r.mu.Lock()
	if r.state.Step != enums.RegistrationStepAwaitingOTP {
		r.mu.Unlock()
		return ErrWrongStep
	}
	if r.state.ResendDisabled {
		r.mu.Unlock()
		return ErrResendUnavailable
	}
	if err := r.beginLocked(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.state.Error = ""
	r.state.OTPExpired = false
	email := r.state.Email
	emit := r.emitLocked()
	r.mu.Unlock()
	emit()

	_, err := r.client.ResendRegistrationOTP(ctx, email)
	metrics.RecordOTPRequest(ctx, "registration", true)

	r.mu.Lock()
	r.loading = false
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		if sessionExpired(api.ServerMessage(err)) {
			r.sessionExpiredLocked()
		} else {
			r.state.Error = api.UserMessage(err, MsgResendFailed)
		}
	} else if r.state.Step == enums.RegistrationStepAwaitingOTP {
		r.startTimersLocked()
	}
	emit = r.emitLocked()
	r.mu.Unlock()
	emit()
	return err
}

// Back returns to the profile step, dropping the OTP timers.
func (r *Registration) Back() error {
	r.mu.Lock()
	if r.loading {
		r.mu.Unlock()
		return ErrBusy
	}
	if r.state.Step != enums.RegistrationStepAwaitingOTP {
		r.mu.Unlock()
		return ErrWrongStep
	}
	r.resetLocked()
	emit := r.emitLocked()
	r.mu.Unlock()
	emit()
	return nil
}

// Close stops every timer. Responses arriving afterwards are ignored.
func (r *Registration) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	r.stopTimersLocked()
}

func (r *Registration) sessionExpiredLocked() {
	r.state.Error = MsgSessionExpired
	r.stopTimersLocked()
	r.afterLocked(r.deps.Config.SessionResetDelay, func() {
		r.mu.Lock()
		if r.state.Step == enums.RegistrationStepAwaitingOTP {
			r.resetLocked()
			r.state.Error = MsgSessionExpired
		}
		emit := r.emitLocked()
		r.mu.Unlock()
		emit()
	})
}

func (r *Registration) resetLocked() {
	r.stopTimersLocked()
	r.cancelLaterLocked()
	r.state = RegistrationState{Step: enums.RegistrationStepCollectingProfile}
}

func (r *Registration) startTimersLocked() {
	r.stopTimersLocked()
	phase := r.phase
	cfg := r.deps.Config

	r.state.OTPExpired = false
	r.state.ExpiresIn = seconds(cfg.OTPTTL)
	r.state.ResendDisabled = cfg.ResendCooldown > 0
	r.state.ResendIn = seconds(cfg.ResendCooldown)

	r.expiry.Start(cfg.OTPTTL, func(left int) {
		r.update(phase, func(s *RegistrationState) { s.ExpiresIn = left })
	}, func() {
		r.update(phase, func(s *RegistrationState) {
			s.OTPExpired = true
			s.Error = MsgRegistrationOTPExpired
		})
	})
	if cfg.ResendCooldown > 0 {
		r.cooldown.Start(cfg.ResendCooldown, func(left int) {
			r.update(phase, func(s *RegistrationState) { s.ResendIn = left })
		}, func() {
			r.update(phase, func(s *RegistrationState) { s.ResendDisabled = false })
		})
	}
}

func (r *Registration) stopTimersLocked() {
	r.phase++
	r.expiry.Stop()
	r.cooldown.Stop()
	r.state.ExpiresIn = 0
	r.state.ResendIn = 0
	r.state.ResendDisabled = false
}

// update applies fn when phase is still current.
func (r *Registration) update(phase uint64, fn func(*RegistrationState)) {
	r.mu.Lock()
	if phase != r.phase || r.closed {
		r.mu.Unlock()
		return
	}
	fn(&r.state)
	emit := r.emitLocked()
	r.mu.Unlock()
	emit()
}

func sessionExpired(msg string) bool {
	return utils.ContainsFold(msg, "session expired")
}
