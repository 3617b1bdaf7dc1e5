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
	"github.com/octabyte/taskdesk/tokenstore"
	"github.com/octabyte/taskdesk/validation"
	"go.uber.org/zap"
)

// OTPLength is the number of digit fields on the OTP screen.
const OTPLength = 6

type OTPLoginClient interface {
	RequestLoginOTP(ctx context.Context, email string) (*models.MessageResponse, error)
	ResendLoginOTP(ctx context.Context, email string) (*models.MessageResponse, error)
	VerifyLoginOTP(ctx context.Context, email, otp string) (*models.AuthResponse, error)
}

type OTPLoginState struct {
	Step    enums.OTPLoginStep
	Email   string
	Digits  [OTPLength]string
	Focus   int
	Loading bool
	Error   string
	// SecondsLeft is the countdown shown next to the digits; resend unlocks at 0.
	SecondsLeft int
	Expired     bool
	RememberMe  bool
}

// Code joins the entered digits.
func (s OTPLoginState) Code() string {
	return strings.Join(s.Digits[:], "")
}

func (s OTPLoginState) CanResend() bool {
	return s.Step == enums.OTPLoginStepAwaitingOTP && s.SecondsLeft == 0 && !s.Loading
}

// OTPLogin signs a user in with a one-time code sent by email.
type OTPLogin struct {
	base
	client OTPLoginClient
	store  tokenstore.Store
	timer  *countdown.Countdown

	state    OTPLoginState
	phase    uint64
	onChange func(OTPLoginState)
}

func NewOTPLogin(client OTPLoginClient, store tokenstore.Store, deps Deps) *OTPLogin {
	deps = deps.withDefaults()
	return &OTPLogin{
		base:   base{deps: deps},
		client: client,
		store:  store,
		timer:  countdown.New(deps.Clock),
		state:  OTPLoginState{Step: enums.OTPLoginStepEnteringEmail},
	}
}

func (o *OTPLogin) OnChange(fn func(OTPLoginState)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

func (o *OTPLogin) State() OTPLoginState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *OTPLogin) snapshotLocked() OTPLoginState {
	s := o.state
	s.Loading = o.loading
	return s
}

func (o *OTPLogin) emitLocked() func() {
	fn := o.onChange
	if fn == nil {
		return noop
	}
	s := o.snapshotLocked()
	return func() { fn(s) }
}

func (o *OTPLogin) SetRememberMe(remember bool) {
	o.mu.Lock()
	o.state.RememberMe = remember
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()
}

// RequestOTP checks the email locally and asks the backend for a code.
func (o *OTPLogin) RequestOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	o.mu.Lock()
	if o.state.Step != enums.OTPLoginStepEnteringEmail {
		o.mu.Unlock()
		return ErrWrongStep
	}
	if err := validation.Email(email); err != nil {
		o.state.Error = MsgInvalidEmail
		emit := o.emitLocked()
		o.mu.Unlock()
		emit()
		return err
	}
	if err := o.beginLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.state.Error = ""
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()

	_, err := o.client.RequestLoginOTP(ctx, email)
	metrics.RecordOTPRequest(ctx, "login", false)

	o.mu.Lock()
	o.loading = false
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		o.state.Error = api.UserMessage(err, MsgSendOTPFailed)
	} else {
		o.state.Email = email
		o.state.Step = enums.OTPLoginStepAwaitingOTP
		o.restartLocked()
	}
	emit = o.emitLocked()
	o.mu.Unlock()
	emit()
	return err
}

// EnterDigit sets the digit field at index. Non-digits are ignored. Focus
// moves to the next field, and the code is verified once all six are filled.
func (o *OTPLogin) EnterDigit(ctx context.Context, index int, value string) error {
	if index < 0 || index >= OTPLength {
		return nil
	}
	if len(value) > 1 {
		value = value[len(value)-1:]
	}
	if value != "" && !isDigits(value) {
		return nil
	}

	o.mu.Lock()
	if o.state.Step != enums.OTPLoginStepAwaitingOTP {
		o.mu.Unlock()
		return ErrWrongStep
	}
	o.state.Digits[index] = value
	if value != "" && index < OTPLength-1 {
		o.state.Focus = index + 1
	}
	submit := value != "" && filled(o.state.Digits)
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()

	if submit {
		return o.Verify(ctx)
	}
	return nil
}

// Backspace clears the field at index, or moves focus back when it is already empty.
func (o *OTPLogin) Backspace(index int) {
	if index < 0 || index >= OTPLength {
		return
	}
	o.mu.Lock()
	if o.state.Step != enums.OTPLoginStepAwaitingOTP {
		o.mu.Unlock()
		return
	}
	if o.state.Digits[index] == "" {
		if index > 0 {
			o.state.Focus = index - 1
		}
	} else {
		o.state.Digits[index] = ""
		o.state.Focus = index
	}
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()
}

// Paste fills every field from a six digit string and verifies immediately.
// Anything else is ignored.
func (o *OTPLogin) Paste(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if !validation.IsOTP(text) {
		return nil
	}

	o.mu.Lock()
	if o.state.Step != enums.OTPLoginStepAwaitingOTP {
		o.mu.Unlock()
		return ErrWrongStep
	}
	for i, r := range text {
		o.state.Digits[i] = string(r)
	}
	o.state.Focus = OTPLength - 1
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()

	return o.Verify(ctx)
}

// Verify submits the entered code. Failures keep the digits so the user can
// correct them.
func (o *OTPLogin) Verify(ctx context.Context) error {
	o.mu.Lock()
	if o.state.Step != enums.OTPLoginStepAwaitingOTP {
		o.mu.Unlock()
		return ErrWrongStep
	}
	if err := o.beginLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.state.Error = ""
	code := o.state.Code()
	if err := validation.OTP(code); err != nil {
		o.loading = false
		o.state.Error = MsgInvalidOTPLength
		emit := o.emitLocked()
		o.mu.Unlock()
		emit()
		return err
	}
	email, remember := o.state.Email, o.state.RememberMe
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()

	resp, err := o.client.VerifyLoginOTP(ctx, email, code)
	if err == nil {
		err = tokenstore.SaveLogin(ctx, o.store, *resp, remember)
	}

	o.mu.Lock()
	o.loading = false
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	done := noop
	if err != nil {
		o.state.Error = api.UserMessage(err, MsgLoginInvalidOTP)
		otellogger.InfoCtx(ctx, "otp login rejected", zap.Error(err))
	} else {
		o.phase++
		o.timer.Stop()
		o.state.Step = enums.OTPLoginStepCompleted
		o.afterLocked(o.deps.Config.SuccessDelay, func() { o.navigate(enums.RouteDashboard) })
		done = func() { o.deps.Notifier.Success(MsgLoginSuccessful) }
		otellogger.InfoCtx(ctx, "otp login succeeded", zap.String("email", email))
	}
	emit = o.emitLocked()
	o.mu.Unlock()
	emit()
	done()
	return err
}

// Resend requests a new code. It is only available once the countdown reached
// zero; success restarts the countdown and clears the digits.
func (o *OTPLogin) Resend(ctx context.Context) error {
	o.mu.Lock()
	if o.state.Step != enums.OTPLoginStepAwaitingOTP {
		o.mu.Unlock()
		return ErrWrongStep
	}
	if o.state.SecondsLeft > 0 {
		o.mu.Unlock()
		return ErrResendUnavailable
	}
	if err := o.beginLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.state.Error = ""
	email := o.state.Email
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()

	_, err := o.client.ResendLoginOTP(ctx, email)
	metrics.RecordOTPRequest(ctx, "login", true)

	o.mu.Lock()
	o.loading = false
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		o.state.Error = api.UserMessage(err, MsgResendOTPFailed)
	} else {
		o.restartLocked()
	}
	emit = o.emitLocked()
	o.mu.Unlock()
	emit()
	return err
}

// ChangeEmail goes back to the email step and stops the countdown.
func (o *OTPLogin) ChangeEmail() error {
	o.mu.Lock()
	if o.loading {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.state.Step != enums.OTPLoginStepAwaitingOTP {
		o.mu.Unlock()
		return ErrWrongStep
	}
	o.phase++
	o.timer.Stop()
	o.state = OTPLoginState{Step: enums.OTPLoginStepEnteringEmail, Email: o.state.Email, RememberMe: o.state.RememberMe}
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()
	return nil
}

func (o *OTPLogin) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeLocked()
	o.phase++
	o.timer.Stop()
}

func (o *OTPLogin) restartLocked() {
	o.phase++
	phase := o.phase
	ttl := o.deps.Config.OTPTTL

	o.state.Digits = [OTPLength]string{}
	o.state.Focus = 0
	o.state.Expired = false
	o.state.SecondsLeft = seconds(ttl)
	o.timer.Start(ttl, func(left int) {
		o.update(phase, func(s *OTPLoginState) { s.SecondsLeft = left })
	}, func() {
		o.update(phase, func(s *OTPLoginState) {
			s.Expired = true
			s.Error = MsgLoginOTPExpired
		})
	})
}

func (o *OTPLogin) update(phase uint64, fn func(*OTPLoginState)) {
	o.mu.Lock()
	if phase != o.phase || o.closed {
		o.mu.Unlock()
		return
	}
	fn(&o.state)
	emit := o.emitLocked()
	o.mu.Unlock()
	emit()
}

func filled(digits [OTPLength]string) bool {
	for _, d := range digits {
		if d == "" {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
