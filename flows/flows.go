// Package flows holds the state machines behind the sign-in, registration and
// profile screens. Every flow is safe for concurrent use; user actions block
// on the network while timers fire from the clock.
package flows

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/notify"
	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"github.com/octabyte/taskdesk/router"
	"go.uber.org/zap"
)

var (
	ErrBusy              = errors.New("a request is already in flight")
	ErrClosed            = errors.New("flow closed")
	ErrWrongStep         = errors.New("action not available in the current step")
	ErrOTPExpired        = errors.New("otp expired")
	ErrResendUnavailable = errors.New("resend not available yet")
	ErrPasswordMismatch  = errors.New("passwords do not match")
)

const (
	MsgRegistrationOTPExpired = `Your OTP has expired. Please click "Resend OTP" to get a new one.`
	MsgRequestNewOTP          = "Your OTP has expired. Please request a new one."
	MsgRegistrationFailed     = "An error occurred during registration"
	MsgRegistrationInvalidOTP = "Invalid OTP. Please try again."
	MsgResendFailed           = "Failed to resend OTP"
	MsgSessionExpired         = "Registration session expired. Please start over."
	MsgRegistrationComplete   = "Registration completed successfully!"

	MsgInvalidEmail       = "Please enter a valid email address"
	MsgInvalidOTPLength   = "Please enter a valid 6-digit OTP"
	MsgLoginOTPExpired    = "OTP expired. Please request a new one."
	MsgSendOTPFailed      = "Failed to send OTP. Please try again."
	MsgResendOTPFailed    = "Failed to resend OTP. Please try again."
	MsgLoginInvalidOTP    = "Invalid OTP. Please try again."
	MsgInvalidCredentials = "Invalid email or password"
	MsgLoginSuccessful    = "Login successful!"
)

const (
	DefaultOTPTTL            = 60 * time.Second
	DefaultResendCooldown    = 60 * time.Second
	DefaultSessionResetDelay = 2 * time.Second
	DefaultSuccessDelay      = 1500 * time.Millisecond
)

type Config struct {
	OTPTTL            time.Duration `yaml:"ttl" validate:"gt=0"`
	ResendCooldown    time.Duration `yaml:"resendCooldown" validate:"gte=0"`
	SessionResetDelay time.Duration `yaml:"sessionResetDelay" validate:"gte=0"`
	SuccessDelay      time.Duration `yaml:"successDelay" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		OTPTTL:            DefaultOTPTTL,
		ResendCooldown:    DefaultResendCooldown,
		SessionResetDelay: DefaultSessionResetDelay,
		SuccessDelay:      DefaultSuccessDelay,
	}
}

// Deps are the collaborators shared by every flow. Nil Clock and Notifier
// fall back to the wall clock and a private notifier.
type Deps struct {
	Clock    clock.Clock
	Nav      router.Navigator
	Notifier *notify.Notifier
	Config   Config
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Notifier == nil {
		d.Notifier = notify.New(d.Clock, notify.DefaultTTL)
	}
	if d.Config == (Config{}) {
		d.Config = DefaultConfig()
	}
	return d
}

// base carries the lifecycle every flow shares: a lock, a closed flag checked
// after each network call and delayed actions cancelled on Close.
type base struct {
	deps Deps

	mu      sync.Mutex
	closed  bool
	loading bool
	later   []*clock.Timer
}

// beginLocked claims the in-flight slot.
func (b *base) beginLocked() error {
	if b.closed {
		return ErrClosed
	}
	if b.loading {
		return ErrBusy
	}
	b.loading = true
	return nil
}

// afterLocked runs fn after d unless the flow is closed first.
func (b *base) afterLocked(d time.Duration, fn func()) {
	var t *clock.Timer
	t = b.deps.Clock.AfterFunc(d, func() {
		b.mu.Lock()
		closed := b.closed
		b.forgetLocked(t)
		b.mu.Unlock()
		if !closed {
			fn()
		}
	})
	b.later = append(b.later, t)
}

func (b *base) forgetLocked(t *clock.Timer) {
	for i, pending := range b.later {
		if pending == t {
			b.later = append(b.later[:i], b.later[i+1:]...)
			return
		}
	}
}

func (b *base) cancelLaterLocked() {
	for _, t := range b.later {
		t.Stop()
	}
	b.later = nil
}

func (b *base) closeLocked() {
	b.closed = true
	b.cancelLaterLocked()
}

// navigate moves to route on a context detached from the action that scheduled it.
func (b *base) navigate(route enums.Route) {
	if b.deps.Nav == nil {
		return
	}
	ctx := context.Background()
	if err := b.deps.Nav.Navigate(ctx, route); err != nil {
		otellogger.WarnCtx(ctx, "navigation failed", zap.String("route", string(route)), zap.Error(err))
	}
}

func noop() {}

func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
