// Package fakeapi is an in-memory rendition of the task-management backend.
// It serves the same routes and error bodies and is used by tests and by
// `taskdesk serve-fake` for local development.
package fakeapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/octabyte/taskdesk/interfaces/http/echo/middleware"
	"github.com/octabyte/taskdesk/models"
	otelecho "github.com/octabyte/taskdesk/otel/echo"
	"github.com/octabyte/taskdesk/utils/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	Prefix = "/api"

	DefaultSecret     = "taskdesk-dev-secret"
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
	DefaultOTPTTL     = 60 * time.Second
	// registration data outlives its OTP so a resend can still complete it
	DefaultRegistrationTTL = 5 * time.Minute
)

type Config struct {
	Secret          string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	OTPTTL          time.Duration
	RegistrationTTL time.Duration
	// RotateRefresh makes the refresh endpoint return a new refresh token and blacklist the old one.
	RotateRefresh bool
	ServiceName   string
	Clock         clock.Clock
	// OTP generates the codes that would be emailed. Random six digits when nil.
	OTP func() string
}

type account struct {
	user models.User
	hash []byte
}

func newAccount(user models.User, password string) *account {
	a := &account{user: user}
	a.setPassword(password)
	return a
}

func (a *account) setPassword(password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		logger.LogWarn("password not stored", zap.String("email", a.user.Email), zap.Error(err))
		hash = nil
	}
	a.hash = hash
}

func (a *account) checkPassword(password string) bool {
	return a.hash != nil && bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
}

type pendingOTP struct {
	code    string
	expires time.Time
}

type pendingRegistration struct {
	request models.RegistrationRequest
	expires time.Time
}

type injectedFailure struct {
	status int
	body   interface{}
}

type Server struct {
	cfg   Config
	clock clock.Clock
	echo  *echo.Echo

	mu            sync.Mutex
	accounts      map[string]*account
	registrations map[string]*pendingRegistration
	otps          map[string]*pendingOTP
	blacklist     map[string]bool
	accessGen     int
	refreshGen    int
	tasks         map[int]*storedTask
	categories    map[int]*storedCategory
	nextTaskID    int
	nextCatID     int
	calls         map[string]int
	failures      map[string][]injectedFailure
	delays        map[string]time.Duration
	lastOTP       map[string]string
}

func New(cfg Config) *Server {
	if cfg.Secret == "" {
		cfg.Secret = DefaultSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = DefaultOTPTTL
	}
	if cfg.RegistrationTTL <= 0 {
		cfg.RegistrationTTL = DefaultRegistrationTTL
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "taskdesk-fakeapi"
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.OTP == nil {
		cfg.OTP = randomOTP
	}

	s := &Server{
		cfg:           cfg,
		clock:         cfg.Clock,
		accounts:      map[string]*account{},
		registrations: map[string]*pendingRegistration{},
		otps:          map[string]*pendingOTP{},
		blacklist:     map[string]bool{},
		tasks:         map[int]*storedTask{},
		categories:    map[int]*storedCategory{},
		nextTaskID:    1,
		nextCatID:     1,
		calls:         map[string]int{},
		failures:      map[string][]injectedFailure{},
		delays:        map[string]time.Duration{},
		lastOTP:       map[string]string{},
	}
	s.echo = s.newEcho()
	return s
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = errorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.SetRequestIDInContext())
	e.Use(middleware.SetTokenInContext())
	e.Use(otelecho.Middleware(s.cfg.ServiceName))
	e.Use(middleware.SetSessionFromJWTToken(s.verifyAccess))
	e.Use(s.instrument)

	api := e.Group(Prefix)

	users := api.Group("/users")
	users.POST("/register/initiate/", s.initiateRegistration)
	users.POST("/register/verify-otp/", s.verifyRegistration)
	users.POST("/register/resend-otp/", s.resendRegistration)
	users.POST("/login/password/", s.passwordLogin)
	users.POST("/login/otp/request/", s.requestLoginOTP)
	users.POST("/login/otp/resend/", s.resendLoginOTP)
	users.POST("/login/otp/verify/", s.verifyLoginOTP)
	users.POST("/token/refresh/", s.refreshToken)
	users.POST("/token/verify/", s.verifyToken)

	authed := api.Group("", middleware.RequireSession())
	authed.POST("/users/logout/", s.logout)
	authed.GET("/users/profile/", s.getProfile)
	authed.PATCH("/users/profile/", s.updateProfile)
	authed.POST("/users/change-password/", s.changePassword)

	authed.GET("/tasks/tasks/", s.listTasks)
	authed.POST("/tasks/tasks/", s.createTask)
	authed.GET("/tasks/tasks/stats/", s.taskStats)
	authed.GET("/tasks/tasks/:id/", s.getTask)
	authed.PUT("/tasks/tasks/:id/", s.updateTask)
	authed.PATCH("/tasks/tasks/:id/", s.patchTask)
	authed.DELETE("/tasks/tasks/:id/", s.deleteTask)

	authed.GET("/tasks/categories/", s.listCategories)
	authed.POST("/tasks/categories/", s.createCategory)
	authed.PUT("/tasks/categories/:id/", s.updateCategory)
	authed.DELETE("/tasks/categories/:id/", s.deleteCategory)

	return e
}

// instrument counts calls per route and applies injected delays and failures.
func (s *Server) instrument(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := strings.TrimPrefix(c.Path(), Prefix)

		s.mu.Lock()
		s.calls[route]++
		delay := s.delays[route]
		var failure *injectedFailure
		if queued := s.failures[route]; len(queued) > 0 {
			failure = &queued[0]
			s.failures[route] = queued[1:]
		}
		s.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if failure != nil {
			if failure.body == nil {
				return c.NoContent(failure.status)
			}
			return c.JSON(failure.status, failure.body)
		}

		logger.LogDebug("fakeapi request",
			zap.String("method", c.Request().Method),
			zap.String("route", route),
		)
		return next(c)
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	detail := "A server error occurred."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
	}
	if status >= http.StatusInternalServerError {
		logger.LogError("fakeapi handler failed", zap.Error(err))
	}
	_ = c.JSON(status, map[string]string{"detail": detail})
}
