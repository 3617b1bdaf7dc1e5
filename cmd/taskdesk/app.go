package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/facebookgo/clock"
	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/config"
	"github.com/octabyte/taskdesk/dashboard"
	"github.com/octabyte/taskdesk/flows"
	"github.com/octabyte/taskdesk/notify"
	"github.com/octabyte/taskdesk/otel"
	"github.com/octabyte/taskdesk/router"
	"github.com/octabyte/taskdesk/session"
	"github.com/octabyte/taskdesk/tokenstore"
	"github.com/octabyte/taskdesk/utils/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// app is everything a command needs, wired from one Config.
type app struct {
	cfg      *config.Config
	clock    clock.Clock
	store    tokenstore.Store
	client   *api.Client
	router   *router.Router
	guard    *session.Guard
	notifier *notify.Notifier

	closers []func(context.Context) error
}

// newApp initializes logging and telemetry, opens the token store and builds
// the client, router and guard. Interactive commands log to a file so the
// terminal stays readable.
func newApp(ctx context.Context, cfg *config.Config, interactive bool) (*app, error) {
	if err := initLogger(cfg, interactive); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, clock: clock.New()}

	shutdownOtel, err := otel.InitOpenTelemetry(ctx, cfg.Otel)
	if err != nil {
		return nil, errors.Wrap(err, "init opentelemetry")
	}
	a.closers = append(a.closers, shutdownOtel)

	store, closeStore, err := tokenstore.New(ctx, cfg.Store)
	if err != nil {
		_ = a.close()
		return nil, errors.Wrap(err, "open token store")
	}
	a.store = store
	a.closers = append(a.closers, func(context.Context) error { return closeStore() })

	apiCfg := cfg.API
	apiCfg.ServiceName = cfg.Env.ServiceName
	a.router = router.New()
	a.client = api.New(apiCfg, store, api.WithSessionEndHandler(a.router.SessionEnded))
	a.guard = session.NewGuard(session.NewVerifier(a.client, store), a.router, store)
	a.router.SetGuard(a.guard)
	a.notifier = notify.New(a.clock, cfg.Notify.TTL)
	a.closers = append(a.closers, func(context.Context) error {
		a.notifier.Close()
		return nil
	})

	if interactive {
		watchCtx, stopWatch := context.WithCancel(ctx)
		a.closers = append(a.closers, func(context.Context) error {
			stopWatch()
			return nil
		})
		if err := a.guard.Watch(watchCtx); err != nil {
			logger.LogWarn("session watch unavailable", zap.Error(err))
		}
	}

	logger.LogDebug("app ready",
		zap.String("baseURL", apiCfg.BaseURL),
		zap.String("store", string(cfg.Store.Driver)))
	return a, nil
}

func initLogger(cfg *config.Config, interactive bool) error {
	logCfg := &logger.Config{
		Level:       cfg.Env.Log.Level,
		Env:         cfg.Env.Env,
		ServiceName: cfg.Env.ServiceName,
		Encoding:    cfg.Env.Log.Encoding,
	}
	switch {
	case cfg.Env.Log.File != "":
		logCfg.OutputPaths = []string{cfg.Env.Log.File}
	case interactive:
		logCfg.OutputPaths = []string{filepath.Join(os.TempDir(), "taskdesk.log")}
	}
	return logger.Init(logCfg)
}

func (a *app) deps() flows.Deps {
	return flows.Deps{Clock: a.clock, Nav: a.router, Notifier: a.notifier, Config: a.cfg.OTP}
}

func (a *app) dashboard() *dashboard.Service {
	return dashboard.NewService(a.client, dashboard.NewStore(dashboard.InitialState()))
}

func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	logger.Sync()
	if len(errs) > 0 {
		return errors.Errorf("shutdown: %v", errs)
	}
	return nil
}
