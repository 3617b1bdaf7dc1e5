package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/otel"
	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"github.com/octabyte/taskdesk/otel/metrics"
	"github.com/octabyte/taskdesk/tokenstore"
	ctxutil "github.com/octabyte/taskdesk/utils/context"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL = "https://task.affils.site/api"
	DefaultTimeout = 5 * time.Second

	clientName      = "taskdesk-api"
	requestIDHeader = "X-Request-ID"
	refreshKey      = "refresh"
)

// Session end reasons reported to metrics and to the SessionEndFunc.
const (
	ReasonNoRefreshToken     = "no_refresh_token"
	ReasonRefreshFailed      = "refresh_failed"
	ReasonRejectedAfterRetry = "rejected_after_refresh"
)

type Config struct {
	BaseURL     string        `yaml:"baseURL" validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
	ServiceName string        `yaml:"-"`
	UserAgent   string        `yaml:"userAgent"`
}

// SessionEndFunc runs after the client cleared the store because the session could not be renewed.
type SessionEndFunc func(ctx context.Context, reason string)

type Option func(*Client)

func WithSessionEndHandler(fn SessionEndFunc) Option {
	return func(c *Client) {
		c.onSessionEnd = fn
	}
}

// Client is the single path to the backend. It attaches credentials from the
// store and renews the access token once when a request is rejected with 401.
type Client struct {
	cfg   Config
	rest  *resty.Client
	store tokenstore.Store

	refreshGroup singleflight.Group
	onSessionEnd SessionEndFunc
}

func New(cfg Config, store tokenstore.Store, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = clientName
	}

	c := &Client{cfg: cfg, store: store}

	rest := otel.NewTracedRestyClient(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.UserAgent != "" {
		rest.SetHeader("User-Agent", cfg.UserAgent)
	}
	rest.JSONMarshal = json.Marshal
	rest.JSONUnmarshal = json.Unmarshal
	rest.SetLogger(zap.L().Named("resty").Sugar())

	rest.OnBeforeRequest(c.attachCredentials)
	rest.OnBeforeRequest(attachRequestID)
	c.rest = rest

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

func (c *Client) Store() tokenstore.Store {
	return c.store
}

func (c *Client) attachCredentials(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	if ctxutil.SkipsAuth(ctx) || req.Token != "" {
		return nil
	}
	if tokens := tokenstore.Load(ctx, c.store); tokens.Access != "" {
		req.SetAuthToken(tokens.Access)
	}
	return nil
}

func attachRequestID(_ *resty.Client, req *resty.Request) error {
	id := ctxutil.GetRequestIDFromContext(req.Context())
	if id == "" {
		id = uuid.NewString()
	}
	req.SetHeader(requestIDHeader, id)
	return nil
}

type call struct {
	operation string
	method    string
	path      string
	body      interface{}
	result    interface{}
	// public requests carry no bearer and never trigger a refresh.
	public bool
	// noRefresh requests carry the bearer but surface a 401 as is.
	noRefresh bool
}

// do sends c and, on a first 401, renews the access token and resends once.
func (c *Client) do(ctx context.Context, r call) error {
	err := c.send(ctx, r, "")
	if err == nil || !IsUnauthorized(err) || r.public || r.noRefresh || ctxutil.IsRetried(ctx) {
		return err
	}

	ctx = ctxutil.MarkRetried(ctx)
	access, refreshErr := c.RefreshAccessToken(ctx)
	if refreshErr != nil {
		if ctx.Err() != nil {
			return refreshErr
		}
		if errors.Is(refreshErr, ErrNoRefreshToken) {
			c.EndSession(ctx, ReasonNoRefreshToken)
			return err
		}
		c.EndSession(ctx, ReasonRefreshFailed)
		return refreshErr
	}

	retryErr := c.send(ctx, r, access)
	if IsUnauthorized(retryErr) {
		c.EndSession(ctx, ReasonRejectedAfterRetry)
	}
	return retryErr
}

func (c *Client) send(ctx context.Context, r call, bearer string) error {
	if r.public {
		ctx = ctxutil.WithoutAuth(ctx)
	}
	ctx, finish := otel.StartHTTPSpan(ctx, c.cfg.ServiceName, clientName, r.operation, r.method, c.cfg.BaseURL, r.path)

	req := c.rest.R().SetContext(ctx)
	if bearer != "" {
		req.SetAuthToken(bearer)
	}
	if r.body != nil {
		req.SetBody(r.body)
	}
	if r.result != nil {
		req.SetResult(r.result)
	}

	start := time.Now()
	resp, err := req.Execute(r.method, r.path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	metrics.RecordAPIRequest(ctx, r.method, r.operation, status, time.Since(start))

	if err != nil {
		apiErr := &Error{Kind: kindFor(status), Status: status, Method: r.method, Path: r.path, Err: err}
		if status > 0 && status < 400 {
			apiErr.Kind = KindUnexpected
		}
		finish(status, apiErr)
		otellogger.WarnCtx(ctx, "api request failed", zap.String("operation", r.operation), zap.Error(err))
		return apiErr
	}

	finish(status, nil)
	if resp.IsError() {
		body := resp.Body()
		apiErr := &Error{
			Kind:    kindFor(status),
			Status:  status,
			Method:  r.method,
			Path:    r.path,
			Message: extractMessage(body),
			Body:    body,
		}
		otellogger.DebugCtx(ctx, "api request rejected",
			zap.String("operation", r.operation),
			zap.Int("status", status),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}
	return nil
}

// RefreshAccessToken exchanges the stored refresh token for a new access token.
// Concurrent callers share one request, which outlives any single caller's
// cancellation and is bounded by the client timeout instead.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
		defer cancel()
		return c.refresh(shared)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	tokens := tokenstore.Load(ctx, c.store)
	if tokens.Refresh == "" {
		return "", ErrNoRefreshToken
	}

	var out models.TokenRefreshResponse
	err := c.send(ctx, call{
		operation: "token_refresh",
		method:    http.MethodPost,
		path:      PathTokenRefresh,
		body:      models.TokenRefreshRequest{Refresh: tokens.Refresh},
		result:    &out,
		public:    true,
	}, "")
	if err == nil && out.Access == "" {
		err = ErrEmptyAccessToken
	}
	metrics.RecordTokenRefresh(ctx, err == nil)
	if err != nil {
		otellogger.WarnCtx(ctx, "access token refresh failed", zap.Error(err))
		return "", err
	}

	if err := c.store.Set(ctx, models.Tokens{Access: out.Access, Refresh: out.Refresh}); err != nil {
		return "", err
	}
	otellogger.DebugCtx(ctx, "access token refreshed", zap.Bool("rotated", out.Refresh != ""))
	return out.Access, nil
}

// EndSession clears the store and notifies the session end hook.
func (c *Client) EndSession(ctx context.Context, reason string) {
	if err := c.store.Clear(ctx); err != nil {
		otellogger.ErrorCtx(ctx, "failed to clear session", err)
	}
	metrics.RecordSessionEnded(ctx, reason)
	otellogger.InfoCtx(ctx, "session ended", zap.String("reason", reason))

	if c.onSessionEnd != nil {
		c.onSessionEnd(ctx, reason)
	}
}
