// Package session decides whether the stored session is usable and keeps
// protected locations behind that decision.
package session

import (
	"context"

	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"github.com/octabyte/taskdesk/tokenstore"
	"go.uber.org/zap"
)

// TokenClient is the part of api.Client the verifier needs.
type TokenClient interface {
	VerifyToken(ctx context.Context, token string) error
	RefreshAccessToken(ctx context.Context) (string, error)
}

type Verifier struct {
	client TokenClient
	store  tokenstore.Store
}

func NewVerifier(client TokenClient, store tokenstore.Store) *Verifier {
	return &Verifier{client: client, store: store}
}

// Verify reports whether the session is valid. Without an access token it
// answers false without touching the network. A rejected token gets exactly
// one refresh attempt; if that fails the session is cleared.
func (v *Verifier) Verify(ctx context.Context) bool {
	tokens := tokenstore.Load(ctx, v.store)
	if tokens.Access == "" {
		return false
	}

	err := v.client.VerifyToken(ctx, tokens.Access)
	if err == nil {
		return true
	}
	otellogger.DebugCtx(ctx, "access token rejected, refreshing", zap.Error(err))

	if _, err := v.client.RefreshAccessToken(ctx); err != nil {
		if ctx.Err() != nil {
			return false
		}
		otellogger.InfoCtx(ctx, "session could not be renewed", zap.Error(err))
		if err := v.store.Clear(ctx); err != nil {
			otellogger.ErrorCtx(ctx, "failed to clear session", err)
		}
		return false
	}
	return true
}

// IsAuthenticated reports whether an access token is stored. It does not verify it.
func IsAuthenticated(ctx context.Context, store tokenstore.Store) bool {
	return store.HasAccess(ctx)
}
