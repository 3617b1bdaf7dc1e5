package session

import (
	"context"

	"github.com/octabyte/taskdesk/enums"
	otellogger "github.com/octabyte/taskdesk/otel/logger"
	"github.com/octabyte/taskdesk/router"
	"github.com/octabyte/taskdesk/tokenstore"
	"go.uber.org/zap"
)

type LogoutClient interface {
	Logout(ctx context.Context, refresh string) error
}

// Logout asks the backend to blacklist the refresh token when one is stored,
// clears the store whatever the outcome and returns to login.
func Logout(ctx context.Context, client LogoutClient, store tokenstore.Store, nav router.Navigator) error {
	tokens := tokenstore.Load(ctx, store)
	if tokens.Refresh != "" {
		if err := client.Logout(ctx, tokens.Refresh); err != nil {
			otellogger.WarnCtx(ctx, "server logout failed, clearing locally", zap.Error(err))
		}
	}

	if err := store.Clear(ctx); err != nil {
		otellogger.ErrorCtx(ctx, "failed to clear session", err)
	}
	return nav.Navigate(ctx, enums.RouteLogin)
}
