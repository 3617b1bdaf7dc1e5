package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/utils/logger"
	"go.uber.org/zap"
)

var ErrUnknownDriver = errors.New("unknown token store driver")

// Change reports which entry was written. Key is enums.StoreKeyAll after Clear.
type Change struct {
	Key enums.StoreKey
}

// Store is the only holder of session credentials. Every write goes through
// Set, SetUser, MarkTabScoped or Clear; readers never mutate.
type Store interface {
	// Get returns the stored token pair; missing entries are empty strings.
	Get(ctx context.Context) (models.Tokens, error)
	// Set writes the non-empty fields of tokens and leaves the others untouched.
	Set(ctx context.Context, tokens models.Tokens) error
	SetUser(ctx context.Context, user models.User) error
	// User returns the cached profile, or nil when none is stored.
	User(ctx context.Context) (*models.User, error)
	MarkTabScoped(ctx context.Context) error
	Session(ctx context.Context) (models.Session, error)
	// Clear removes every entry. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
	HasAccess(ctx context.Context) bool
	// Watch streams changes until ctx is done.
	Watch(ctx context.Context) (<-chan Change, error)
}

// Load reads the token pair, treating an unreadable store as logged out.
func Load(ctx context.Context, s Store) models.Tokens {
	tokens, err := s.Get(ctx)
	if err != nil {
		logger.LogWarn("token store unavailable, treating session as logged out", zap.Error(err))
		return models.Tokens{}
	}
	return tokens
}

// CurrentUser returns the cached profile, or nil when absent or unreadable.
func CurrentUser(ctx context.Context, s Store) *models.User {
	user, err := s.User(ctx)
	if err != nil {
		logger.LogWarn("failed to read cached user", zap.Error(err))
		return nil
	}
	return user
}

// SaveLogin persists the result of a successful login.
func SaveLogin(ctx context.Context, s Store, resp models.AuthResponse, rememberMe bool) error {
	if err := s.Set(ctx, resp.Tokens()); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	if resp.User != nil {
		if err := s.SetUser(ctx, *resp.User); err != nil {
			return fmt.Errorf("failed to store user: %w", err)
		}
	}
	if !rememberMe {
		if err := s.MarkTabScoped(ctx); err != nil {
			return fmt.Errorf("failed to mark session: %w", err)
		}
	}
	return nil
}

// diff lists the entries that differ between two snapshots.
func diff(before, after models.Session) []Change {
	if after.LoggedOut() && after.User == nil && !after.TabScoped {
		if before.LoggedOut() && before.User == nil && !before.TabScoped {
			return nil
		}
		return []Change{{Key: enums.StoreKeyAll}}
	}

	var changes []Change
	if before.Access != after.Access {
		changes = append(changes, Change{Key: enums.StoreKeyAccess})
	}
	if before.Refresh != after.Refresh {
		changes = append(changes, Change{Key: enums.StoreKeyRefresh})
	}
	if !sameUser(before.User, after.User) {
		changes = append(changes, Change{Key: enums.StoreKeyUser})
	}
	if before.TabScoped != after.TabScoped {
		changes = append(changes, Change{Key: enums.StoreKeyTempSession})
	}
	return changes
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func merge(session models.Session, tokens models.Tokens) models.Session {
	if tokens.Access != "" {
		session.Access = tokens.Access
	}
	if tokens.Refresh != "" {
		session.Refresh = tokens.Refresh
	}
	return session
}
