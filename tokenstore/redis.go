package tokenstore

import (
	"context"
	"fmt"

	redisdb "github.com/octabyte/taskdesk/db/redis"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/utils"
	"github.com/octabyte/taskdesk/utils/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultRedisPrefix = "taskdesk:session:"

	changesChannel = "changes"
	clearedPayload = "*"
	tabScopedValue = "true"
)

// RedisStore shares one session between every process pointed at the same prefix.
// Writes are announced on a pub/sub channel under the same prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k enums.StoreKey) string {
	return s.prefix + string(k)
}

func (s *RedisStore) channel() string {
	return s.prefix + changesChannel
}

func (s *RedisStore) Get(ctx context.Context) (models.Tokens, error) {
	values, err := redisdb.MGet(ctx, s.client, s.key(enums.StoreKeyAccess), s.key(enums.StoreKeyRefresh))
	if err != nil {
		return models.Tokens{}, fmt.Errorf("failed to read tokens: %w", err)
	}
	return models.Tokens{Access: values[0], Refresh: values[1]}, nil
}

func (s *RedisStore) Set(ctx context.Context, tokens models.Tokens) error {
	if tokens.Access != "" {
		if err := s.put(ctx, enums.StoreKeyAccess, tokens.Access); err != nil {
			return err
		}
	}
	if tokens.Refresh != "" {
		if err := s.put(ctx, enums.StoreKeyRefresh, tokens.Refresh); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) SetUser(ctx context.Context, user models.User) error {
	data, err := utils.StructToBytes(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.put(ctx, enums.StoreKeyUser, string(data))
}

func (s *RedisStore) User(ctx context.Context) (*models.User, error) {
	raw, err := redisdb.GetOptional(ctx, s.client, s.key(enums.StoreKeyUser))
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var user models.User
	if err := utils.BytesToStruct([]byte(raw), &user); err != nil {
		logger.LogWarn("removing corrupt cached user", zap.Error(err))
		if _, err := redisdb.Del(ctx, s.client, s.key(enums.StoreKeyUser)); err != nil {
			return nil, fmt.Errorf("failed to remove corrupt user: %w", err)
		}
		return nil, nil
	}
	return &user, nil
}

func (s *RedisStore) MarkTabScoped(ctx context.Context) error {
	return s.put(ctx, enums.StoreKeyTempSession, tabScopedValue)
}

func (s *RedisStore) Session(ctx context.Context) (models.Session, error) {
	tokens, err := s.Get(ctx)
	if err != nil {
		return models.Session{}, err
	}
	user, err := s.User(ctx)
	if err != nil {
		return models.Session{}, err
	}
	flag, err := redisdb.GetOptional(ctx, s.client, s.key(enums.StoreKeyTempSession))
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to read session flag: %w", err)
	}
	return models.Session{Tokens: tokens, User: user, TabScoped: flag == tabScopedValue}, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	removed, err := redisdb.Del(ctx, s.client,
		s.key(enums.StoreKeyAccess),
		s.key(enums.StoreKeyRefresh),
		s.key(enums.StoreKeyUser),
		s.key(enums.StoreKeyTempSession),
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if removed == 0 {
		return nil
	}
	return s.announce(ctx, clearedPayload)
}

func (s *RedisStore) HasAccess(ctx context.Context) bool {
	return Load(ctx, s).Access != ""
}

func (s *RedisStore) Watch(ctx context.Context) (<-chan Change, error) {
	sub, err := redisdb.Subscribe(ctx, s.client, s.channel())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to session changes: %w", err)
	}

	out := make(chan Change, watchBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change := Change{Key: enums.StoreKey(msg.Payload)}
				if msg.Payload == clearedPayload {
					change.Key = enums.StoreKeyAll
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *RedisStore) put(ctx context.Context, key enums.StoreKey, value string) error {
	if err := redisdb.Set(ctx, s.client, s.key(key), value, 0); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return s.announce(ctx, string(key))
}

func (s *RedisStore) announce(ctx context.Context, payload string) error {
	if err := redisdb.Publish(ctx, s.client, s.channel(), payload); err != nil {
		// The value is stored; watchers only miss the notification.
		logger.LogWarn("failed to publish session change", zap.String("key", payload), zap.Error(err))
	}
	return nil
}
