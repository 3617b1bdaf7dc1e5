package tokenstore

import (
	"context"
	"fmt"

	redisdb "github.com/octabyte/taskdesk/db/redis"
	"github.com/octabyte/taskdesk/enums"
)

type Config struct {
	Driver enums.StoreDriver `yaml:"driver" validate:"required,oneof=memory file redis"`
	Path   string            `yaml:"path"`
	Prefix string            `yaml:"prefix"`
	Redis  redisdb.Config    `yaml:"redis"`
}

// New builds the store selected by cfg.Driver. The returned closer releases
// backend connections and is never nil.
func New(ctx context.Context, cfg Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case enums.StoreDriverMemory:
		return NewMemoryStore(), noop, nil
	case enums.StoreDriverFile, "":
		store, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case enums.StoreDriverRedis:
		client, err := redisdb.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisStore(client, cfg.Prefix), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
