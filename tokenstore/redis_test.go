package tokenstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	redisdb "github.com/octabyte/taskdesk/db/redis"
	"github.com/octabyte/taskdesk/enums"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tContainer "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisStoreTestSuite struct {
	suite.Suite
	ctx       context.Context
	container tContainer.Container
	client    *redis.Client
}

func (s *RedisStoreTestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping redis container tests in short mode")
	}
	tContainer.SkipIfProviderIsNotHealthy(s.T())

	s.ctx = context.Background()

	req := tContainer.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	container, err := tContainer.GenericContainer(s.ctx, tContainer.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)

	port, err := container.MappedPort(s.ctx, "6379")
	s.Require().NoError(err)

	client, err := redisdb.NewRedisClient(s.ctx, redisdb.Config{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	s.Require().NoError(err)
	s.client = client
}

func (s *RedisStoreTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

// newStore isolates each test under its own key prefix.
func (s *RedisStoreTestSuite) newStore() *RedisStore {
	return NewRedisStore(s.client, "test:"+uuid.NewString()+":")
}

func (s *RedisStoreTestSuite) TestContract() {
	runStoreContract(s.T(), func(t *testing.T) Store {
		return s.newStore()
	})
}

func (s *RedisStoreTestSuite) TestCorruptUserIsRemoved() {
	store := s.newStore()
	s.Require().NoError(redisdb.Set(s.ctx, s.client, store.key(enums.StoreKeyUser), "{broken", 0))

	user, err := store.User(s.ctx)
	s.Require().NoError(err)
	s.Nil(user)

	exists, err := redisdb.Exists(s.ctx, s.client, store.key(enums.StoreKeyUser))
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RedisStoreTestSuite) TestStoresShareSession() {
	prefix := "shared:" + uuid.NewString() + ":"
	first := NewRedisStore(s.client, prefix)
	second := NewRedisStore(s.client, prefix)

	s.Require().NoError(first.Set(s.ctx, tokensFor("a1", "r1")))
	s.True(second.HasAccess(s.ctx))

	s.Require().NoError(second.Clear(s.ctx))
	s.False(first.HasAccess(s.ctx))
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}
