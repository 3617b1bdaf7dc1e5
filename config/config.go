// Package config loads taskdesk settings. Values come from the built-in
// defaults, then an optional YAML file, then TASKDESK_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/octabyte/taskdesk/api"
	redisdb "github.com/octabyte/taskdesk/db/redis"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/flows"
	"github.com/octabyte/taskdesk/notify"
	"github.com/octabyte/taskdesk/otel"
	"github.com/octabyte/taskdesk/tokenstore"
	"github.com/octabyte/taskdesk/validation"
	"github.com/pkg/errors"
)

const (
	EnvPrefix = "TASKDESK_"
	// EnvFile names the YAML file to load when no path is passed to Load.
	EnvFile = EnvPrefix + "CONFIG"

	DefaultBaseURL     = "http://localhost:8000/api"
	DefaultServiceName = "taskdesk"
	DefaultFakeAddr    = "localhost:8000"
)

type Log struct {
	Level    string `yaml:"level" validate:"omitempty,oneof=debug info warn error fatal"`
	Encoding string `yaml:"encoding" validate:"omitempty,oneof=json console"`
	// File receives log output; the interactive commands keep stderr clean this way.
	File string `yaml:"file"`
}

type Env struct {
	Env         string `yaml:"env"`
	ServiceName string `yaml:"serviceName" validate:"required"`
	Log         Log    `yaml:"log"`
}

type Notify struct {
	TTL time.Duration `yaml:"ttl" validate:"gt=0"`
}

// FakeAPI configures `taskdesk serve-fake`.
type FakeAPI struct {
	Addr          string `yaml:"addr" validate:"required,hostname_port"`
	Secret        string `yaml:"secret"`
	RotateRefresh bool   `yaml:"rotateRefresh"`
	// OTP fixes every emailed code, which makes local demos scriptable.
	OTP string `yaml:"otp" validate:"omitempty,len=6,numeric"`
}

type Config struct {
	Env     Env               `yaml:"env"`
	API     api.Config        `yaml:"api"`
	Store   tokenstore.Config `yaml:"store"`
	OTP     flows.Config      `yaml:"otp"`
	Notify  Notify            `yaml:"notify"`
	Otel    otel.OtelConfig   `yaml:"otel"`
	FakeAPI FakeAPI           `yaml:"fakeapi"`
}

func Default() *Config {
	return &Config{
		Env: Env{
			Env:         "local",
			ServiceName: DefaultServiceName,
			Log:         Log{Level: "info", Encoding: enums.LogEncodingJSON},
		},
		API: api.Config{
			BaseURL: DefaultBaseURL,
			Timeout: api.DefaultTimeout,
		},
		Store: tokenstore.Config{
			Driver: enums.StoreDriverFile,
			Prefix: "taskdesk",
			Redis:  redisdb.Config{Addr: "localhost:6379"},
		},
		OTP:    flows.DefaultConfig(),
		Notify: Notify{TTL: notify.DefaultTTL},
		Otel: otel.OtelConfig{
			ServiceName: DefaultServiceName,
			SampleRate:  1,
		},
		FakeAPI: FakeAPI{Addr: DefaultFakeAddr},
	}
}

// Load reads path (or $TASKDESK_CONFIG when path is empty) over the defaults,
// applies environment overrides and validates the result. A missing file is
// only an error when one was asked for.
// userConfigFile is config.yaml under the user config dir, or "" when there is none.
func userConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "taskdesk", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvFile)
	}
	if path == "" {
		path = userConfigFile()
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s failed", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "yaml",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps TASKDESK_STORE_REDIS_ADDR to store.redis.addr. Multi-word keys
// are written without separators, e.g. TASKDESK_API_BASEURL.
func envKey(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.ReplaceAll(key, "_", "."), v
}

func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
