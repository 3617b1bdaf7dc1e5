package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/octabyte/taskdesk/config"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/flows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv(config.EnvFile, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, enums.StoreDriverFile, cfg.Store.Driver)
	assert.Equal(t, flows.DefaultConfig(), cfg.OTP)
	assert.Equal(t, config.DefaultFakeAddr, cfg.FakeAPI.Addr)
}

func TestFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
env:
  log:
    level: debug
api:
  baseURL: https://tasks.example.com/api
  timeout: 10s
store:
  driver: redis
  redis:
    addr: cache:6379
otp:
  ttl: 90s
otel:
  headers:
    authorization: Bearer abc
`)
	t.Setenv("TASKDESK_API_TIMEOUT", "3s")
	t.Setenv("TASKDESK_OTP_RESENDCOOLDOWN", "30s")
	t.Setenv("TASKDESK_FAKEAPI_ROTATEREFRESH", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Env.Log.Level)
	assert.Equal(t, "https://tasks.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, enums.StoreDriverRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 90*time.Second, cfg.OTP.OTPTTL)
	assert.Equal(t, 30*time.Second, cfg.OTP.ResendCooldown)
	assert.Equal(t, flows.DefaultSuccessDelay, cfg.OTP.SuccessDelay)
	assert.True(t, cfg.FakeAPI.RotateRefresh)
	assert.Equal(t, "Bearer abc", cfg.Otel.Headers["authorization"])
}

func TestConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\n")
	t.Setenv(config.EnvFile, path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, enums.StoreDriverMemory, cfg.Store.Driver)
}

func TestInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"unknown driver": "store:\n  driver: sqlite\n",
		"bad base url":   "api:\n  baseURL: not a url\n",
		"zero otp ttl":   "otp:\n  ttl: 0s\n",
		"short fake otp": "fakeapi:\n  otp: \"123\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestUserConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvFile, "")
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	if runtime.GOOS != "linux" {
		t.Skip("user config dir layout differs")
	}

	require.NoError(t, os.MkdirAll(filepath.Join(home, "taskdesk"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, "taskdesk", "config.yaml"), []byte("api:\n  baseURL: https://home.example.com/api\n"), 0o600))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://home.example.com/api", cfg.API.BaseURL)
}
