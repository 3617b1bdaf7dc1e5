package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitOpenTelemetryDisabled(t *testing.T) {
	shutdown, err := InitOpenTelemetry(context.Background(), OtelConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitOpenTelemetryInvalid(t *testing.T) {
	testCases := []struct {
		name string
		cfg  OtelConfig
	}{
		{"missing service", OtelConfig{Enabled: true, Endpoint: "localhost:4318", SampleRate: 1}},
		{"missing endpoint", OtelConfig{Enabled: true, ServiceName: "taskdesk", SampleRate: 1}},
		{"sample rate out of range", OtelConfig{Enabled: true, ServiceName: "taskdesk", Endpoint: "localhost:4318", SampleRate: 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := InitOpenTelemetry(context.Background(), tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestInitOpenTelemetryEnabled(t *testing.T) {
	cfg := OtelConfig{
		Enabled:     true,
		ServiceName: "taskdesk",
		Environment: "test",
		Endpoint:    "localhost:4318",
		SampleRate:  1.0,
	}

	shutdown, err := InitOpenTelemetry(context.Background(), cfg)
	require.NoError(t, err)
	// Nothing listens on the collector port; shutdown may report the failed flush.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestEndpoint(t *testing.T) {
	host, insecure := endpoint("https://otel.example.com")
	assert.Equal(t, "otel.example.com", host)
	assert.False(t, insecure)

	host, insecure = endpoint("localhost:4318")
	assert.Equal(t, "localhost:4318", host)
	assert.True(t, insecure)
}
