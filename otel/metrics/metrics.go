package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter metric.Meter

	apiRequestsTotal    metric.Int64Counter
	apiRequestDuration  metric.Float64Histogram
	tokenRefreshTotal   metric.Int64Counter
	sessionEndedTotal   metric.Int64Counter
	otpRequestsTotal    metric.Int64Counter
	guardDecisionsTotal metric.Int64Counter
)

// Init creates the client instruments on the global meter provider.
// Recording before Init is a no-op.
func Init(serviceName string) error {
	meter = otel.Meter(serviceName)

	var err error

	apiRequestsTotal, err = meter.Int64Counter(
		"api_requests_total",
		metric.WithDescription("Total number of backend API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create api_requests_total counter: %w", err)
	}

	apiRequestDuration, err = meter.Float64Histogram(
		"api_request_duration_seconds",
		metric.WithDescription("Backend API request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create api_request_duration_seconds histogram: %w", err)
	}

	tokenRefreshTotal, err = meter.Int64Counter(
		"token_refresh_total",
		metric.WithDescription("Access token refresh attempts by outcome"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create token_refresh_total counter: %w", err)
	}

	sessionEndedTotal, err = meter.Int64Counter(
		"session_terminations_total",
		metric.WithDescription("Sessions cleared by the client, by reason"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create session_terminations_total counter: %w", err)
	}

	otpRequestsTotal, err = meter.Int64Counter(
		"otp_requests_total",
		metric.WithDescription("OTP sends and resends by flow"),
		metric.WithUnit("{otp}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create otp_requests_total counter: %w", err)
	}

	guardDecisionsTotal, err = meter.Int64Counter(
		"route_guard_decisions_total",
		metric.WithDescription("Route guard resolutions by state"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create route_guard_decisions_total counter: %w", err)
	}

	return nil
}

// RecordAPIRequest records one backend call. statusCode is 0 when no response arrived.
func RecordAPIRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)

	if apiRequestsTotal != nil {
		apiRequestsTotal.Add(ctx, 1, attrs)
	}
	if apiRequestDuration != nil {
		apiRequestDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

func RecordTokenRefresh(ctx context.Context, success bool) {
	if tokenRefreshTotal != nil {
		tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}
}

func RecordSessionEnded(ctx context.Context, reason string) {
	if sessionEndedTotal != nil {
		sessionEndedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func RecordOTPRequest(ctx context.Context, flow string, resend bool) {
	if otpRequestsTotal != nil {
		otpRequestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("flow", flow),
			attribute.Bool("resend", resend),
		))
	}
}

func RecordGuardDecision(ctx context.Context, state string) {
	if guardDecisionsTotal != nil {
		guardDecisionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
	}
}
