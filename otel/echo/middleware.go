package echo

import (
	"github.com/labstack/echo/v4"
	"github.com/octabyte/taskdesk/interfaces/http/echo/middleware"
	ctxutil "github.com/octabyte/taskdesk/utils/context"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Middleware returns an Echo middleware that instruments HTTP requests with OpenTelemetry
func Middleware(serviceName string) echo.MiddlewareFunc {
	return MiddlewareWithConfig(serviceName, nil)
}

// MiddlewareWithConfig returns an Echo middleware with custom configuration
func MiddlewareWithConfig(serviceName string, skipper func(c echo.Context) bool) echo.MiddlewareFunc {
	var opts []otelecho.Option
	if skipper != nil {
		opts = append(opts, otelecho.WithSkipper(skipper))
	}
	baseMiddleware := otelecho.Middleware(serviceName, opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		// Attributes are added inside the server span, before otelecho ends it.
		return baseMiddleware(func(c echo.Context) error {
			err := next(c)

			span := trace.SpanFromContext(c.Request().Context())
			if span.IsRecording() {
				span.SetAttributes(
					attribute.String("http.route", c.Path()),
					attribute.Bool("user.token_present", middleware.TokenFromContext(c) != ""),
				)
				if id := ctxutil.GetRequestIDFromContext(c.Request().Context()); id != "" {
					span.SetAttributes(attribute.String("http.request_id", id))
				}
				if err != nil {
					span.SetAttributes(attribute.String("error.message", err.Error()))
				}
			}

			return err
		})
	}
}
