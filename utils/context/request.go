package context

import "context"

type key string

const (
	skipAuthKey  key = "skipAuth"
	retriedKey   key = "retried"
	requestIDKey key = "requestID"
)

// WithoutAuth marks a request that must be sent without a bearer credential.
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey, true)
}

func SkipsAuth(ctx context.Context) bool {
	skip, _ := ctx.Value(skipAuthKey).(bool)
	return skip
}

// MarkRetried flags a request that already went through one refresh-and-resend.
func MarkRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey, true)
}

func IsRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey).(bool)
	return retried
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
