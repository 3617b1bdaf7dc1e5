package middleware

const (
	Authorization   = "Authorization"
	RequestIDHeader = "X-Request-ID"
	SessionCookie   = "Session"
	TokenKey        = "requestToken"
	JWTSessionKey   = "jwtSession"
)
