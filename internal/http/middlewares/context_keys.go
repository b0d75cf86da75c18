package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxUser      = "auth.user"
	CtxClaims    = "auth.claims"
	CtxUserID    = "auth.userID"
)

// SessionCookie carries the signed session token.
const SessionCookie = "token"
