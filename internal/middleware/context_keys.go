package middleware

// ContextKey is a private key type for request-context values, so entries
// set here cannot collide with other packages.
type ContextKey string

const (
	// UserCtxKey holds the authenticated *entity.User.
	UserCtxKey = ContextKey("user")

	// RequestIDCtxKey holds the per-request correlation id.
	RequestIDCtxKey = ContextKey("request_id")
)
