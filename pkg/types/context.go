package types

// ContextKey is the type for request-scoped values carried on a context.
type ContextKey string

const (
	// ContextKeyRequestID identifies one API request across log records.
	ContextKeyRequestID ContextKey = "request_id"
	// ContextKeySessionID groups requests belonging to one client session.
	ContextKeySessionID ContextKey = "session_id"
	// ContextKeyRequestSource names the surface the request came in on.
	ContextKeyRequestSource ContextKey = "request_source"
)
