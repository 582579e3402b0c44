package middlewares

// gin context keys shared by the middleware chain and the handlers.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
	ctxIdentity  = "auth.identity"
)
