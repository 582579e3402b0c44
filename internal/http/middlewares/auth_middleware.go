package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/fittrack/internal/actorctx"
	"github.com/geocoder89/fittrack/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthObserver receives one result label per authentication attempt.
type AuthObserver interface {
	ObserveAuth(result string)
}

type AuthMiddleware struct {
	jwt      TokenVerifier
	observer AuthObserver
}

func NewAuthMiddleware(jwt TokenVerifier, observer AuthObserver) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, observer: observer}
}

const bearerScheme = "Bearer"

// RequireAuth rejects the request unless it carries a valid bearer token.
//
//	no header or empty token   -> 401 no_token
//	scheme other than Bearer   -> 401 invalid_auth_scheme
//	verification failure       -> 403 invalid_token
//
// On success the identity is stored on both the gin context and the request
// context, then the chain continues.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			m.observe("no_token")
			abortWithError(c, http.StatusUnauthorized, "no_token", "No Token Provided")
			return
		}

		scheme, raw, _ := strings.Cut(authHeader, " ")
		if !strings.EqualFold(scheme, bearerScheme) {
			m.observe("invalid_scheme")
			abortWithError(c, http.StatusUnauthorized, "invalid_auth_scheme", "Authorization header must use the Bearer scheme")
			return
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			m.observe("no_token")
			abortWithError(c, http.StatusUnauthorized, "no_token", "No Token Provided")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			m.observe("invalid_token")
			abortWithError(c, http.StatusForbidden, "invalid_token", "Authentication Failed: "+failureReason(err))
			return
		}

		identity := claims.Identity()

		c.Set(ctxIdentity, identity)
		c.Set(CtxUserID, identity.ID)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), identity))

		m.observe("ok")
		c.Next()
	}
}

func (m *AuthMiddleware) observe(result string) {
	if m.observer != nil {
		m.observer.ObserveAuth(result)
	}
}

func failureReason(err error) string {
	var tokenErr *auth.TokenError
	if errors.As(err, &tokenErr) && tokenErr.Reason != "" {
		return tokenErr.Reason
	}
	return "token invalid"
}

// Helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	if v, ok := c.Get(ctxIdentity); ok {
		if id, ok := v.(auth.Identity); ok && id.ID != "" {
			return id, true
		}
	}
	return actorctx.IdentityFrom(c.Request.Context())
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := IdentityFromContext(c)
	return id.ID, ok
}
