package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "fittrack"

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
)

// Identity is the authenticated principal carried by a token.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type Claims struct {
	UserID  string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, Email: c.Email, IsAdmin: c.IsAdmin}
}

// TokenError is returned by Verify. It matches ErrInvalidToken with errors.Is
// and keeps the underlying jwt error reachable as well.
type TokenError struct {
	Reason string
	Err    error
}

func (e *TokenError) Error() string {
	return "invalid token: " + e.Reason
}

func (e *TokenError) Unwrap() []error {
	return []error{ErrInvalidToken, e.Err}
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager builds the token service. A ttl of zero issues tokens without
// an expiry claim.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs an access token for an identity whose password was already verified.
func (m *Manager) Issue(id Identity) (string, error) {
	now := m.now()

	claims := Claims{
		UserID:  id.ID,
		Email:   id.Email,
		IsAdmin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  id.ID,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, algorithm, issuer and expiry, and returns the signed claims.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, &TokenError{Reason: reasonFor(err), Err: err}
	}

	if !token.Valid {
		return nil, &TokenError{Reason: "token invalid", Err: jwt.ErrTokenUnverifiable}
	}

	if claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, &TokenError{Reason: "token malformed", Err: jwt.ErrTokenInvalidClaims}
	}

	return claims, nil
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return "token not valid yet"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "signature invalid"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "unexpected issuer"
	default:
		return "token invalid"
	}
}
