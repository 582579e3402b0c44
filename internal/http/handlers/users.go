package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/fittrack/internal/auth"
	"github.com/geocoder89/fittrack/internal/config"
	"github.com/geocoder89/fittrack/internal/domain/user"
	"github.com/geocoder89/fittrack/internal/http/middlewares"
	"github.com/geocoder89/fittrack/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, in user.NewUser) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
	TTL() time.Duration
}

// ProfileCache is optional; a nil cache means every profile read hits the store.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (user.Profile, bool, error)
	Set(ctx context.Context, p user.Profile) error
}

type UsersHandler struct {
	users  UserStore
	tokens TokenIssuer
	cache  ProfileCache
	log    *slog.Logger
}

func NewUsersHandler(users UserStore, tokens TokenIssuer, cache ProfileCache, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{users: users, tokens: tokens, cache: cache, log: log}
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, user.NewUser{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNo:     req.MobileNo,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email already exists")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "register failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    u.Profile(),
	})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.ErrorContext(ctx.Request.Context(), "login lookup failed", "err", err, "request_id", requestIDFrom(ctx))
			RespondInternal(ctx, "Could not log in")
			return
		}
		// keep unknown-email timing close to a wrong password
		security.BurnCompare(req.Password)
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(auth.Identity{
		ID:      found.ID,
		Email:   found.Email,
		IsAdmin: found.IsAdmin,
	})
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	resp := gin.H{
		"message":   "Login successful",
		"token":     token,
		"tokenType": "Bearer",
	}
	if ttl := h.tokens.TTL(); ttl > 0 {
		resp["expiresIn"] = int(ttl.Seconds())
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) Profile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Unauthorized: Please log in.")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if h.cache != nil {
		p, hit, err := h.cache.Get(cctx, userID)
		if err != nil {
			h.log.WarnContext(cctx, "profile cache read failed", "err", err)
		}
		if hit {
			ctx.JSON(http.StatusOK, p)
			return
		}
	}

	u, err := h.users.GetByID(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(cctx, "profile lookup failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	p := u.Profile()

	if h.cache != nil {
		if err := h.cache.Set(cctx, p); err != nil {
			h.log.WarnContext(cctx, "profile cache write failed", "err", err)
		}
	}

	ctx.JSON(http.StatusOK, p)
}
