package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/fittrack/internal/config"
	"github.com/geocoder89/fittrack/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserLister interface {
	List(ctx context.Context) ([]user.User, error)
}

type AdminUsersHandler struct {
	users UserLister
}

func NewAdminUsersHandler(users UserLister) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// ListUsers returns profiles only; hashes never leave the store layer.
func (h *AdminUsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	items := make([]user.Profile, 0, len(users))
	for _, u := range users {
		items = append(items, u.Profile())
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}
