package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/fittrack/internal/config"
	"github.com/geocoder89/fittrack/internal/domain/workout"
	"github.com/geocoder89/fittrack/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WorkoutStore methods that take an id also take the owner; stores match on
// both in one operation.
type WorkoutStore interface {
	Create(ctx context.Context, w workout.Workout) (workout.Workout, error)
	ListByOwner(ctx context.Context, filter workout.ListFilter) ([]workout.Workout, error)
	GetByID(ctx context.Context, ownerID, id string) (workout.Workout, error)
	Update(ctx context.Context, ownerID, id string, ch workout.Changes) (workout.Workout, error)
	Delete(ctx context.Context, ownerID, id string) (workout.Workout, error)
}

type WorkoutsHandler struct {
	repo WorkoutStore
	log  *slog.Logger
}

func NewWorkoutsHandler(repo WorkoutStore, log *slog.Logger) *WorkoutsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WorkoutsHandler{repo: repo, log: log}
}

const workoutNotFound = "Workout not found or you don't have permission"

func (h *WorkoutsHandler) Create(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	var req workout.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	w, err := workout.New(ownerID, req)
	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_status", "status must be pending or completed", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, w)
	if err != nil {
		h.internal(ctx, "create workout failed", err, "Error adding workout")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Workout added successfully",
		"workout": created,
	})
}

func (h *WorkoutsHandler) List(ctx *gin.Context) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return
	}

	filter := workout.ListFilter{OwnerID: ownerID}

	if raw := ctx.Query("status"); raw != "" {
		s, err := workout.ParseStatus(raw)
		if err != nil {
			RespondError(ctx, http.StatusBadRequest, "invalid_status", "status must be pending or completed", nil)
			return
		}
		filter.Status = &s
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.repo.ListByOwner(cctx, filter)
	if err != nil {
		h.internal(ctx, "list workouts failed", err, "Error retrieving workouts")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *WorkoutsHandler) Get(ctx *gin.Context) {
	ownerID, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	w, err := h.repo.GetByID(cctx, ownerID, id)
	if err != nil {
		h.storeError(ctx, "get workout failed", err, "Error retrieving workout")
		return
	}

	ctx.JSON(http.StatusOK, w)
}

// Update replaces name and duration (PUT). Status is kept unless given.
func (h *WorkoutsHandler) Update(ctx *gin.Context) {
	ownerID, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	var req workout.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	ch, err := workout.ChangesFromUpdate(req)
	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_status", "status must be pending or completed", nil)
		return
	}

	h.apply(ctx, ownerID, id, ch, "Workout updated successfully")
}

func (h *WorkoutsHandler) Patch(ctx *gin.Context) {
	ownerID, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	var req workout.PatchRequest
	if !BindJSON(ctx, &req) {
		return
	}

	ch, err := workout.ChangesFromPatch(req)
	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_status", "status must be pending or completed", nil)
		return
	}

	if ch.IsEmpty() {
		RespondBadRequest(ctx, "At least one of name, duration or status is required", nil)
		return
	}

	h.apply(ctx, ownerID, id, ch, "Workout updated successfully")
}

func (h *WorkoutsHandler) Complete(ctx *gin.Context) {
	ownerID, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	h.apply(ctx, ownerID, id, workout.CompleteChanges(), "Workout status updated to completed")
}

func (h *WorkoutsHandler) Delete(ctx *gin.Context) {
	ownerID, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	deleted, err := h.repo.Delete(cctx, ownerID, id)
	if err != nil {
		h.storeError(ctx, "delete workout failed", err, "Error deleting workout")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Workout deleted successfully",
		"workout": deleted,
	})
}

func (h *WorkoutsHandler) apply(ctx *gin.Context, ownerID, id string, ch workout.Changes, message string) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.repo.Update(cctx, ownerID, id, ch)
	if err != nil {
		h.storeError(ctx, "update workout failed", err, "Error updating workout")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
		"workout": updated,
	})
}

// storeError maps a missing and a foreign workout to the same 404.
func (h *WorkoutsHandler) storeError(ctx *gin.Context, logMsg string, err error, public string) {
	if errors.Is(err, workout.ErrNotFound) {
		RespondNotFound(ctx, workoutNotFound)
		return
	}
	h.internal(ctx, logMsg, err, public)
}

func (h *WorkoutsHandler) internal(ctx *gin.Context, logMsg string, err error, public string) {
	h.log.ErrorContext(ctx.Request.Context(), logMsg, "err", err, "request_id", requestIDFrom(ctx))
	RespondInternal(ctx, public)
}

// requireOwner reads the caller from the auth middleware. Routes are always
// mounted behind RequireAuth, so a miss here is a wiring bug; fail closed.
func requireOwner(ctx *gin.Context) (string, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnauthorized(ctx, "unauthorized", "Unauthorized: Please log in.")
		return "", false
	}
	return userID, true
}

func ownerAndID(ctx *gin.Context) (string, string, bool) {
	ownerID, ok := requireOwner(ctx)
	if !ok {
		return "", "", false
	}

	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "Invalid workout id", nil)
		return "", "", false
	}
	return ownerID, id, true
}
