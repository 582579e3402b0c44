package workout

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound covers both a missing workout and one owned by someone else.
// Callers must not be able to tell the two apart.
var ErrNotFound = errors.New("workout not found")

var ErrInvalidStatus = errors.New("invalid workout status")

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// ParseStatus accepts any casing ("Pending" was used by older clients) and
// returns the canonical lowercase value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

type Workout struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Duration  int       `json:"duration"` // minutes
	Status    Status    `json:"status"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Duration int    `json:"duration" binding:"required,min=1,max=1440"`
	Status   string `json:"status" binding:"omitempty,workout_status"`
}

// UpdateRequest is the full replacement payload used by PUT.
type UpdateRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Duration int    `json:"duration" binding:"required,min=1,max=1440"`
	Status   string `json:"status" binding:"omitempty,workout_status"`
}

// PatchRequest is the partial payload used by PATCH; nil means unchanged.
type PatchRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=120"`
	Duration *int    `json:"duration" binding:"omitempty,min=1,max=1440"`
	Status   *string `json:"status" binding:"omitempty,workout_status"`
}

// Changes is what a store applies in one owner-scoped update.
type Changes struct {
	Name     *string
	Duration *int
	Status   *Status
}

func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Duration == nil && c.Status == nil
}

// ListFilter narrows an owner's workouts. OwnerID is mandatory.
type ListFilter struct {
	OwnerID string
	Status  *Status
}
