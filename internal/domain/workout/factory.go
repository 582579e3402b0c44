package workout

import (
	"time"

	"github.com/google/uuid"
)

// New builds a workout owned by ownerID. The owner always comes from the
// authenticated identity, never from the request body.
func New(ownerID string, req CreateRequest) (Workout, error) {
	status := StatusPending
	if req.Status != "" {
		s, err := ParseStatus(req.Status)
		if err != nil {
			return Workout{}, err
		}
		status = s
	}

	now := time.Now().UTC()

	return Workout{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Duration:  req.Duration,
		Status:    status,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func ChangesFromUpdate(req UpdateRequest) (Changes, error) {
	name := req.Name
	duration := req.Duration
	ch := Changes{Name: &name, Duration: &duration}

	if req.Status != "" {
		s, err := ParseStatus(req.Status)
		if err != nil {
			return Changes{}, err
		}
		ch.Status = &s
	}
	return ch, nil
}

func ChangesFromPatch(req PatchRequest) (Changes, error) {
	ch := Changes{Name: req.Name, Duration: req.Duration}

	if req.Status != nil {
		s, err := ParseStatus(*req.Status)
		if err != nil {
			return Changes{}, err
		}
		ch.Status = &s
	}
	return ch, nil
}

func CompleteChanges() Changes {
	s := StatusCompleted
	return Changes{Status: &s}
}

// Apply returns w with ch applied. In-process stores use it; SQL and Mongo
// stores express the same thing in their update statements.
func (w Workout) Apply(ch Changes, at time.Time) Workout {
	if ch.Name != nil {
		w.Name = *ch.Name
	}
	if ch.Duration != nil {
		w.Duration = *ch.Duration
	}
	if ch.Status != nil {
		w.Status = *ch.Status
	}
	w.UpdatedAt = at
	return w
}
