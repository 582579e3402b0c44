package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/fittrack/internal/domain/workout"
)

// WorkoutsRepo keeps workouts in a map. Every read and write matches on
// owner as well as id while holding the lock, which mirrors the single
// filtered statement the database stores use.
type WorkoutsRepo struct {
	mu    sync.RWMutex
	items map[string]workout.Workout
}

func NewWorkoutsRepo() *WorkoutsRepo {
	return &WorkoutsRepo{
		items: make(map[string]workout.Workout),
	}
}

func (r *WorkoutsRepo) Create(ctx context.Context, w workout.Workout) (workout.Workout, error) {
	if err := ctx.Err(); err != nil {
		return workout.Workout{}, err
	}

	r.mu.Lock()
	r.items[w.ID] = w
	r.mu.Unlock()

	return w, nil
}

func (r *WorkoutsRepo) ListByOwner(ctx context.Context, filter workout.ListFilter) ([]workout.Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]workout.Workout, 0)
	for _, w := range r.items {
		if w.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != nil && w.Status != *filter.Status {
			continue
		}
		out = append(out, w)
	}
	r.mu.RUnlock()

	// newest first, like the database stores
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *WorkoutsRepo) GetByID(ctx context.Context, ownerID, id string) (workout.Workout, error) {
	if err := ctx.Err(); err != nil {
		return workout.Workout{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.items[id]
	if !ok || w.OwnerID != ownerID {
		return workout.Workout{}, workout.ErrNotFound
	}
	return w, nil
}

func (r *WorkoutsRepo) Update(ctx context.Context, ownerID, id string, ch workout.Changes) (workout.Workout, error) {
	if err := ctx.Err(); err != nil {
		return workout.Workout{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.items[id]
	if !ok || w.OwnerID != ownerID {
		return workout.Workout{}, workout.ErrNotFound
	}

	w = w.Apply(ch, time.Now().UTC())
	r.items[id] = w

	return w, nil
}

func (r *WorkoutsRepo) Delete(ctx context.Context, ownerID, id string) (workout.Workout, error) {
	if err := ctx.Err(); err != nil {
		return workout.Workout{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.items[id]
	if !ok || w.OwnerID != ownerID {
		return workout.Workout{}, workout.ErrNotFound
	}

	delete(r.items, id)
	return w, nil
}
