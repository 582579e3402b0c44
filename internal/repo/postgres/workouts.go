package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/fittrack/internal/domain/workout"
	"github.com/geocoder89/fittrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workoutColumns = `id, name, duration, status, owner_id, created_at, updated_at`

type WorkoutsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewWorkoutsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *WorkoutsRepo {
	return &WorkoutsRepo{pool: pool, metrics: metrics}
}

func (r *WorkoutsRepo) Create(ctx context.Context, w workout.Workout) (workout.Workout, error) {
	err := r.metrics.ObserveDB("workouts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO workouts (`+workoutColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			w.ID, w.Name, w.Duration, string(w.Status), w.OwnerID, w.CreatedAt, w.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return workout.Workout{}, fmt.Errorf("insert workout: %w", err)
	}
	return w, nil
}

func (r *WorkoutsRepo) ListByOwner(ctx context.Context, filter workout.ListFilter) ([]workout.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE owner_id = $1`
	args := []any{filter.OwnerID}

	if filter.Status != nil {
		query += ` AND status = $2`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	var out []workout.Workout

	err := r.metrics.ObserveDB("workouts.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]workout.Workout, 0)
		for rows.Next() {
			w, err := scanWorkout(rows)
			if err != nil {
				return err
			}
			out = append(out, w)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return out, nil
}

func (r *WorkoutsRepo) GetByID(ctx context.Context, ownerID, id string) (workout.Workout, error) {
	return r.one(ctx, "workouts.get",
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
}

// Update applies ch in a single statement filtered by id and owner, so there
// is no window between the ownership check and the write.
func (r *WorkoutsRepo) Update(ctx context.Context, ownerID, id string, ch workout.Changes) (workout.Workout, error) {
	var status *string
	if ch.Status != nil {
		s := string(*ch.Status)
		status = &s
	}

	return r.one(ctx, "workouts.update",
		`UPDATE workouts
			SET name = COALESCE($3, name),
				duration = COALESCE($4, duration),
				status = COALESCE($5, status),
				updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+workoutColumns,
		id, ownerID, ch.Name, ch.Duration, status,
	)
}

func (r *WorkoutsRepo) Delete(ctx context.Context, ownerID, id string) (workout.Workout, error) {
	return r.one(ctx, "workouts.delete",
		`DELETE FROM workouts WHERE id = $1 AND owner_id = $2 RETURNING `+workoutColumns,
		id, ownerID,
	)
}

func (r *WorkoutsRepo) one(ctx context.Context, op, query string, args ...any) (workout.Workout, error) {
	var w workout.Workout

	err := r.metrics.ObserveDB(op, func() error {
		var err error
		w, err = scanWorkout(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		// zero rows: absent or owned by someone else, deliberately the same
		if errors.Is(err, pgx.ErrNoRows) {
			return workout.Workout{}, workout.ErrNotFound
		}
		return workout.Workout{}, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}

func scanWorkout(row pgx.Row) (workout.Workout, error) {
	var (
		w      workout.Workout
		status string
	)

	err := row.Scan(&w.ID, &w.Name, &w.Duration, &status, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return workout.Workout{}, err
	}
	w.Status = workout.Status(status)
	return w, nil
}
