package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/fittrack/internal/domain/workout"
	"github.com/geocoder89/fittrack/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type workoutDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Duration  int       `bson:"duration"`
	Status    string    `bson:"status"`
	OwnerID   string    `bson:"owner_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d workoutDoc) toWorkout() workout.Workout {
	return workout.Workout{
		ID:        d.ID,
		Name:      d.Name,
		Duration:  d.Duration,
		Status:    workout.Status(d.Status),
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type WorkoutsRepo struct {
	col     *mongo.Collection
	metrics *observability.Prom
}

func NewWorkoutsRepo(db *mongo.Database, metrics *observability.Prom) *WorkoutsRepo {
	return &WorkoutsRepo{col: db.Collection(workoutsCollection), metrics: metrics}
}

func (r *WorkoutsRepo) Create(ctx context.Context, w workout.Workout) (workout.Workout, error) {
	doc := workoutDoc{
		ID:        w.ID,
		Name:      w.Name,
		Duration:  w.Duration,
		Status:    string(w.Status),
		OwnerID:   w.OwnerID,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}

	err := r.metrics.ObserveDB("workouts.create", func() error {
		_, err := r.col.InsertOne(ctx, doc)
		return err
	})

	if err != nil {
		return workout.Workout{}, fmt.Errorf("mongo insert workout: %w", err)
	}
	return w, nil
}

func (r *WorkoutsRepo) ListByOwner(ctx context.Context, filter workout.ListFilter) ([]workout.Workout, error) {
	q := bson.M{"owner_id": filter.OwnerID}
	if filter.Status != nil {
		q["status"] = string(*filter.Status)
	}

	out := make([]workout.Workout, 0)

	err := r.metrics.ObserveDB("workouts.list", func() error {
		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
		cur, err := r.col.Find(ctx, q, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		var docs []workoutDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		for _, d := range docs {
			out = append(out, d.toWorkout())
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("mongo list workouts: %w", err)
	}
	return out, nil
}

func (r *WorkoutsRepo) GetByID(ctx context.Context, ownerID, id string) (workout.Workout, error) {
	return r.one(ctx, "workouts.get", func(d *workoutDoc) error {
		return r.col.FindOne(ctx, ownedBy(ownerID, id)).Decode(d)
	})
}

// Update is one FindOneAndUpdate filtered on id and owner.
func (r *WorkoutsRepo) Update(ctx context.Context, ownerID, id string, ch workout.Changes) (workout.Workout, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if ch.Name != nil {
		set["name"] = *ch.Name
	}
	if ch.Duration != nil {
		set["duration"] = *ch.Duration
	}
	if ch.Status != nil {
		set["status"] = string(*ch.Status)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	return r.one(ctx, "workouts.update", func(d *workoutDoc) error {
		return r.col.FindOneAndUpdate(ctx, ownedBy(ownerID, id), bson.M{"$set": set}, opts).Decode(d)
	})
}

func (r *WorkoutsRepo) Delete(ctx context.Context, ownerID, id string) (workout.Workout, error) {
	return r.one(ctx, "workouts.delete", func(d *workoutDoc) error {
		return r.col.FindOneAndDelete(ctx, ownedBy(ownerID, id)).Decode(d)
	})
}

func (r *WorkoutsRepo) one(ctx context.Context, op string, fn func(*workoutDoc) error) (workout.Workout, error) {
	var d workoutDoc

	err := r.metrics.ObserveDB(op, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(&d)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return workout.Workout{}, workout.ErrNotFound
		}
		return workout.Workout{}, fmt.Errorf("%s: %w", op, err)
	}
	return d.toWorkout(), nil
}

func ownedBy(ownerID, id string) bson.M {
	return bson.M{"_id": id, "owner_id": ownerID}
}
