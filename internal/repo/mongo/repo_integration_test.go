package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/fittrack/internal/domain/user"
	"github.com/geocoder89/fittrack/internal/domain/workout"
	mongorepo "github.com/geocoder89/fittrack/internal/repo/mongo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// Runs against a real server: TEST_MONGO_URI=mongodb://localhost:27017 go test ./...
func setupDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := mongorepo.Connect(ctx, uri, "fittrack_test_"+uuid.NewString()[:8])
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	require.NoError(t, mongorepo.EnsureIndexes(ctx, db))
	return db
}

func TestUsersRepo_Mongo(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := mongorepo.NewUsersRepo(db, nil)

	u, err := users.Create(ctx, user.NewUser{Email: "Ada@x.com", PasswordHash: "h", FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", u.Email)

	_, err = users.Create(ctx, user.NewUser{Email: "ada@X.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	got, err := users.GetByEmail(ctx, " ADA@x.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)

	_, err = users.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, user.ErrNotFound)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.NoError(t, users.Ping(ctx))
}

func TestWorkoutsRepo_Mongo_OwnerScoping(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	workouts := mongorepo.NewWorkoutsRepo(db, nil)

	alice, bob := uuid.NewString(), uuid.NewString()

	aw, err := workout.New(alice, workout.CreateRequest{Name: "Run", Duration: 30})
	require.NoError(t, err)
	bw, err := workout.New(bob, workout.CreateRequest{Name: "Swim", Duration: 45})
	require.NoError(t, err)

	_, err = workouts.Create(ctx, aw)
	require.NoError(t, err)
	_, err = workouts.Create(ctx, bw)
	require.NoError(t, err)

	list, err := workouts.ListByOwner(ctx, workout.ListFilter{OwnerID: alice})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, aw.ID, list[0].ID)

	completed := workout.StatusCompleted
	list, err = workouts.ListByOwner(ctx, workout.ListFilter{OwnerID: alice, Status: &completed})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = workouts.GetByID(ctx, alice, bw.ID)
	assert.ErrorIs(t, err, workout.ErrNotFound)
	_, err = workouts.Update(ctx, alice, bw.ID, workout.CompleteChanges())
	assert.ErrorIs(t, err, workout.ErrNotFound)
	_, err = workouts.Delete(ctx, alice, bw.ID)
	assert.ErrorIs(t, err, workout.ErrNotFound)

	done, err := workouts.Update(ctx, alice, aw.ID, workout.CompleteChanges())
	require.NoError(t, err)
	assert.Equal(t, workout.StatusCompleted, done.Status)
	assert.Equal(t, "Run", done.Name)

	deleted, err := workouts.Delete(ctx, alice, aw.ID)
	require.NoError(t, err)
	assert.Equal(t, aw.ID, deleted.ID)

	// bob's workout was never touched
	got, err := workouts.GetByID(ctx, bob, bw.ID)
	require.NoError(t, err)
	assert.Equal(t, workout.StatusPending, got.Status)
}
