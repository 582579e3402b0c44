package integration__test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/geocoder89/fittrack/internal/domain/workout"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workoutEnvelope struct {
	Message string          `json:"message"`
	Workout workout.Workout `json:"workout"`
}

type workoutList struct {
	Items []workout.Workout `json:"items"`
	Count int               `json:"count"`
}

func decodeInto[T any](t *testing.T, body []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestWorkoutFlow_TwoUsers(t *testing.T) {
	app := setupApp(t)

	app.register(t, "alice@example.com", "alice-password")
	app.register(t, "bob@example.com", "bob-password")
	alice := app.login(t, "alice@example.com", "alice-password")
	bob := app.login(t, "bob@example.com", "bob-password")

	// alice creates a workout; owner and default status come from the server
	w := app.do(t, http.MethodPost, "/workouts", alice, map[string]any{"name": "Run", "duration": 30, "ownerId": "someone-else"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeInto[workoutEnvelope](t, w.Body.Bytes())
	assert.Equal(t, "Workout added successfully", created.Message)
	assert.Equal(t, workout.StatusPending, created.Workout.Status)
	assert.NotEqual(t, "someone-else", created.Workout.OwnerID)

	id := created.Workout.ID

	// bob sees nothing
	w = app.do(t, http.MethodGet, "/workouts", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decodeInto[workoutList](t, w.Body.Bytes()).Count)

	// bob cannot touch it, and cannot tell it exists
	missing := uuid.NewString()
	for _, rq := range []struct{ method, path string }{
		{http.MethodGet, "/workouts/" + id},
		{http.MethodPatch, "/workouts/" + id + "/complete"},
		{http.MethodDelete, "/workouts/" + id},
	} {
		foreign := app.do(t, rq.method, rq.path, bob, nil)
		absent := app.do(t, rq.method, "/workouts/"+missing+rq.path[len("/workouts/"+id):], bob, nil)

		assert.Equal(t, http.StatusNotFound, foreign.Code, rq.method+" "+rq.path)
		assert.Equal(t, http.StatusNotFound, absent.Code, rq.method+" "+rq.path)
		assert.Equal(t, decodeError(t, absent).Error.Message, decodeError(t, foreign).Error.Message)
	}

	w = app.do(t, http.MethodPut, "/workouts/"+id, bob, map[string]any{"name": "Hijack", "duration": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// alice's workout is unchanged after bob's attempts
	w = app.do(t, http.MethodGet, "/workouts/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeInto[workout.Workout](t, w.Body.Bytes())
	assert.Equal(t, "Run", got.Name)
	assert.Equal(t, workout.StatusPending, got.Status)

	// alice completes it
	w = app.do(t, http.MethodPatch, "/workouts/"+id+"/complete", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, workout.StatusCompleted, decodeInto[workoutEnvelope](t, w.Body.Bytes()).Workout.Status)

	w = app.do(t, http.MethodGet, "/workouts?status=completed", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeInto[workoutList](t, w.Body.Bytes())
	require.Equal(t, 1, list.Count)
	assert.Equal(t, id, list.Items[0].ID)

	// partial update keeps the other fields
	w = app.do(t, http.MethodPatch, "/workouts/"+id, alice, map[string]any{"duration": 45})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decodeInto[workoutEnvelope](t, w.Body.Bytes()).Workout
	assert.Equal(t, 45, patched.Duration)
	assert.Equal(t, "Run", patched.Name)
	assert.Equal(t, workout.StatusCompleted, patched.Status)

	// delete returns the removed workout, then it is gone
	w = app.do(t, http.MethodDelete, "/workouts/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decodeInto[workoutEnvelope](t, w.Body.Bytes()).Workout.ID)

	w = app.do(t, http.MethodGet, "/workouts/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkoutLegacyRoutes(t *testing.T) {
	app := setupApp(t)

	app.register(t, "alice@example.com", "alice-password")
	alice := app.login(t, "alice@example.com", "alice-password")

	w := app.do(t, http.MethodPost, "/workouts/addWorkout", alice, map[string]any{"name": "Swim", "duration": 20, "status": "Pending"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeInto[workoutEnvelope](t, w.Body.Bytes()).Workout.ID

	w = app.do(t, http.MethodGet, "/workouts/getMyWorkouts", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeInto[workoutList](t, w.Body.Bytes()).Count)

	w = app.do(t, http.MethodPatch, "/workouts/updateWorkout/"+id, alice, map[string]any{"name": "Long swim"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Long swim", decodeInto[workoutEnvelope](t, w.Body.Bytes()).Workout.Name)

	w = app.do(t, http.MethodPut, "/workouts/completeWorkoutStatus/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, workout.StatusCompleted, decodeInto[workoutEnvelope](t, w.Body.Bytes()).Workout.Status)

	w = app.do(t, http.MethodDelete, "/workouts/deleteWorkout/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// legacy routes sit behind the same guard
	w = app.do(t, http.MethodGet, "/workouts/getMyWorkouts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
