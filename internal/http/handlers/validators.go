package handlers

import (
	"github.com/geocoder89/fittrack/internal/domain/workout"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("workout_status", validWorkoutStatus)
	}
}

// validWorkoutStatus accepts any casing of pending/completed.
func validWorkoutStatus(fl validator.FieldLevel) bool {
	_, err := workout.ParseStatus(fl.Field().String())
	return err == nil
}
