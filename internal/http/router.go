package http

import (
	"context"
	"log/slog"
	nethttp "net/http"

	"github.com/geocoder89/fittrack/internal/auth"
	"github.com/geocoder89/fittrack/internal/config"
	"github.com/geocoder89/fittrack/internal/domain/user"
	"github.com/geocoder89/fittrack/internal/http/handlers"
	"github.com/geocoder89/fittrack/internal/http/middlewares"
	"github.com/geocoder89/fittrack/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserRepository is what the router needs from a user store: the
// registration/login/profile calls plus the admin listing.
type UserRepository interface {
	handlers.UserStore
	List(ctx context.Context) ([]user.User, error)
}

type Deps struct {
	Users    UserRepository
	Workouts handlers.WorkoutStore
	Tokens   *auth.Manager

	// optional
	ProfileCache   handlers.ProfileCache
	Metrics        *observability.Prom
	MetricsHandler nethttp.Handler
	ReadyChecks    []handlers.ReadyCheck
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.IsProduction()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	health := handlers.NewHealthHandler(deps.ReadyChecks...)
	r.GET("/", health.Root)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	// a nil *Prom must not become a non-nil observer interface
	var observer middlewares.AuthObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	authMw := middlewares.NewAuthMiddleware(deps.Tokens, observer)

	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Tokens, deps.ProfileCache, log)
	workoutsHandler := handlers.NewWorkoutsHandler(deps.Workouts, log)
	adminUsersHandler := handlers.NewAdminUsersHandler(deps.Users)

	users := r.Group("/users")
	users.POST("/register", usersHandler.Register)
	users.POST("/login", usersHandler.Login)
	users.GET("/profile", authMw.RequireAuth(), usersHandler.Profile)

	workouts := r.Group("/workouts", authMw.RequireAuth())
	workouts.POST("", workoutsHandler.Create)
	workouts.GET("", workoutsHandler.List)
	workouts.GET("/:id", workoutsHandler.Get)
	workouts.PUT("/:id", workoutsHandler.Update)
	workouts.PATCH("/:id", workoutsHandler.Patch)
	workouts.DELETE("/:id", workoutsHandler.Delete)
	workouts.PATCH("/:id/complete", workoutsHandler.Complete)

	// routes kept for clients of the first API version
	workouts.POST("/addWorkout", workoutsHandler.Create)
	workouts.GET("/getMyWorkouts", workoutsHandler.List)
	workouts.PUT("/updateWorkout/:id", workoutsHandler.Update)
	workouts.PATCH("/updateWorkout/:id", workoutsHandler.Patch)
	workouts.DELETE("/deleteWorkout/:id", workoutsHandler.Delete)
	workouts.PUT("/completeWorkoutStatus/:id", workoutsHandler.Complete)
	workouts.PATCH("/completeWorkoutStatus/:id", workoutsHandler.Complete)

	admin := r.Group("/admin", authMw.RequireAuth(), authMw.RequireAdmin())
	admin.GET("/users", adminUsersHandler.ListUsers)

	return r
}
