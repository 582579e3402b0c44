package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/fittrack/internal/auth"
	"github.com/geocoder89/fittrack/internal/cache"
	"github.com/geocoder89/fittrack/internal/config"
	"github.com/geocoder89/fittrack/internal/db"
	httpx "github.com/geocoder89/fittrack/internal/http"
	"github.com/geocoder89/fittrack/internal/http/handlers"
	"github.com/geocoder89/fittrack/internal/observability"
	"github.com/geocoder89/fittrack/internal/redisclient"
	"github.com/geocoder89/fittrack/internal/repo/memory"
	mongorepo "github.com/geocoder89/fittrack/internal/repo/mongo"
	"github.com/geocoder89/fittrack/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type userStore interface {
	httpx.UserRepository
	Ping(ctx context.Context) error
}

type stores struct {
	users    userStore
	workouts handlers.WorkoutStore
	close    func()
}

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if cfg.InsecureSecret {
		log.Warn("JWT_SECRET_KEY not set, signing tokens with the insecure dev secret", "env", cfg.Env)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer st.close()

	checks := []handlers.ReadyCheck{{Name: cfg.StoreDriver, Check: st.users.Ping}}

	var profiles handlers.ProfileCache
	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn("redis not reachable at startup", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		profiles = cache.NewRedisProfileCache(rc.Raw(), cfg.ProfileCacheTTL)
		checks = append(checks, handlers.ReadyCheck{Name: "redis", Check: rc.Ping})
	} else {
		profiles = cache.NewMemoryProfileCache(cfg.ProfileCacheTTL)
	}

	seedCtx, cancelSeed := config.WithTimeout(ctx, 5*time.Second)
	created, err := db.EnsureAdminUser(seedCtx, st.users, cfg)
	cancelSeed()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:          st.users,
		Workouts:       st.workouts,
		Tokens:         auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		ProfileCache:   profiles,
		Metrics:        prom,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadyChecks:    checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom) (stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return stores{}, fmt.Errorf("postgres: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return stores{}, err
		}
		return stores{
			users:    postgres.NewUsersRepo(pool, prom),
			workouts: postgres.NewWorkoutsRepo(pool, prom),
			close:    pool.Close,
		}, nil

	case config.StoreMongo:
		cctx, cancel := config.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, database, err := mongorepo.Connect(cctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return stores{}, err
		}
		if err := mongorepo.EnsureIndexes(cctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, err
		}
		return stores{
			users:    mongorepo.NewUsersRepo(database, prom),
			workouts: mongorepo.NewWorkoutsRepo(database, prom),
			close:    func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.StoreMemory:
		return stores{
			users:    memory.NewUsersRepo(),
			workouts: memory.NewWorkoutsRepo(),
			close:    func() {},
		}, nil
	}

	return stores{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
