package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// InsecureDevSecret signs tokens when JWT_SECRET_KEY is unset in dev or test.
// It must never reach a deployed environment.
const InsecureDevSecret = "insecure-dev-secret"

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

var ErrMissingSecret = errors.New("JWT_SECRET_KEY must be set outside dev/test")

type Config struct {
	Env  string `envconfig:"APP_ENV" default:"dev"`
	Port int    `envconfig:"PORT" default:"4000"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`

	DBURL      string `envconfig:"DB_URL"`
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"fittrack"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"fittrack"`
	DBName     string `envconfig:"DB_NAME" default:"fittrack"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MongoURI      string `envconfig:"MONGODB_STRING" default:"mongodb://127.0.0.1:27017"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"fittrack"`

	JWTSecret string        `envconfig:"JWT_SECRET_KEY"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"1h"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxBodyBytes       int64    `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	ProfileCacheTTL time.Duration `envconfig:"PROFILE_CACHE_TTL" default:"5m"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	AdminEmail     string `envconfig:"ADMIN_EMAIL"`
	AdminPassword  string `envconfig:"ADMIN_PASSWORD"`
	AdminFirstName string `envconfig:"ADMIN_FIRST_NAME" default:"Admin"`

	// InsecureSecret reports that JWTSecret is the dev fallback.
	InsecureSecret bool `ignored:"true"`
}

// Load reads a local .env file if one exists, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	return cfg.finalize()
}

func (c Config) finalize() (Config, error) {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StorePostgres, StoreMongo, StoreMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.DBURL == "" {
		c.DBURL = c.buildDBURL()
	}

	if c.JWTSecret == "" {
		if !c.IsLocal() {
			return Config{}, ErrMissingSecret
		}
		c.JWTSecret = InsecureDevSecret
		c.InsecureSecret = true
	}

	origins := make([]string, 0, len(c.CORSAllowedOrigins))
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins

	return c, nil
}

func (c Config) buildDBURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// IsLocal is true for the dev and test environments.
func (c Config) IsLocal() bool {
	return c.Env == "dev" || c.Env == "test"
}

func (c Config) IsProduction() bool {
	return c.Env == "prod"
}

func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}
