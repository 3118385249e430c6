package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=5000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// JWTSecret signs bearer tokens and has no default.
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`

	ServeStatic bool     `env:"SERVE_STATIC, default=false"`
	StaticDir   string   `env:"STATIC_DIR,   default=client/build"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI                    string        `env:"MONGO_URI,                      default=mongodb://localhost:27017"`
	Database               string        `env:"MONGO_DB,                       default=pdftoolpro"`
	ConnectTimeout         time.Duration `env:"MONGO_CONNECT_TIMEOUT,          default=10s"`
	ServerSelectionTimeout time.Duration `env:"MONGO_SERVER_SELECTION_TIMEOUT, default=30s"`
	SocketTimeout          time.Duration `env:"MONGO_SOCKET_TIMEOUT,           default=45s"`
	OperationTimeout       time.Duration `env:"MONGO_OPERATION_TIMEOUT,        default=10s"`
}

// RedisConfig is optional: an empty Addr disables idempotency keys.
type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=1h"`
}

// IsDevelopment reports whether human-friendly logs should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
