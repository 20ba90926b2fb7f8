package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Seed     SeedConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TEAHOUSE_APP_ENV" default:"dev"`
	Port         string `envconfig:"TEAHOUSE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TEAHOUSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TEAHOUSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects which record-store backend holds the shared state.
type StoreConfig struct {
	Driver    string `envconfig:"TEAHOUSE_STORE_DRIVER" default:"memory"`
	Namespace string `envconfig:"TEAHOUSE_STORE_NAMESPACE" default:"teahouse"`
}

func (s StoreConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StoreDriverMemory, StoreDriverSQL, StoreDriverRedis:
		return nil
	default:
		return fmt.Errorf("unknown store driver %q (expected memory, sql or redis)", s.Driver)
	}
}

// NormalizedDriver returns the lowercase driver name.
func (s StoreConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

type DBConfig struct {
	DSN    string `envconfig:"TEAHOUSE_DB_DSN"`
	Driver string `envconfig:"TEAHOUSE_DB_DRIVER" default:"sqlite"`

	SQLitePath string `envconfig:"TEAHOUSE_DB_SQLITE_PATH" default:"teahouse.db"`

	MaxOpenConns    int           `envconfig:"TEAHOUSE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"TEAHOUSE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"TEAHOUSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TEAHOUSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsPostgres reports whether the SQL store should open a Postgres connection.
func (d DBConfig) IsPostgres() bool {
	return strings.EqualFold(d.Driver, DBDriverPostgres)
}

type RedisConfig struct {
	URL          string        `envconfig:"TEAHOUSE_REDIS_URL"`
	Address      string        `envconfig:"TEAHOUSE_REDIS_ADDR"`
	Password     string        `envconfig:"TEAHOUSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TEAHOUSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TEAHOUSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TEAHOUSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TEAHOUSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TEAHOUSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TEAHOUSE_REDIS_WRITE_TIMEOUT" default:"5s"`
	BusChannel   string        `envconfig:"TEAHOUSE_REDIS_BUS_CHANNEL" default:"teahouse:events"`
}

// Configured reports whether any redis endpoint was provided at all.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"TEAHOUSE_JWT_SECRET" default:"dev-only-secret"`
	Issuer            string `envconfig:"TEAHOUSE_JWT_ISSUER" default:"teahouse"`
	ExpirationMinutes int    `envconfig:"TEAHOUSE_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TEAHOUSE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TEAHOUSE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TEAHOUSE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TEAHOUSE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TEAHOUSE_ARGON_KEY_LEN" default:"32"`
}

type SeedConfig struct {
	Catalog bool `envconfig:"TEAHOUSE_SEED_CATALOG" default:"true"`
	Config  bool `envconfig:"TEAHOUSE_SEED_CONFIG" default:"true"`
	Admin   bool `envconfig:"TEAHOUSE_SEED_ADMIN" default:"false"`

	AdminEmail    string `envconfig:"TEAHOUSE_SEED_ADMIN_EMAIL" default:"admin@teahouse.local"`
	AdminPassword string `envconfig:"TEAHOUSE_SEED_ADMIN_PASSWORD"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TEAHOUSE_AUTO_MIGRATE" default:"false"`
}
