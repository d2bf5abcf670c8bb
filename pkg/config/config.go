package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOCKROUTE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOCKROUTE_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKROUTE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOCKROUTE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKROUTE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"STOCKROUTE_DB_DSN"`

	Host     string `envconfig:"STOCKROUTE_DB_HOST"`
	Port     int    `envconfig:"STOCKROUTE_DB_PORT" default:"5432"`
	User     string `envconfig:"STOCKROUTE_DB_USER"`
	Password string `envconfig:"STOCKROUTE_DB_PASSWORD"`
	Name     string `envconfig:"STOCKROUTE_DB_NAME"`
	SSLMode  string `envconfig:"STOCKROUTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKROUTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKROUTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKROUTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKROUTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN builds the connection string from discrete fields when DSN is not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either STOCKROUTE_DB_DSN or host/user/name database settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKROUTE_REDIS_URL"`
	Address      string        `envconfig:"STOCKROUTE_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKROUTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKROUTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKROUTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKROUTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKROUTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKROUTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKROUTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKROUTE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKROUTE_JWT_ISSUER" default:"stockroute"`
	ExpirationMinutes int    `envconfig:"STOCKROUTE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type SyncConfig struct {
	Interval time.Duration `envconfig:"STOCKROUTE_SYNC_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"STOCKROUTE_SYNC_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOCKROUTE_AUTO_MIGRATE" default:"false"`
}
