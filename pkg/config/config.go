package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cache        CacheConfig
	Jobs         JobsConfig
	Limits       LimitsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ECOMMERCE_APP_ENV" required:"true"`
	Port         string `envconfig:"ECOMMERCE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ECOMMERCE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECOMMERCE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ECOMMERCE_DB_DSN"`
	Driver string `envconfig:"ECOMMERCE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ECOMMERCE_DB_HOST"`
	Port     int    `envconfig:"ECOMMERCE_DB_PORT" default:"5432"`
	User     string `envconfig:"ECOMMERCE_DB_USER"`
	Password string `envconfig:"ECOMMERCE_DB_PASSWORD"`
	Name     string `envconfig:"ECOMMERCE_DB_NAME"`
	SSLMode  string `envconfig:"ECOMMERCE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ECOMMERCE_SQLITE_PATH" default:"ecommerce.db"`

	MaxOpenConns    int           `envconfig:"ECOMMERCE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOMMERCE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOMMERCE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOMMERCE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"ECOMMERCE_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOMMERCE_REDIS_URL"`
	Address      string        `envconfig:"ECOMMERCE_REDIS_ADDR"`
	Password     string        `envconfig:"ECOMMERCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOMMERCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOMMERCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOMMERCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOMMERCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOMMERCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOMMERCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ECOMMERCE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ECOMMERCE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ECOMMERCE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ECOMMERCE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ECOMMERCE_AUTO_MIGRATE" default:"false"`
}

// CacheConfig tunes the read-through entity cache.
type CacheConfig struct {
	TTL time.Duration `envconfig:"ECOMMERCE_CACHE_TTL" default:"10m"`
}

// JobsConfig tunes the delayed job queue worker.
type JobsConfig struct {
	BatchSize         int           `envconfig:"ECOMMERCE_JOBS_BATCH_SIZE" default:"20"`
	PollIntervalMS    int           `envconfig:"ECOMMERCE_JOBS_POLL_MS" default:"500"`
	DefaultAttempts   int           `envconfig:"ECOMMERCE_JOBS_DEFAULT_ATTEMPTS" default:"2"`
	VisibilityTimeout time.Duration `envconfig:"ECOMMERCE_JOBS_VISIBILITY_TIMEOUT" default:"1m"`
	RetryBackoff      time.Duration `envconfig:"ECOMMERCE_JOBS_RETRY_BACKOFF" default:"5s"`
	ReaperInterval    time.Duration `envconfig:"ECOMMERCE_JOBS_REAPER_INTERVAL" default:"30s"`
}

// PollInterval returns the configured poll cadence.
func (j JobsConfig) PollInterval() time.Duration {
	if j.PollIntervalMS <= 0 {
		return 0
	}
	return time.Duration(j.PollIntervalMS) * time.Millisecond
}

type LimitsConfig struct {
	MaxUnitsPerOrder int `envconfig:"ECOMMERCE_LIMIT_MAX_UNITS_PER_ORDER" default:"500"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = db.SQLitePath
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
