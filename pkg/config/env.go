package config

const EnvPrefix = "ECOMMERCE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv    = "ECOMMERCE_APP_ENV"
	EnvPort      = "ECOMMERCE_APP_PORT"
	EnvLogLevel  = "ECOMMERCE_LOG_LEVEL"
	EnvDBDSN     = "ECOMMERCE_DB_DSN"
	EnvDBHost    = "ECOMMERCE_DB_HOST"
	EnvDBUser    = "ECOMMERCE_DB_USER"
	EnvDBName    = "ECOMMERCE_DB_NAME"
	EnvUseSQLite = "ECOMMERCE_USE_SQLITE"
	EnvRedisURL  = "ECOMMERCE_REDIS_URL"

	EnvJWTSecret  = "ECOMMERCE_JWT_SECRET"
	EnvJWTIssuer  = "ECOMMERCE_JWT_ISSUER"
	EnvJWTExpMins = "ECOMMERCE_JWT_EXPIRATION_MINUTES"

	EnvCacheTTL         = "ECOMMERCE_CACHE_TTL"
	EnvJobsAttempts     = "ECOMMERCE_JOBS_DEFAULT_ATTEMPTS"
	EnvMaxUnitsPerOrder = "ECOMMERCE_LIMIT_MAX_UNITS_PER_ORDER"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
