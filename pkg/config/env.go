package config

const EnvPrefix = "SERVIZAS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "SERVIZAS_APP_ENV"
	EnvPort         = "SERVIZAS_APP_PORT"
	EnvLogLevel     = "SERVIZAS_LOG_LEVEL"
	EnvLogWarnStack = "SERVIZAS_LOG_WARN_STACK"
	EnvServiceKind  = "SERVIZAS_SERVICE_KIND"

	EnvDBDSN      = "SERVIZAS_DB_DSN"
	EnvDBDriver   = "SERVIZAS_DB_DRIVER"
	EnvDBHost     = "SERVIZAS_DB_HOST"
	EnvDBPort     = "SERVIZAS_DB_PORT"
	EnvDBUser     = "SERVIZAS_DB_USER"
	EnvDBPassword = "SERVIZAS_DB_PASSWORD"
	EnvDBName     = "SERVIZAS_DB_NAME"
	EnvDBSSLMode  = "SERVIZAS_DB_SSLMODE"

	EnvRedisURL  = "SERVIZAS_REDIS_URL"
	EnvRedisAddr = "SERVIZAS_REDIS_ADDR"

	EnvJWTSecret  = "SERVIZAS_JWT_SECRET"
	EnvJWTIssuer  = "SERVIZAS_JWT_ISSUER"
	EnvJWTExpMins = "SERVIZAS_JWT_EXPIRATION_MINUTES"

	EnvAggregationMaxRetries = "SERVIZAS_AGGREGATION_MAX_RETRIES"
	EnvAggregationBackoff    = "SERVIZAS_AGGREGATION_BACKOFF"

	EnvCronInterval    = "SERVIZAS_CRON_INTERVAL"
	EnvCronConcurrency = "SERVIZAS_CRON_RECONCILE_CONCURRENCY"

	EnvOTelEnabled  = "SERVIZAS_OTEL_ENABLED"
	EnvOTelEndpoint = "SERVIZAS_OTEL_EXPORTER_OTLP_ENDPOINT"

	EnvAutoMigrate = "SERVIZAS_AUTO_MIGRATE"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
