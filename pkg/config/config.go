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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Aggregation  AggregationConfig
	Cron         CronConfig
	Tracing      TracingConfig
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
	if err := cfg.Aggregation.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SERVIZAS_APP_ENV" required:"true"`
	Port         string `envconfig:"SERVIZAS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SERVIZAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVIZAS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SERVIZAS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SERVIZAS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SERVIZAS_DB_DSN"`
	Driver string `envconfig:"SERVIZAS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SERVIZAS_DB_HOST"`
	Port     int    `envconfig:"SERVIZAS_DB_PORT" default:"5432"`
	User     string `envconfig:"SERVIZAS_DB_USER"`
	Password string `envconfig:"SERVIZAS_DB_PASSWORD"`
	Name     string `envconfig:"SERVIZAS_DB_NAME"`
	SSLMode  string `envconfig:"SERVIZAS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVIZAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVIZAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVIZAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVIZAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

// RedisConfig is optional: an empty URL and address disables idempotency
// records and the cron lock falls back to a process-local one.
type RedisConfig struct {
	URL            string        `envconfig:"SERVIZAS_REDIS_URL"`
	Address        string        `envconfig:"SERVIZAS_REDIS_ADDR"`
	Password       string        `envconfig:"SERVIZAS_REDIS_PASSWORD"`
	DB             int           `envconfig:"SERVIZAS_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"SERVIZAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"SERVIZAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"SERVIZAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"SERVIZAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"SERVIZAS_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"SERVIZAS_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SERVIZAS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SERVIZAS_JWT_ISSUER" default:"servizas"`
	ExpirationMinutes int    `envconfig:"SERVIZAS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AggregationConfig bounds the retry loop used when an order total changes
// under a concurrent writer.
type AggregationConfig struct {
	MaxRetries uint64        `envconfig:"SERVIZAS_AGGREGATION_MAX_RETRIES" default:"5"`
	Backoff    time.Duration `envconfig:"SERVIZAS_AGGREGATION_BACKOFF" default:"10ms"`
}

func (a AggregationConfig) validate() error {
	if a.Backoff <= 0 {
		return fmt.Errorf("%s must be positive", EnvAggregationBackoff)
	}
	return nil
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"SERVIZAS_CRON_INTERVAL" default:"6h"`
	LockTTL              time.Duration `envconfig:"SERVIZAS_CRON_LOCK_TTL" default:"1h"`
	ReconcileBatchSize   int           `envconfig:"SERVIZAS_CRON_RECONCILE_BATCH_SIZE" default:"200"`
	ReconcileConcurrency int           `envconfig:"SERVIZAS_CRON_RECONCILE_CONCURRENCY" default:"4"`
}

// TracingConfig drives the OpenTelemetry tracer provider. Without an OTLP
// endpoint spans go to stdout.
type TracingConfig struct {
	Enabled      bool    `envconfig:"SERVIZAS_OTEL_ENABLED" default:"false"`
	OTLPEndpoint string  `envconfig:"SERVIZAS_OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool    `envconfig:"SERVIZAS_OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
	SampleRatio  float64 `envconfig:"SERVIZAS_OTEL_SAMPLER_RATIO" default:"0.1"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SERVIZAS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range legacyDBEnvVars {
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
