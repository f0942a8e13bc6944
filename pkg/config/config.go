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
	Omnisend     OmnisendConfig
	Webhook      WebhookConfig
	Sync         SyncConfig
	PartialEntry PartialEntryConfig
	Backfill     BackfillConfig
	Cron         CronConfig
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
	Env          string `envconfig:"FREYASYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"FREYASYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FREYASYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FREYASYNC_LOG_WARN_STACK" default:"false"`

	// PublicHost is the externally visible hostname of this deployment.
	// Live Omnisend mutations are refused unless it matches ProductionHost.
	PublicHost     string `envconfig:"FREYASYNC_PUBLIC_HOST"`
	ProductionHost string `envconfig:"FREYASYNC_PRODUCTION_HOST" default:"freyameds.com"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// IsProductionHost reports whether this deployment is the one host allowed
// to mutate live Omnisend data. A leading www. is ignored.
func (a AppConfig) IsProductionHost() bool {
	host := strings.TrimPrefix(strings.TrimSpace(strings.ToLower(a.PublicHost)), "www.")
	return host != "" && host == strings.ToLower(a.ProductionHost)
}

type ServiceConfig struct {
	Kind string `envconfig:"FREYASYNC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FREYASYNC_DB_DSN"`
	Driver string `envconfig:"FREYASYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FREYASYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"FREYASYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FREYASYNC_DB_USER"`
	LegacyPassword string `envconfig:"FREYASYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"FREYASYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"FREYASYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FREYASYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FREYASYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FREYASYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FREYASYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FREYASYNC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FREYASYNC_REDIS_ADDR"`
	Password     string        `envconfig:"FREYASYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"FREYASYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FREYASYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FREYASYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FREYASYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FREYASYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FREYASYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type OmnisendConfig struct {
	APIKey  string        `envconfig:"FREYASYNC_OMNISEND_API_KEY"`
	BaseURL string        `envconfig:"FREYASYNC_OMNISEND_BASE_URL" default:"https://api.omnisend.com/v5"`
	Timeout time.Duration `envconfig:"FREYASYNC_OMNISEND_TIMEOUT" default:"30s"`
}

type WebhookConfig struct {
	// Token authenticates incoming storefront webhooks. An empty token
	// disables the check, for local development only.
	Token string `envconfig:"FREYASYNC_WEBHOOK_TOKEN"`
	// RateLimit caps webhook deliveries per caller per window.
	RateLimit  int64         `envconfig:"FREYASYNC_WEBHOOK_RATE_LIMIT" default:"600"`
	RateWindow time.Duration `envconfig:"FREYASYNC_WEBHOOK_RATE_WINDOW" default:"1m"`
}

type SyncConfig struct {
	// ActiveWindowDays is how recently a subscription must have been created
	// for an "active" transition to still confirm the contact property.
	ActiveWindowDays int `envconfig:"FREYASYNC_SYNC_ACTIVE_WINDOW_DAYS" default:"14"`

	IdempotencyTTL time.Duration `envconfig:"FREYASYNC_SYNC_IDEMPOTENCY_TTL" default:"720h"`
}

// ActiveWindow returns the configured window as a duration.
func (s SyncConfig) ActiveWindow() time.Duration {
	return time.Duration(s.ActiveWindowDays) * 24 * time.Hour
}

type PartialEntryConfig struct {
	FormID       int64         `envconfig:"FREYASYNC_PARTIAL_FORM_ID"`
	EmailFieldID string        `envconfig:"FREYASYNC_PARTIAL_EMAIL_FIELD_ID"`
	TagFieldID   string        `envconfig:"FREYASYNC_PARTIAL_TAG_FIELD_ID"`
	ProcessDelay time.Duration `envconfig:"FREYASYNC_PARTIAL_PROCESS_DELAY" default:"5s"`
	DedupeTTL    time.Duration `envconfig:"FREYASYNC_PARTIAL_DEDUPE_TTL" default:"24h"`
	WorkerPoll   time.Duration `envconfig:"FREYASYNC_PARTIAL_WORKER_POLL" default:"1s"`
	WorkerBatch  int           `envconfig:"FREYASYNC_PARTIAL_WORKER_BATCH" default:"20"`
}

type BackfillConfig struct {
	BatchSize       int           `envconfig:"FREYASYNC_BACKFILL_BATCH_SIZE" default:"100"`
	ProcessingLimit int           `envconfig:"FREYASYNC_BACKFILL_PROCESSING_LIMIT" default:"0"`
	StartOffset     int           `envconfig:"FREYASYNC_BACKFILL_START_OFFSET" default:"0"`
	DryRun          bool          `envconfig:"FREYASYNC_BACKFILL_DRY_RUN" default:"false"`
	PageDelay       time.Duration `envconfig:"FREYASYNC_BACKFILL_PAGE_DELAY" default:"100ms"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"FREYASYNC_CRON_INTERVAL" default:"24h"`
	ReconcileLimit    int           `envconfig:"FREYASYNC_CRON_RECONCILE_LIMIT" default:"250"`
	ReconcileLookback time.Duration `envconfig:"FREYASYNC_CRON_RECONCILE_LOOKBACK" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FREYASYNC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FREYASYNC_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
