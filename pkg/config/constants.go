package config

// EnvPrefix is passed to envconfig; explicit envconfig tags on each field
// keep the variable names stable regardless of struct layout.
const EnvPrefix = "FREYASYNC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "FREYASYNC_APP_ENV"
	EnvPort     = "FREYASYNC_APP_PORT"
	EnvDBDSN    = "FREYASYNC_DB_DSN"
	EnvDBHost   = "FREYASYNC_DB_HOST"
	EnvDBUser   = "FREYASYNC_DB_USER"
	EnvDBName   = "FREYASYNC_DB_NAME"
	EnvRedisURL = "FREYASYNC_REDIS_URL"

	EnvOmnisendAPIKey = "FREYASYNC_OMNISEND_API_KEY"
	EnvPublicHost     = "FREYASYNC_PUBLIC_HOST"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
