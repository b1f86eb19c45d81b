package config

// EnvPrefix is passed to envconfig; individual fields carry fully-qualified
// envconfig tags, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SHOPCART_APP_ENV"
	EnvPort     = "SHOPCART_APP_PORT"
	EnvRedisURL = "SHOPCART_REDIS_URL"
	EnvDBDSN    = "SHOPCART_DB_DSN"
	EnvDBHost   = "SHOPCART_DB_HOST"
	EnvDBUser   = "SHOPCART_DB_USER"
	EnvDBName   = "SHOPCART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
