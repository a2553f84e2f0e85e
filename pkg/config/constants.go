package config

// EnvPrefix namespaces every environment variable read by envconfig.
const EnvPrefix = "ECOSCAN"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "ECOSCAN_APP_ENV"
	EnvPort     = "ECOSCAN_APP_PORT"
	EnvDBDSN    = "ECOSCAN_DB_DSN"
	EnvDBHost   = "ECOSCAN_DB_HOST"
	EnvDBUser   = "ECOSCAN_DB_USER"
	EnvDBName   = "ECOSCAN_DB_NAME"
	EnvRedisURL = "ECOSCAN_REDIS_URL"

	EnvJWTSecret  = "ECOSCAN_JWT_SECRET"
	EnvJWTIssuer  = "ECOSCAN_JWT_ISSUER"
	EnvJWTExpMins = "ECOSCAN_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
