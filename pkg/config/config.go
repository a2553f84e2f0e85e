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
	FeatureFlags FeatureFlagsConfig
	Vision       VisionConfig
	Scanner      ScannerConfig
	GS1          GS1Config
	GoogleMaps   GoogleMapsConfig
	Recycle      RecycleConfig
	Stats        StatsConfig
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
	Env          string `envconfig:"ECOSCAN_APP_ENV" required:"true"`
	Port         string `envconfig:"ECOSCAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ECOSCAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECOSCAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ECOSCAN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ECOSCAN_DB_DSN"`
	Driver string `envconfig:"ECOSCAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ECOSCAN_DB_HOST"`
	LegacyPort     int    `envconfig:"ECOSCAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ECOSCAN_DB_USER"`
	LegacyPassword string `envconfig:"ECOSCAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"ECOSCAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"ECOSCAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ECOSCAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOSCAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOSCAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOSCAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOSCAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ECOSCAN_REDIS_ADDR"`
	Password     string        `envconfig:"ECOSCAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOSCAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOSCAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOSCAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOSCAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOSCAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOSCAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ECOSCAN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ECOSCAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ECOSCAN_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ECOSCAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ECOSCAN_AUTO_MIGRATE" default:"false"`
}

// VisionConfig carries the provider credentials for the detection fallback chain.
// Providers with an empty key are skipped when the chain is assembled.
type VisionConfig struct {
	MoondreamAPIKey string        `envconfig:"ECOSCAN_MOONDREAM_API_KEY"`
	GeminiAPIKey    string        `envconfig:"ECOSCAN_GEMINI_API_KEY"`
	GeminiAPIKey2   string        `envconfig:"ECOSCAN_GEMINI_API_KEY2"`
	GeminiAPIKey3   string        `envconfig:"ECOSCAN_GEMINI_API_KEY3"`
	OpenAIAPIKey    string        `envconfig:"ECOSCAN_OPENAI_API_KEY"`
	RequestTimeout  time.Duration `envconfig:"ECOSCAN_VISION_REQUEST_TIMEOUT" default:"30s"`
	MinConfidence   float64       `envconfig:"ECOSCAN_VISION_MIN_CONFIDENCE" default:"0.7"`
}

// ScannerConfig points at the legacy scanner microservice used as the last
// rung of the fallback chain.
type ScannerConfig struct {
	BaseURL string `envconfig:"ECOSCAN_SCANNER_BASE_URL"`
}

type GS1Config struct {
	BaseURL   string `envconfig:"ECOSCAN_GS1_BASE_URL" default:"https://gs1datakart.org/dkapi"`
	AuthToken string `envconfig:"ECOSCAN_GS1_AUTH_TOKEN"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"ECOSCAN_GOOGLE_MAPS_API_KEY"`
}

type RecycleConfig struct {
	SessionTTL time.Duration `envconfig:"ECOSCAN_RECYCLE_SESSION_TTL" default:"30m"`
}

type StatsConfig struct {
	CacheTTL time.Duration `envconfig:"ECOSCAN_STATS_CACHE_TTL" default:"25h"`
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
