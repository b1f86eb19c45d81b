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
	Cart         CartConfig
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
	Env          string `envconfig:"SHOPCART_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPCART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPCART_DB_DSN"`
	Driver string `envconfig:"SHOPCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPCART_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPCART_DB_USER"`
	LegacyPassword string `envconfig:"SHOPCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPCART_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig tunes the cart engine: read-cache staleness, token shape and the
// retention sweep window.
type CartConfig struct {
	ReadCacheTTL   time.Duration `envconfig:"SHOPCART_CART_READ_CACHE_TTL" default:"30s"`
	RetentionDays  int           `envconfig:"SHOPCART_CART_RETENTION_DAYS" default:"30"`
	SweepHour      int           `envconfig:"SHOPCART_CART_SWEEP_HOUR" default:"1"`
	TokenMinLength int           `envconfig:"SHOPCART_CART_TOKEN_MIN_LENGTH" default:"32"`
	CookieName     string        `envconfig:"SHOPCART_CART_COOKIE_NAME" default:"shopcart_token"`
	CookieMaxAge   time.Duration `envconfig:"SHOPCART_CART_COOKIE_MAX_AGE" default:"720h"`
}

// Retention returns the sweep retention window as a duration.
func (c CartConfig) Retention() time.Duration {
	if c.RetentionDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOPCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOPCART_AUTO_MIGRATE" default:"false"`
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
