package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Promotions   PromotionsConfig
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
	Env          string `envconfig:"CRUISEBOOK_APP_ENV" required:"true"`
	Port         string `envconfig:"CRUISEBOOK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRUISEBOOK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRUISEBOOK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CRUISEBOOK_DB_DSN"`
	Driver string `envconfig:"CRUISEBOOK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRUISEBOOK_DB_HOST"`
	LegacyPort     int    `envconfig:"CRUISEBOOK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRUISEBOOK_DB_USER"`
	LegacyPassword string `envconfig:"CRUISEBOOK_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRUISEBOOK_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRUISEBOOK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRUISEBOOK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRUISEBOOK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRUISEBOOK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRUISEBOOK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a DSN from the discrete host/user fields when one was
// not provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	userInfo := url.User(d.LegacyUser)
	if d.LegacyPassword != "" {
		userInfo = url.UserPassword(d.LegacyUser, d.LegacyPassword)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:     d.LegacyName,
		RawQuery: url.Values{"sslmode": []string{d.LegacySSLMode}}.Encode(),
	}
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CRUISEBOOK_REDIS_URL"`
	Address      string        `envconfig:"CRUISEBOOK_REDIS_ADDR"`
	Password     string        `envconfig:"CRUISEBOOK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRUISEBOOK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRUISEBOOK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRUISEBOOK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRUISEBOOK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRUISEBOOK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRUISEBOOK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CRUISEBOOK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CRUISEBOOK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CRUISEBOOK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"CRUISEBOOK_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"CRUISEBOOK_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"CRUISEBOOK_STRIPE_ENV" default:"test"`
}

func (s StripeConfig) Environment() string {
	return s.Env
}

type PromotionsConfig struct {
	CacheTTL time.Duration `envconfig:"CRUISEBOOK_PROMOTIONS_CACHE_TTL" default:"60s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CRUISEBOOK_FEATURE_AUTO_MIGRATE" default:"false"`
}
