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
	Checkout     CheckoutConfig
	Commission   CommissionConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"SALESDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"SALESDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SALESDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALESDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SALESDESK_DB_DSN"`
	Driver string `envconfig:"SALESDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SALESDESK_DB_HOST"`
	Port     int    `envconfig:"SALESDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"SALESDESK_DB_USER"`
	Password string `envconfig:"SALESDESK_DB_PASSWORD"`
	Name     string `envconfig:"SALESDESK_DB_NAME"`
	SSLMode  string `envconfig:"SALESDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALESDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALESDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALESDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALESDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SALESDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SALESDESK_REDIS_ADDR"`
	Password     string        `envconfig:"SALESDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALESDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALESDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALESDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALESDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALESDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALESDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SALESDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SALESDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SALESDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CheckoutConfig bounds the checkout critical section.
type CheckoutConfig struct {
	TxTimeout time.Duration `envconfig:"SALESDESK_CHECKOUT_TX_TIMEOUT" default:"5s"`
}

// CommissionConfig controls whether checkout credits the manager's wallet
// synchronously when a sale commits.
type CommissionConfig struct {
	AutoCredit bool `envconfig:"SALESDESK_COMMISSION_AUTO_CREDIT" default:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SALESDESK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SALESDESK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SALESDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SALESDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SalesTopic        string `envconfig:"SALESDESK_PUBSUB_SALES_TOPIC" default:"sd-sale-events"`
	SalesSubscription string `envconfig:"SALESDESK_PUBSUB_SALES_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SALESDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SALESDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SALESDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"SALESDESK_DB_HOST": db.Host,
		"SALESDESK_DB_USER": db.User,
		"SALESDESK_DB_NAME": db.Name,
	}
	for _, env := range []string{"SALESDESK_DB_HOST", "SALESDESK_DB_USER", "SALESDESK_DB_NAME"} {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either SALESDESK_DB_DSN or %s are required", strings.Join(missing, ", "))
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
