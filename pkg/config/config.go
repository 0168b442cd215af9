package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Redis    RedisConfig
	DB       DBConfig
	Backend  BackendConfig
	Checkout CheckoutConfig
	Session  SessionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
	case StorageDriverSQL:
		if err := c.DB.validate(); err != nil {
			return err
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, c.Storage.Driver)
	}

	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("%s is required", EnvBackendBaseURL)
	}
	if _, err := c.Checkout.ShippingFeeAmount(); err != nil {
		return err
	}
	if _, err := c.Checkout.DiscountAmount(); err != nil {
		return err
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"PACKFINDERZ_APP_ENV" default:"dev"`
	Port         string `envconfig:"PACKFINDERZ_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PACKFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKFINDERZ_LOG_WARN_STACK" default:"false"`
	// CORSOrigins lists the browser origins allowed to call the local surface.
	CORSOrigins []string `envconfig:"PACKFINDERZ_APP_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the durable slot backend mirroring cart and session state.
type StorageConfig struct {
	Driver       string        `envconfig:"PACKFINDERZ_STORAGE_DRIVER" default:"sql"`
	Namespace    string        `envconfig:"PACKFINDERZ_STORAGE_NAMESPACE" default:"pf"`
	WriteTimeout time.Duration `envconfig:"PACKFINDERZ_STORAGE_WRITE_TIMEOUT" default:"2s"`
	QueueSize    int           `envconfig:"PACKFINDERZ_STORAGE_QUEUE_SIZE" default:"64"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKFINDERZ_REDIS_URL"`
	Address      string        `envconfig:"PACKFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PACKFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKFINDERZ_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"PACKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"PACKFINDERZ_REDIS_WRITE_TIMEOUT" default:"3s"`
	// SlotTTL bounds how long mirrored slots live; zero keeps them until deleted.
	SlotTTL time.Duration `envconfig:"PACKFINDERZ_REDIS_SLOT_TTL" default:"0"`
}

type DBConfig struct {
	Driver string `envconfig:"PACKFINDERZ_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"PACKFINDERZ_DB_DSN" default:"file:storefront.db?_busy_timeout=5000"`

	MaxOpenConns    int           `envconfig:"PACKFINDERZ_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"PACKFINDERZ_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	AutoMigrate     bool          `envconfig:"PACKFINDERZ_DB_AUTO_MIGRATE" default:"true"`
}

func (db *DBConfig) validate() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	switch db.Driver {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

// BackendConfig points at the marketplace REST API.
type BackendConfig struct {
	BaseURL            string        `envconfig:"PACKFINDERZ_BACKEND_BASE_URL"`
	RequestTimeout     time.Duration `envconfig:"PACKFINDERZ_BACKEND_REQUEST_TIMEOUT" default:"15s"`
	BreakerMaxFailures uint32        `envconfig:"PACKFINDERZ_BACKEND_BREAKER_MAX_FAILURES" default:"5"`
	BreakerInterval    time.Duration `envconfig:"PACKFINDERZ_BACKEND_BREAKER_INTERVAL" default:"1m"`
	BreakerOpenTimeout time.Duration `envconfig:"PACKFINDERZ_BACKEND_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

type CheckoutConfig struct {
	Timeout     time.Duration `envconfig:"PACKFINDERZ_CHECKOUT_TIMEOUT" default:"30s"`
	ShippingFee string        `envconfig:"PACKFINDERZ_CHECKOUT_SHIPPING_FEE" default:"0"`
	Discount    string        `envconfig:"PACKFINDERZ_CHECKOUT_DISCOUNT" default:"0"`
}

// ShippingFeeAmount parses the configured flat shipping fee.
func (c CheckoutConfig) ShippingFeeAmount() (decimal.Decimal, error) {
	return parseAmount(EnvCheckoutShippingFee, c.ShippingFee)
}

// DiscountAmount parses the configured order-level discount.
func (c CheckoutConfig) DiscountAmount() (decimal.Decimal, error) {
	return parseAmount("PACKFINDERZ_CHECKOUT_DISCOUNT", c.Discount)
}

type SessionConfig struct {
	// ExpiryLeeway treats tokens expiring within the window as already expired.
	ExpiryLeeway time.Duration `envconfig:"PACKFINDERZ_SESSION_EXPIRY_LEEWAY" default:"30s"`
}

func parseAmount(name, raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", name, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be non-negative", name)
	}
	return amount, nil
}
