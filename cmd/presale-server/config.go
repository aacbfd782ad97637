package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	pg "github.com/code-payments/presale-server/pkg/database/postgres"
)

const envPrefix = "PRESALE"

// infraConfig is the connection level configuration that is fixed for the
// lifetime of the process. Tunables that may change at runtime live in each
// component's ConfigProvider.
type infraConfig struct {
	Database databaseConfig
	Redis    redisConfig
	Auth     authConfig
	Purchase purchaseConfig
}

type databaseConfig struct {
	// Memory stores are used when no host is configured
	Host               string `envconfig:"DB_HOST"`
	Port               int    `envconfig:"DB_PORT" default:"5432"`
	Name               string `envconfig:"DB_NAME" default:"presale"`
	User               string `envconfig:"DB_USER" default:"postgres"`
	Password           string `envconfig:"DB_PASSWORD"`
	UseAwsIam          bool   `envconfig:"DB_USE_AWS_IAM" default:"false"`
	MaxOpenConnections int    `envconfig:"DB_MAX_OPEN_CONNECTIONS" default:"20"`
	MaxIdleConnections int    `envconfig:"DB_MAX_IDLE_CONNECTIONS" default:"10"`
}

type redisConfig struct {
	// Replay protection and rate limiting stay process local when no address
	// is configured
	Address  string `envconfig:"REDIS_ADDRESS"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type authConfig struct {
	SignatureMaxAge time.Duration `envconfig:"SIGNATURE_MAX_AGE" default:"2m"`
}

type purchaseConfig struct {
	RateLimit  int64         `envconfig:"PURCHASE_RATE_LIMIT" default:"10"`
	RateWindow time.Duration `envconfig:"PURCHASE_RATE_WINDOW" default:"1m"`
	RateKeys   int           `envconfig:"PURCHASE_RATE_MAX_KEYS" default:"100000"`
}

func loadInfraConfig() (*infraConfig, error) {
	// A missing .env file is expected outside of local development
	_ = godotenv.Load()

	var cfg infraConfig
	for _, section := range []interface{}{&cfg.Database, &cfg.Redis, &cfg.Auth, &cfg.Purchase} {
		if err := envconfig.Process(envPrefix, section); err != nil {
			return nil, errors.Wrap(err, "failed to load infra config")
		}
	}

	if cfg.Auth.SignatureMaxAge <= 0 {
		return nil, errors.New("signature max age must be positive")
	}
	if cfg.Purchase.RateLimit < 0 || cfg.Purchase.RateWindow <= 0 || cfg.Purchase.RateKeys < 1 {
		return nil, errors.New("invalid purchase rate limit")
	}

	return &cfg, nil
}

func (c *databaseConfig) isConfigured() bool {
	return len(c.Host) > 0
}

func (c *databaseConfig) toPostgresConfig() *pg.Config {
	return &pg.Config{
		User:               c.User,
		Host:               c.Host,
		Password:           c.Password,
		Port:               c.Port,
		DbName:             c.Name,
		MaxOpenConnections: c.MaxOpenConnections,
		MaxIdleConnections: c.MaxIdleConnections,
	}
}
