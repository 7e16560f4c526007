package config

import (
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"

	pkgconfig "github.com/Skotchmaster/ecoshop/pkg/config"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMongo    = "mongo"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME,default=ecoshop"`
	ServerPort  string `env:"SERVER_PORT,default=8080"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	StoreDriver   string `env:"STORE_DRIVER,default=postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	MongoDatabase string `env:"MONGO_DATABASE,default=ecoshop"`

	JWTSecret  string `env:"JWT_SECRET"`
	BcryptCost int    `env:"BCRYPT_COST,default=10"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`

	AdminUsername string `env:"ADMIN_USERNAME,default=admin"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads .env (when present) and the process environment.
func Load(envFiles ...string) (*Config, error) {
	pkgconfig.LoadDotEnv(envFiles...)

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := pkgconfig.NonEmpty(c.JWTSecret, "JWT_SECRET"); err != nil {
		return err
	}
	if err := pkgconfig.NonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
		return err
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverSQLite, StoreDriverMongo:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of postgres, sqlite, mongo, got %q", c.StoreDriver)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c *Config) Brokers() []string {
	return pkgconfig.CSV(c.KafkaBrokers)
}

func (c *Config) SeedAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
