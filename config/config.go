package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-imagelite/persistence"
)

// Prefix is prepended to every environment variable name
const Prefix = "IMAGELITE_"

// Config is the process configuration. The token lifetime and the signing
// key are deliberately absent: the first is fixed, the second is generated
// at startup.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":8080"`
	DBDriver        string        `env:"DB_DRIVER"        envDefault:"sqlite"`
	DBDSN           string        `env:"DB_DSN"           envDefault:"file:imagelite.db?cache=shared"`
	DBDebug         bool          `env:"DB_DEBUG"         envDefault:"false"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"       envDefault:"json"`
	BcryptCost      int           `env:"BCRYPT_COST"      envDefault:"12"`
	AuthScheme      string        `env:"AUTH_SCHEME"      envDefault:"Bearer"`
	TokenLookup     string        `env:"TOKEN_LOOKUP"     envDefault:"header:Authorization"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"     envDefault:"*" envSeparator:","`
	MaxUploadBytes  int           `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads the configuration from the process environment and validates it.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// Default returns the configuration with every default applied, ignoring
// the environment.
func Default() Config {
	cfg, err := parse(env.Options{Prefix: Prefix, Environment: map[string]string{}})
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case persistence.DriverSQLite, persistence.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}

	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat))
	}

	if strings.TrimSpace(c.AuthScheme) == "" {
		errs = append(errs, errors.New("AUTH_SCHEME is required"))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
