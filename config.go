package atmxgo

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	Store struct {
		Driver           string        `yaml:"driver"`
		Path             string        `yaml:"path"`
		ConnectionString string        `yaml:"conn_str"`
		Timeout          time.Duration `yaml:"timeout"`
	} `yaml:"store"`
	Breaker struct {
		MaxFailures uint32        `yaml:"max_failures"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"breaker"`
	PIN struct {
		Length int `yaml:"length"`
	} `yaml:"pin"`
	NodeID         int64  `yaml:"node_id"`
	CurrencySymbol string `yaml:"currency_symbol"`
	StatementDir   string `yaml:"statement_dir"`
	LogLevel       string `yaml:"log_level"`
}

// DefaultConfig is a file store under ./data with the stock PIN policy.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Store.Driver = DriverFile
	cfg.Store.Path = "data/accounts.json"
	cfg.Store.Timeout = 5 * time.Second
	cfg.Breaker.MaxFailures = 3
	cfg.Breaker.Timeout = 30 * time.Second
	cfg.PIN.Length = DefaultPINPolicy.Length
	cfg.NodeID = 1
	cfg.CurrencySymbol = "$"
	cfg.StatementDir = "."
	cfg.LogLevel = "info"
	return cfg
}

// LoadConfig builds the configuration in layers: defaults, then the YAML
// file at path (skipped when it does not exist), then variables from the
// given .env files, then ATM_* environment variables.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	bits, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config failed: %w", err)
	default:
		if err = yaml.Unmarshal(bits, cfg); err != nil {
			return nil, fmt.Errorf("parse config failed: %w", err)
		}
	}

	for _, f := range envFiles {
		if err = godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s failed: %w", f, err)
		}
	}
	if err = cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	if v := os.Getenv("ATM_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("ATM_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("ATM_STORE_CONN_STR"); v != "" {
		cfg.Store.ConnectionString = v
	}
	if v := os.Getenv("ATM_PIN_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ATM_PIN_LENGTH: %w", err)
		}
		cfg.PIN.Length = n
	}
	if v := os.Getenv("ATM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func (cfg *Config) Validate() error {
	switch cfg.Store.Driver {
	case DriverFile:
		if cfg.Store.Path == "" {
			return errors.New("store path is not set")
		}
	case DriverPostgres:
		if cfg.Store.ConnectionString == "" {
			return errors.New("store connection string is not set")
		}
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Store.Timeout <= 0 {
		return errors.New("store timeout must be positive")
	}
	if cfg.PIN.Length < 4 || cfg.PIN.Length > 12 {
		return fmt.Errorf("PIN length %d out of range 4-12", cfg.PIN.Length)
	}
	if cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return fmt.Errorf("node ID %d out of range 0-1023", cfg.NodeID)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

func (cfg *Config) PINPolicy() PINPolicy {
	return PINPolicy{Length: cfg.PIN.Length}
}
