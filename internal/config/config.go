package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Backends accepted by --backend.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPebble   = "pebble"
	BackendPostgres = "postgres"
)

// Clock sources accepted by --clock.
const (
	ClockSystem = "system"
	ClockChain  = "chain"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Backend      string
	StateDir     string
	PGDSN        string
	PoolName     string
	ProgramID    string
	MintA        string
	MintB        string
	ReceiptMint  string
	Issuer       string
	Clock        string
	RPCURL       string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Backend:      strings.ToLower(v.GetString("backend")),
		StateDir:     v.GetString("state-dir"),
		PGDSN:        v.GetString("pg-dsn"),
		PoolName:     v.GetString("pool-name"),
		ProgramID:    v.GetString("program-id"),
		MintA:        v.GetString("mint-a"),
		MintB:        v.GetString("mint-b"),
		ReceiptMint:  v.GetString("receipt-mint"),
		Issuer:       v.GetString("issuer"),
		Clock:        strings.ToLower(v.GetString("clock")),
		RPCURL:       v.GetString("rpc"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile, BackendPebble:
	case BackendPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Clock {
	case ClockSystem:
	case ClockChain:
		if c.RPCURL == "" {
			return fmt.Errorf("rpc url is required for the chain clock")
		}
	default:
		return fmt.Errorf("unknown clock %q", c.Clock)
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("STAKESWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", BackendFile)
	v.SetDefault("state-dir", "./data")
	v.SetDefault("pool-name", "default")
	v.SetDefault("program-id", "0x5354414b45535741500000000000000000000001")
	v.SetDefault("mint-a", "0x000000000000000000000000000000000000000A")
	v.SetDefault("mint-b", "0x000000000000000000000000000000000000000B")
	v.SetDefault("receipt-mint", "0x000000000000000000000000000000000000000C")
	v.SetDefault("issuer", "0x00000000000000000000000000000000000000FF")
	v.SetDefault("clock", ClockSystem)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("window", "1h")
	v.SetDefault("batch-size", 1000)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}
